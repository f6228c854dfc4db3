// Package broadcast runs recurring group mailings: each job repeats a
// message to its targets at a fixed interval until its end instant.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cleanchistwood/cleanbot/core/logger"
	"github.com/cleanchistwood/cleanbot/internal/directory"

	"github.com/hashicorp/go-multierror"
)

// intervalByKey maps wizard interval keys to durations.
var intervalByKey = map[string]time.Duration{
	"1m":  time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"3h":  3 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// Delivery pacing between targets and the penalty pauses.
const (
	minTargetDelay  = 3 * time.Second
	targetDelaySpan = 2 * time.Second
	floodPause      = 30 * time.Second
	forbiddenPause  = 2 * time.Second
)

// Sender delivers one message to a named group.
type Sender interface {
	Send(ctx context.Context, name, message string) error
}

// Snapshot is a read-only view of a running job.
type Snapshot struct {
	ID          string
	Message     string
	IntervalKey string
	Interval    time.Duration
	End         time.Time
	StartedAt   time.Time
	Targets     []string
}

type job struct {
	Snapshot
	cancel context.CancelFunc
}

// Options configures a Registry. Sleep and Rand are injectable for
// tests; nil picks real time and math/rand.
type Options struct {
	Sender Sender
	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration)
	Rand   func() float64
}

// Registry owns every running broadcast job and its timer.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*job
	wg     sync.WaitGroup
	closed bool

	sender Sender
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
	random func() float64
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	return &Registry{
		jobs:   make(map[string]*job),
		sender: opts.Sender,
		now:    opts.Now,
		sleep:  opts.Sleep,
		random: opts.Rand,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Schedule starts a job: an immediate delivery pass, then one pass per
// interval until the end instant.
func (r *Registry) Schedule(message, intervalKey string, end time.Time, targets []directory.Group) (string, error) {
	interval, ok := intervalByKey[intervalKey]
	if !ok {
		return "", fmt.Errorf("unknown interval %q", intervalKey)
	}
	if len(targets) == 0 {
		return "", fmt.Errorf("no targets")
	}

	names := make([]string, 0, len(targets))
	for _, g := range targets {
		names = append(names, g.Name)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", fmt.Errorf("registry closed")
	}
	now := r.now()
	ms := now.UnixMilli()
	id := fmt.Sprintf("broadcast_%d", ms)
	for _, taken := r.jobs[id]; taken; _, taken = r.jobs[id] {
		ms++
		id = fmt.Sprintf("broadcast_%d", ms)
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		Snapshot: Snapshot{
			ID:          id,
			Message:     message,
			IntervalKey: intervalKey,
			Interval:    interval,
			End:         end,
			StartedAt:   now,
			Targets:     names,
		},
		cancel: cancel,
	}
	r.jobs[id] = j
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(ctx, j)

	logger.Info(ctx, "broadcast", "job.scheduled",
		slog.String("broadcast", id),
		slog.String("interval", intervalKey),
		slog.Int("targets", len(names)),
	)
	return id, nil
}

// run owns one job's timer loop.
func (r *Registry) run(ctx context.Context, j *job) {
	defer r.wg.Done()
	defer r.remove(j.ID)

	r.deliver(ctx, j)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.now().Before(j.End) {
				logger.Info(ctx, "broadcast", "job.expired", slog.String("broadcast", j.ID))
				return
			}
			r.deliver(ctx, j)
		}
	}
}

// deliver runs one best-effort sequential pass over the targets.
func (r *Registry) deliver(ctx context.Context, j *job) {
	var errs error
	sent := 0
	for _, name := range j.Targets {
		if ctx.Err() != nil {
			return
		}
		err := r.sender.Send(ctx, name, j.Message)
		if err == nil {
			sent++
			r.sleep(ctx, minTargetDelay+time.Duration(r.random()*float64(targetDelaySpan)))
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
		switch {
		case isFlood(err):
			logger.Warn(ctx, "broadcast", "delivery.flood_pause",
				slog.String("broadcast", j.ID),
				slog.String("group", name),
			)
			r.sleep(ctx, floodPause)
		case isForbidden(err):
			logger.Warn(ctx, "broadcast", "delivery.target_skipped",
				slog.String("broadcast", j.ID),
				slog.String("group", name),
			)
			r.sleep(ctx, forbiddenPause)
		}
	}

	attrs := []slog.Attr{
		slog.String("broadcast", j.ID),
		slog.Int("sent", sent),
		slog.Int("targets", len(j.Targets)),
	}
	if errs != nil {
		attrs = append(attrs, slog.Any("error", errs))
		logger.Warn(ctx, "broadcast", "pass.partial", attrs...)
		return
	}
	logger.Info(ctx, "broadcast", "pass.complete", attrs...)
}

func isFlood(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "FLOOD") ||
		strings.Contains(msg, "Too Many") ||
		strings.Contains(msg, "wait")
}

func isForbidden(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "CHAT_WRITE_FORBIDDEN") ||
		strings.Contains(msg, "CHANNEL_INVALID")
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Cancel stops a job. It is idempotent and reports whether the job
// was running.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	j, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	j.cancel()
	return true
}

// CancelAll stops every job and returns how many were running.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	jobs := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.Unlock()
	for _, j := range jobs {
		j.cancel()
	}
	return len(jobs)
}

// List returns snapshots of running jobs, oldest first.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.jobs))
	for _, j := range r.jobs {
		snap := j.Snapshot
		snap.Targets = append([]string(nil), j.Targets...)
		out = append(out, snap)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// Close cancels all jobs and waits for their loops to drain.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	jobs := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.Unlock()
	for _, j := range jobs {
		j.cancel()
	}
	r.wg.Wait()
}
