// Package directory maintains the catalog of reachable groups and
// channels and reconciles identifier drift between refreshes.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cleanchistwood/cleanbot/core/logger"
)

// Target addresses a single delivery destination.
type Target struct {
	ID       int64
	Username string
}

// Dialog is one entry from the session client's dialog list.
type Dialog struct {
	ID        int64
	Name      string
	Username  string
	IsChannel bool
	IsGroup   bool
}

// SessionClient is the transport boundary the directory depends on.
type SessionClient interface {
	Dialogs(ctx context.Context) ([]Dialog, error)
	SendMessage(ctx context.Context, target Target, text string) error
	Connected() bool
}

// Group is one entry of the available list.
type Group struct {
	ID        int64
	Name      string
	Username  string
	IsChannel bool
	IsGroup   bool
}

// IdentifierChange records one observed identifier migration of a group.
type IdentifierChange struct {
	Old        int64
	ResolvedAt time.Time
}

// GroupRecord is the per-name reconciliation record. History is an
// append-only log of previous identifiers; the current identifier is
// never present in it.
type GroupRecord struct {
	Name      string
	CurrentID int64
	Username  string
	IsChannel bool
	IsGroup   bool
	History   []IdentifierChange
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats summarizes directory health for the admin /groups command.
type Stats struct {
	TotalKnown  int
	Available   int
	WithHistory int
	LastRefresh time.Time
	Connected   bool
}

// Directory holds the available-group list and the name-keyed records.
type Directory struct {
	mu          sync.RWMutex
	client      SessionClient
	available   []Group
	records     map[string]*GroupRecord
	lastRefresh time.Time
	now         func() time.Time
}

// New constructs a Directory over the given session client.
func New(client SessionClient) *Directory {
	return &Directory{
		client:  client,
		records: make(map[string]*GroupRecord),
		now:     time.Now,
	}
}

// Refresh pulls the dialog list and replaces the available list
// wholesale, reconciling identifier drift into per-name records.
// It returns the number of available groups.
func (d *Directory) Refresh(ctx context.Context) (int, error) {
	dialogs, err := d.client.Dialogs(ctx)
	if err != nil {
		logger.Error(ctx, "directory", "refresh.failed", slog.Any("error", err))
		return 0, fmt.Errorf("list dialogs: %w", err)
	}

	now := d.now()
	next := make([]Group, 0, len(dialogs))
	for _, dlg := range dialogs {
		if !dlg.IsGroup && !dlg.IsChannel {
			continue
		}
		next = append(next, Group{
			ID:        dlg.ID,
			Name:      dlg.Name,
			Username:  dlg.Username,
			IsChannel: dlg.IsChannel,
			IsGroup:   dlg.IsGroup,
		})
	}

	d.mu.Lock()
	d.available = next
	for _, g := range next {
		d.reconcileLocked(g, now)
	}
	d.lastRefresh = now
	total := len(d.available)
	d.mu.Unlock()

	logger.Info(ctx, "directory", "refresh.complete",
		slog.Int("groups", total),
	)
	return total, nil
}

// reconcileLocked updates the record for one group under d.mu.
func (d *Directory) reconcileLocked(g Group, now time.Time) {
	rec, ok := d.records[g.Name]
	if !ok {
		d.records[g.Name] = &GroupRecord{
			Name:      g.Name,
			CurrentID: g.ID,
			Username:  g.Username,
			IsChannel: g.IsChannel,
			IsGroup:   g.IsGroup,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return
	}
	if rec.CurrentID != g.ID {
		if rec.CurrentID != 0 && !historyContains(rec.History, rec.CurrentID) {
			rec.History = append(rec.History, IdentifierChange{Old: rec.CurrentID, ResolvedAt: now})
		}
		rec.CurrentID = g.ID
		// The new current ID must not linger in history.
		rec.History = dropFromHistory(rec.History, g.ID)
	}
	rec.Username = g.Username
	rec.IsChannel = g.IsChannel
	rec.IsGroup = g.IsGroup
	rec.UpdatedAt = now
}

func historyContains(history []IdentifierChange, id int64) bool {
	for _, h := range history {
		if h.Old == id {
			return true
		}
	}
	return false
}

func dropFromHistory(history []IdentifierChange, id int64) []IdentifierChange {
	out := history[:0]
	for _, h := range history {
		if h.Old != id {
			out = append(out, h)
		}
	}
	return out
}

// ResolveByName finds a group by case-insensitive bidirectional
// substring match against the available list, in last-refresh order.
// When nothing matches and allowRefresh is set, it refreshes once and
// retries.
func (d *Directory) ResolveByName(ctx context.Context, name string, allowRefresh bool) (Group, bool) {
	if g, ok := d.matchName(name); ok {
		return g, true
	}
	if !allowRefresh {
		return Group{}, false
	}
	logger.Debug(ctx, "directory", "resolve.retry_refresh",
		slog.String("group", logger.SanitizeLimit(name, 64)),
	)
	if _, err := d.Refresh(ctx); err != nil {
		return Group{}, false
	}
	return d.matchName(name)
}

func (d *Directory) matchName(name string) (Group, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return Group{}, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.available {
		candidate := strings.ToLower(g.Name)
		if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
			return g, true
		}
	}
	return Group{}, false
}

// ResolveByID finds a group in the available list by identifier.
func (d *Directory) ResolveByID(id int64) (Group, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.available {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Groups returns a snapshot of the available list.
func (d *Directory) Groups() []Group {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Group, len(d.available))
	copy(out, d.available)
	return out
}

// Record returns a copy of the reconciliation record for a group name.
func (d *Directory) Record(name string) (GroupRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.records[name]
	if !ok {
		return GroupRecord{}, false
	}
	out := *rec
	out.History = append([]IdentifierChange(nil), rec.History...)
	return out, true
}

// Send resolves a group by name and delivers the message. A
// stale-reference failure triggers one self-healing refresh; the
// original error is still returned.
func (d *Directory) Send(ctx context.Context, name, message string) error {
	g, ok := d.ResolveByName(ctx, name, true)
	if !ok {
		return fmt.Errorf("group %q not found", name)
	}
	err := d.client.SendMessage(ctx, Target{ID: g.ID, Username: g.Username}, message)
	if err == nil {
		return nil
	}
	if isStaleReference(err) {
		logger.Warn(ctx, "directory", "send.stale_reference",
			slog.String("group", logger.SanitizeLimit(g.Name, 64)),
			slog.Any("error", err),
		)
		if _, rerr := d.Refresh(ctx); rerr != nil {
			logger.Error(ctx, "directory", "send.heal_refresh_failed", slog.Any("error", rerr))
		}
	}
	return fmt.Errorf("send to %q: %w", g.Name, err)
}

// isStaleReference recognizes failures caused by an outdated group
// identifier rather than by the message itself.
func isStaleReference(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "CHANNEL_INVALID") ||
		strings.Contains(msg, "Could not find the input entity") ||
		strings.Contains(msg, "chat not found")
}

// Stats reports directory health.
func (d *Directory) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	withHistory := 0
	for _, rec := range d.records {
		if len(rec.History) > 0 {
			withHistory++
		}
	}
	return Stats{
		TotalKnown:  len(d.records),
		Available:   len(d.available),
		WithHistory: withHistory,
		LastRefresh: d.lastRefresh,
		Connected:   d.client.Connected(),
	}
}
