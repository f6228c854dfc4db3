// Package catalog loads the questionnaire definitions from a YAML file
// and serves them per applicant category, hot-reloading on file change.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cleanchistwood/cleanbot/core/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Kind tells the conversation engine how to collect an answer.
type Kind string

const (
	KindText     Kind = "text"
	KindOptions  Kind = "options"
	KindCalendar Kind = "calendar"
)

// Question is one questionnaire step. Label is the short column title
// used in exports, Prompt is the full text shown to the applicant.
type Question struct {
	ID       int      `yaml:"id"`
	Label    string   `yaml:"label"`
	Prompt   string   `yaml:"prompt"`
	Kind     Kind     `yaml:"kind"`
	Options  []string `yaml:"options,omitempty"`
	Required bool     `yaml:"required"`
}

// Catalog serves questions per category from a YAML file. The file is
// created with defaults when absent and watched for changes; an invalid
// rewrite keeps the last good content.
type Catalog struct {
	mu         sync.RWMutex
	path       string
	categories map[string][]Question

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open loads (or bootstraps) the questions file and starts the watcher.
func Open(ctx context.Context, path string) (*Catalog, error) {
	c := &Catalog{path: path, done: make(chan struct{})}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefaults(path); err != nil {
			return nil, fmt.Errorf("write default questions: %w", err)
		}
		logger.Info(ctx, "catalog", "defaults.written", slog.String("path", path))
	}
	if err := c.reload(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start questions watcher: %w", err)
	}
	// Watch the directory: editors replace the file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch questions dir: %w", err)
	}
	c.watcher = watcher
	go c.watch(ctx)
	return c, nil
}

func (c *Catalog) watch(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(c.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := c.reload(ctx); err != nil {
				logger.Warn(ctx, "catalog", "reload.failed",
					slog.String("path", c.path),
					slog.Any("error", err),
				)
				continue
			}
			logger.Info(ctx, "catalog", "reload.complete", slog.String("path", c.path))
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn(ctx, "catalog", "watcher.error", slog.Any("error", err))
		}
	}
}

// reload parses the file and swaps the category map on success only.
func (c *Catalog) reload(ctx context.Context) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read questions: %w", err)
	}
	parsed, err := parse(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.categories = parsed
	c.mu.Unlock()
	return nil
}

func parse(data []byte) (map[string][]Question, error) {
	var parsed map[string][]Question
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("parse questions: no categories defined")
	}
	for key, questions := range parsed {
		if len(questions) == 0 {
			return nil, fmt.Errorf("parse questions: category %q is empty", key)
		}
		for _, q := range questions {
			if q.Kind == KindOptions && len(q.Options) == 0 {
				return nil, fmt.Errorf("parse questions: %s/%d has no options", key, q.ID)
			}
		}
	}
	return parsed, nil
}

// Questions returns the short-label question list for a category.
func (c *Catalog) Questions(category string) []Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	questions := c.categories[category]
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// FullQuestions returns the question list with the display prompt
// substituted for the short label.
func (c *Catalog) FullQuestions(category string) []Question {
	out := c.Questions(category)
	for i := range out {
		if out[i].Prompt != "" {
			out[i].Label = out[i].Prompt
		}
	}
	return out
}

// Close stops the file watcher.
func (c *Catalog) Close() error {
	close(c.done)
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

func writeDefaults(path string) error {
	data, err := yaml.Marshal(defaultQuestions)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
