// Package reminders notifies admins one day ahead of scheduled
// internships.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleanchistwood/cleanbot/core/logger"
	"github.com/cleanchistwood/cleanbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// Source lists candidates whose internship falls on a given day.
type Source interface {
	InternshipsOn(ctx context.Context, day time.Time) ([]storage.InternshipRow, error)
}

// Outbox delivers the reminder messages.
type Outbox interface {
	Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
}

// Sweeper runs the daily reminder check.
type Sweeper struct {
	source Source
	outbox Outbox
	admins []int64
	now    func() time.Time
}

// New constructs a Sweeper.
func New(source Source, outbox Outbox, admins []int64, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{source: source, outbox: outbox, admins: admins, now: now}
}

// Run finds tomorrow's internships and notifies every admin about each
// candidate. Per-row failures are logged and do not stop the sweep.
func (s *Sweeper) Run(ctx context.Context) error {
	tomorrow := s.now().AddDate(0, 0, 1)
	rows, err := s.source.InternshipsOn(ctx, tomorrow)
	if err != nil {
		logger.Error(ctx, "reminders", "sweep.query_failed", slog.Any("error", err))
		return err
	}
	if len(rows) == 0 {
		logger.Debug(ctx, "reminders", "sweep.empty",
			slog.String("status", "ok"),
		)
		return nil
	}

	for _, row := range rows {
		text := formatReminder(row)
		for _, adminID := range s.admins {
			if err := s.outbox.Send(ctx, adminID, text, nil); err != nil {
				logger.Warn(ctx, "reminders", "notify.failed",
					slog.Int64("chat_id", adminID),
					slog.Int64("user_id", row.UserID),
					slog.Any("error", err),
				)
			}
		}
	}
	logger.Info(ctx, "reminders", "sweep.complete", slog.Int("candidates", len(rows)))
	return nil
}

func formatReminder(row storage.InternshipRow) string {
	return fmt.Sprintf(
		"🔔 Нагадування про стажування!\n\n"+
			"Кандидат: %s\n"+
			"Особисті дані: %s\n"+
			"Телефон: %s\n"+
			"Посада: %s\n"+
			"Дата стажування: %s\n\n"+
			"Не забудьте підготуватися!",
		row.Candidate(),
		orUnknown(row.Personal),
		orUnknown(row.Phone),
		row.CategoryName,
		row.InternshipDate.Format("02.01.2006"),
	)
}

func orUnknown(v string) string {
	if v == "" {
		return "не вказано"
	}
	return v
}
