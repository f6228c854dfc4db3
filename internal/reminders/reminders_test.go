package reminders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cleanchistwood/cleanbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

type fakeSource struct {
	rows    []storage.InternshipRow
	err     error
	queried time.Time
}

func (f *fakeSource) InternshipsOn(ctx context.Context, day time.Time) ([]storage.InternshipRow, error) {
	f.queried = day
	return f.rows, f.err
}

type fakeOutbox struct {
	sent map[int64][]string
	err  error
}

func (f *fakeOutbox) Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	if f.sent == nil {
		f.sent = make(map[int64][]string)
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return f.err
}

var clock = func() time.Time { return time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC) }

func TestRunNotifiesEveryAdmin(t *testing.T) {
	source := &fakeSource{rows: []storage.InternshipRow{
		{
			UserID:         1,
			Username:       "olena",
			FirstName:      "Олена",
			CategoryName:   "Клінер",
			Personal:       "Олена, 25, Київ",
			Phone:          "+380991234567",
			InternshipDate: time.Date(2026, time.June, 11, 0, 0, 0, 0, time.UTC),
		},
	}}
	outbox := &fakeOutbox{}
	s := New(source, outbox, []int64{900, 901}, clock)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if source.queried.Day() != 11 {
		t.Fatalf("sweep must query tomorrow, got %v", source.queried)
	}
	for _, adminID := range []int64{900, 901} {
		texts := outbox.sent[adminID]
		if len(texts) != 1 {
			t.Fatalf("admin %d: expected one reminder, got %d", adminID, len(texts))
		}
		text := texts[0]
		for _, want := range []string{
			"🔔 Нагадування про стажування!",
			"Кандидат: Олена (@olena)",
			"Телефон: +380991234567",
			"Посада: Клінер",
			"Дата стажування: 11.06.2026",
		} {
			if !strings.Contains(text, want) {
				t.Fatalf("reminder missing %q:\n%s", want, text)
			}
		}
	}
}

func TestRunEmptyDay(t *testing.T) {
	outbox := &fakeOutbox{}
	s := New(&fakeSource{}, outbox, []int64{900}, clock)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outbox.sent) != 0 {
		t.Fatalf("no candidates means no messages")
	}
}

func TestRunQueryFailure(t *testing.T) {
	s := New(&fakeSource{err: errors.New("db down")}, &fakeOutbox{}, []int64{900}, clock)
	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("query failure must surface")
	}
}

func TestRunSendFailureContinues(t *testing.T) {
	source := &fakeSource{rows: []storage.InternshipRow{
		{UserID: 1, CategoryName: "Водій", InternshipDate: clock().AddDate(0, 0, 1)},
		{UserID: 2, CategoryName: "Водій", InternshipDate: clock().AddDate(0, 0, 1)},
	}}
	outbox := &fakeOutbox{err: errors.New("blocked")}
	s := New(source, outbox, []int64{900}, clock)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("send failures are best-effort: %v", err)
	}
	if len(outbox.sent[900]) != 2 {
		t.Fatalf("sweep must attempt every candidate, got %d", len(outbox.sent[900]))
	}
}

func TestFormatReminderFallbacks(t *testing.T) {
	text := formatReminder(storage.InternshipRow{
		UserID:         7,
		CategoryName:   "SMM",
		InternshipDate: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
	})
	if !strings.Contains(text, "Кандидат: ID 7") || !strings.Contains(text, "Телефон: не вказано") {
		t.Fatalf("unexpected fallbacks:\n%s", text)
	}
}
