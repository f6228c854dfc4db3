package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cleanchistwood/cleanbot/internal/directory"

	tele "gopkg.in/telebot.v4"
)

type fakeGroups struct {
	groups     []directory.Group
	refreshErr error
	refreshes  int
}

func (f *fakeGroups) Groups() []directory.Group { return f.groups }

func (f *fakeGroups) Refresh(ctx context.Context) (int, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return 0, f.refreshErr
	}
	return len(f.groups), nil
}

type fakeLauncher struct {
	launched []string
	err      error
}

func (f *fakeLauncher) Schedule(message, intervalKey string, end time.Time, targets []directory.Group) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id := "broadcast_123"
	f.launched = append(f.launched, id)
	return id, nil
}

type fakeOutbox struct {
	texts []string
}

func (f *fakeOutbox) Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	f.texts = append(f.texts, text)
	return nil
}

var testNow = func() time.Time { return time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC) }

func newTestWizard(groups *fakeGroups) (*Wizard, *fakeOutbox, *fakeLauncher) {
	outbox := &fakeOutbox{}
	launcher := &fakeLauncher{}
	w := New(Options{
		Groups:   groups,
		Launcher: launcher,
		Outbox:   outbox,
		Now:      testNow,
		Location: time.UTC,
	})
	return w, outbox, launcher
}

func twoGroups() *fakeGroups {
	return &fakeGroups{groups: []directory.Group{
		{ID: 1, Name: "Клінери"},
		{ID: 2, Name: "Водії"},
	}}
}

func TestStartEagerRefresh(t *testing.T) {
	groups := twoGroups()
	w, outbox, _ := newTestWizard(groups)

	if err := w.Start(context.Background(), 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if groups.refreshes != 1 {
		t.Fatalf("expected eager refresh")
	}
	if !w.InProgress(1) {
		t.Fatalf("session must be open")
	}
	last := outbox.texts[len(outbox.texts)-1]
	if last != "✅ Знайдено 2 груп. Введіть повідомлення для розсилки:" {
		t.Fatalf("unexpected prompt: %q", last)
	}
}

func TestStartRefreshFailureKeepsWizard(t *testing.T) {
	groups := &fakeGroups{refreshErr: errors.New("session down")}
	w, outbox, _ := newTestWizard(groups)

	if err := w.Start(context.Background(), 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !w.InProgress(1) {
		t.Fatalf("refresh failure must only change the prompt")
	}
	last := outbox.texts[len(outbox.texts)-1]
	if !strings.HasPrefix(last, "❌ Не вдалося отримати список груп.") {
		t.Fatalf("unexpected prompt: %q", last)
	}
}

func TestSelectAllToggles(t *testing.T) {
	w, _, _ := newTestWizard(twoGroups())
	ctx := context.Background()
	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if handled, err := w.HandleText(ctx, 1, "текст розсилки"); !handled || err != nil {
		t.Fatalf("message step: %v %v", handled, err)
	}

	v := w.SelectAll(ctx, 1)
	if v.Markup == nil {
		t.Fatalf("expected re-rendered markup")
	}
	if got := buttonText(v.Markup, 0, 0); got != "✅ Всі групи" {
		t.Fatalf("expected all-selected header, got %q", got)
	}
	// Second tap clears everything.
	v = w.SelectAll(ctx, 1)
	if got := buttonText(v.Markup, 0, 0); got != "☑️ Вибрати всі групи" {
		t.Fatalf("expected cleared header, got %q", got)
	}
	if w.GroupsDone(ctx, 1).Notice != "❌ Оберіть хоча б одну групу!" {
		t.Fatalf("done with empty selection must be refused")
	}
}

func TestToggleUnknownGroup(t *testing.T) {
	w, _, _ := newTestWizard(twoGroups())
	ctx := context.Background()
	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.HandleText(ctx, 1, "текст"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if v := w.Toggle(ctx, 1, 999); v.Notice != "❌ Група не знайдена!" {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestFullFlowLaunchesBroadcast(t *testing.T) {
	w, _, launcher := newTestWizard(twoGroups())
	ctx := context.Background()

	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.HandleText(ctx, 1, "Акція!"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if v := w.Toggle(ctx, 1, 1); v.Notice != "✅ Група оновлена" {
		t.Fatalf("toggle: %+v", v)
	}
	if v := w.GroupsDone(ctx, 1); !strings.Contains(v.Text, "обрано груп: 1") {
		t.Fatalf("done: %+v", v)
	}
	if v := w.Date(ctx, 1, "2026-06-15"); !strings.Contains(v.Text, "2026-06-15") {
		t.Fatalf("date: %+v", v)
	}
	if v := w.Time(ctx, 1, "18:30"); !strings.Contains(v.Text, "2026-06-15 18:30") {
		t.Fatalf("time: %+v", v)
	}
	v := w.Interval(ctx, 1, "30m")
	if !v.Done {
		t.Fatalf("interval: %+v", v)
	}
	if !strings.Contains(v.Text, "✅ Розсилка запущена!") ||
		!strings.Contains(v.Text, "ID: broadcast_123") ||
		!strings.Contains(v.Text, "Інтервал: 30 хв") ||
		!strings.Contains(v.Text, "Клінери") {
		t.Fatalf("unexpected success text: %q", v.Text)
	}
	if len(launcher.launched) != 1 {
		t.Fatalf("expected one launch")
	}
	if w.InProgress(1) {
		t.Fatalf("wizard must close after launch")
	}
}

func TestIntervalRejectsPastInstant(t *testing.T) {
	w, _, launcher := newTestWizard(twoGroups())
	ctx := context.Background()

	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.HandleText(ctx, 1, "текст"); err != nil {
		t.Fatalf("text: %v", err)
	}
	w.Toggle(ctx, 1, 1)
	w.GroupsDone(ctx, 1)
	w.Date(ctx, 1, "2026-06-01")
	w.Time(ctx, 1, "08:00")

	v := w.Interval(ctx, 1, "1h")
	if v.Notice != "❌ Дата повинна бути у майбутньому!" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if len(launcher.launched) != 0 {
		t.Fatalf("past end instant must not launch")
	}
	if !w.InProgress(1) {
		t.Fatalf("wizard must stay open for a new pick")
	}
}

func TestIntervalLauncherFailure(t *testing.T) {
	w, _, launcher := newTestWizard(twoGroups())
	launcher.err = errors.New("registry closed")
	ctx := context.Background()

	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.HandleText(ctx, 1, "текст"); err != nil {
		t.Fatalf("text: %v", err)
	}
	w.Toggle(ctx, 1, 1)
	w.GroupsDone(ctx, 1)
	w.Date(ctx, 1, "2026-06-15")
	w.Time(ctx, 1, "18:30")

	v := w.Interval(ctx, 1, "30m")
	if v.Notice != "❌ Помилка при запуску розсилки!" || v.Done {
		t.Fatalf("unexpected view: %+v", v)
	}
	if len(launcher.launched) != 0 {
		t.Fatalf("failed schedule must not be counted as launched")
	}
	if !w.InProgress(1) {
		t.Fatalf("wizard must stay open for a retry")
	}
}

func TestTimeRejectsMalformedPayload(t *testing.T) {
	w, _, _ := newTestWizard(twoGroups())
	ctx := context.Background()

	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := w.HandleText(ctx, 1, "текст"); err != nil {
		t.Fatalf("text: %v", err)
	}
	w.Toggle(ctx, 1, 1)
	w.GroupsDone(ctx, 1)
	w.Date(ctx, 1, "2026-06-15")

	if v := w.Time(ctx, 1, "25:99"); v.Notice != "❌ Сталася помилка!" {
		t.Fatalf("forged time payload accepted: %+v", v)
	}
	if v := w.Time(ctx, 1, "18:30"); !strings.Contains(v.Text, "18:30") {
		t.Fatalf("valid time rejected: %+v", v)
	}
}

func TestAbort(t *testing.T) {
	w, _, _ := newTestWizard(twoGroups())
	ctx := context.Background()
	if err := w.Start(ctx, 1, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Abort(1)
	if w.InProgress(1) {
		t.Fatalf("abort must drop the session")
	}
	if handled, _ := w.HandleText(ctx, 1, "текст"); handled {
		t.Fatalf("text after abort must not be handled")
	}
}

func TestIntervalLabel(t *testing.T) {
	cases := map[string]string{"1m": "1 хв", "12h": "12 год", "1d": "1 день"}
	for key, want := range cases {
		if got := IntervalLabel(key); got != want {
			t.Errorf("IntervalLabel(%q) = %q, want %q", key, got, want)
		}
	}
}

func buttonText(m *tele.ReplyMarkup, row, col int) string {
	return m.InlineKeyboard[row][col].Text
}
