// Package wizard implements the admin's broadcast-scheduling dialog:
// message text, target groups, end date, end time, repeat interval.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cleanchistwood/cleanbot/core/logger"
	tghelpers "github.com/cleanchistwood/cleanbot/core/telegram/helpers"
	"github.com/cleanchistwood/cleanbot/core/telegram/keyboard"
	"github.com/cleanchistwood/cleanbot/internal/calendar"
	"github.com/cleanchistwood/cleanbot/internal/directory"
	"github.com/cleanchistwood/cleanbot/internal/state"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques owned by the wizard (the calendar ones live in the
// calendar package).
const (
	UniqueRefreshGroups = "scheduler_refresh_groups"
	UniqueSelectAll     = "scheduler_select_all"
	UniqueGroup         = "scheduler_group"
	UniqueGroupsDone    = "scheduler_groups_done"
	UniqueTime          = "scheduler_time"
	UniqueInterval      = "scheduler_interval"
)

// Step names the wizard's position in the dialog.
type Step string

const (
	StepMessage  Step = "waiting_for_message"
	StepGroups   Step = "selecting_groups"
	StepDate     Step = "waiting_for_date"
	StepTime     Step = "waiting_for_time"
	StepInterval Step = "waiting_for_interval"
)

// GroupSource is the directory boundary the wizard needs.
type GroupSource interface {
	Groups() []directory.Group
	Refresh(ctx context.Context) (int, error)
}

// Launcher starts the scheduled broadcast once the wizard completes.
type Launcher interface {
	Schedule(message, intervalKey string, end time.Time, targets []directory.Group) (string, error)
}

// Outbox sends standalone messages (steps that are not edits).
type Outbox interface {
	Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
}

// View is a render instruction for the handler: edit text and/or
// keyboard of the wizard message, answer the callback with a notice.
type View struct {
	Text   string
	Markup *tele.ReplyMarkup
	Notice string
	Done   bool
}

type session struct {
	Step     Step
	ChatID   int64
	Message  string
	Selected []directory.Group
	EndDate  string // ISO day
	EndTime  string // HH:MM
}

// Wizard drives the per-admin scheduling dialog.
type Wizard struct {
	groups   GroupSource
	launcher Launcher
	outbox   Outbox
	now      func() time.Time
	loc      *time.Location

	sessions *state.Store[session]
}

// Options configures a Wizard.
type Options struct {
	Groups   GroupSource
	Launcher Launcher
	Outbox   Outbox
	Now      func() time.Time
	Location *time.Location
}

// New constructs a Wizard.
func New(opts Options) *Wizard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Wizard{
		groups:   opts.Groups,
		launcher: opts.Launcher,
		outbox:   opts.Outbox,
		now:      opts.Now,
		loc:      opts.Location,
		sessions: state.New[session](),
	}
}

// InProgress reports whether the admin has an open wizard.
func (w *Wizard) InProgress(userID int64) bool {
	return w.sessions.Has(userID)
}

// Abort drops the wizard session (main menu navigation).
func (w *Wizard) Abort(userID int64) {
	w.sessions.Delete(userID)
}

// Start refreshes the group list eagerly and asks for the broadcast
// message. A failed refresh only changes the prompt wording.
func (w *Wizard) Start(ctx context.Context, userID, chatID int64) error {
	if err := w.outbox.Send(ctx, chatID, "🔄 Оновлюємо список груп...", nil); err != nil {
		return err
	}
	count, err := w.groups.Refresh(ctx)
	w.sessions.Set(userID, &session{Step: StepMessage, ChatID: chatID})

	if err != nil || count == 0 {
		if err != nil {
			logger.Warn(ctx, "wizard", "start.refresh_failed", slog.Any("error", err))
		}
		return w.outbox.Send(ctx, chatID,
			"❌ Не вдалося отримати список груп. Перевірте підключення сесії.\n\n"+
				"Введіть повідомлення для розсилки, а групи оберемо пізніше:", nil)
	}
	return w.outbox.Send(ctx, chatID,
		fmt.Sprintf("✅ Знайдено %d груп. Введіть повідомлення для розсилки:", count), nil)
}

// HandleText stores the broadcast message and opens group selection.
// It returns false when no wizard is waiting for text.
func (w *Wizard) HandleText(ctx context.Context, userID int64, text string) (bool, error) {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepMessage || text == "" {
		return false, nil
	}
	sess.Step = StepGroups
	sess.Message = text
	w.sessions.Set(userID, sess)

	return true, w.outbox.Send(ctx, sess.ChatID,
		"✅ Повідомлення збережено! Тепер оберіть групи для розсилки:",
		w.groupsMarkup(sess.Selected))
}

// Toggle flips one group in the selection.
func (w *Wizard) Toggle(ctx context.Context, userID, groupID int64) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepGroups {
		return View{}
	}
	group, ok := findGroup(w.groups.Groups(), groupID)
	if !ok {
		return View{Notice: "❌ Група не знайдена!"}
	}
	if idx := indexOf(sess.Selected, groupID); idx >= 0 {
		sess.Selected = append(sess.Selected[:idx], sess.Selected[idx+1:]...)
	} else {
		sess.Selected = append(sess.Selected, group)
	}
	w.sessions.Set(userID, sess)
	return View{Markup: w.groupsMarkup(sess.Selected), Notice: "✅ Група оновлена"}
}

// SelectAll selects every available group, or clears the selection
// when everything is already selected.
func (w *Wizard) SelectAll(ctx context.Context, userID int64) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepGroups {
		return View{}
	}
	available := w.groups.Groups()
	if len(sess.Selected) == len(available) && len(available) > 0 {
		sess.Selected = nil
	} else {
		sess.Selected = append([]directory.Group(nil), available...)
	}
	w.sessions.Set(userID, sess)
	return View{Markup: w.groupsMarkup(sess.Selected)}
}

// RefreshGroups re-pulls the directory and re-renders the selection.
func (w *Wizard) RefreshGroups(ctx context.Context, userID int64) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepGroups {
		return View{}
	}
	if _, err := w.groups.Refresh(ctx); err != nil {
		logger.Warn(ctx, "wizard", "refresh.failed", slog.Any("error", err))
	}
	return View{Markup: w.groupsMarkup(sess.Selected), Notice: "🔄 Оновлюємо список груп..."}
}

// GroupsDone moves on to the end-date calendar; at least one target
// must be selected.
func (w *Wizard) GroupsDone(ctx context.Context, userID int64) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepGroups {
		return View{}
	}
	if len(sess.Selected) == 0 {
		return View{Notice: "❌ Оберіть хоча б одну групу!"}
	}
	sess.Step = StepDate
	w.sessions.Set(userID, sess)

	now := w.now().In(w.loc)
	return View{
		Text:   fmt.Sprintf("📅 Оберіть дату закінчення розсилки (обрано груп: %d):", len(sess.Selected)),
		Markup: calendar.WizardMarkup(now.Year(), now.Month(), now),
	}
}

// Month flips the calendar month while picking the end date.
func (w *Wizard) Month(ctx context.Context, userID int64, payload string) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepDate {
		return View{}
	}
	year, month, err := calendar.ParseMonthPayload(payload)
	if err != nil {
		return View{Notice: "❌ Сталася помилка!"}
	}
	return View{Markup: calendar.WizardMarkup(year, month, w.now().In(w.loc))}
}

// Date stores the end date and shows the half-hour time grid.
func (w *Wizard) Date(ctx context.Context, userID int64, isoDate string) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepDate {
		return View{}
	}
	if _, err := time.Parse(calendar.ISODate, isoDate); err != nil {
		return View{Notice: "❌ Сталася помилка!"}
	}
	sess.Step = StepTime
	sess.EndDate = isoDate
	w.sessions.Set(userID, sess)
	return View{
		Text:   fmt.Sprintf("Оберіть час закінчення розсилки (%s):", isoDate),
		Markup: timeMarkup(),
	}
}

// Time stores the end time and shows the interval menu.
func (w *Wizard) Time(ctx context.Context, userID int64, hhmm string) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepTime {
		return View{}
	}
	if _, _, ok := tghelpers.ParseClock(hhmm); !ok {
		return View{Notice: "❌ Сталася помилка!"}
	}
	sess.Step = StepInterval
	sess.EndTime = hhmm
	w.sessions.Set(userID, sess)
	return View{
		Text:   fmt.Sprintf("Оберіть інтервал розсилки (%s %s):", sess.EndDate, hhmm),
		Markup: intervalMarkup(),
	}
}

// Interval validates the end instant, launches the broadcast job and
// closes the wizard.
func (w *Wizard) Interval(ctx context.Context, userID int64, intervalKey string) View {
	sess := w.sessions.Get(userID)
	if sess == nil || sess.Step != StepInterval {
		return View{}
	}
	end, err := time.ParseInLocation(calendar.ISODate+" 15:04", sess.EndDate+" "+sess.EndTime, w.loc)
	if err != nil {
		return View{Notice: "❌ Сталася помилка!"}
	}
	if !end.After(w.now()) {
		return View{Notice: "❌ Дата повинна бути у майбутньому!"}
	}

	jobID, err := w.launcher.Schedule(sess.Message, intervalKey, end, sess.Selected)
	if err != nil {
		logger.Error(ctx, "wizard", "launch.failed",
			slog.String("interval", intervalKey),
			slog.Any("error", err),
		)
		return View{Notice: "❌ Помилка при запуску розсилки!"}
	}
	w.sessions.Delete(userID)

	names := make([]string, 0, len(sess.Selected))
	for _, g := range sess.Selected {
		names = append(names, g.Name)
	}
	logger.Info(ctx, "wizard", "launch.complete",
		slog.String("broadcast", jobID),
		slog.Int("groups", len(sess.Selected)),
	)
	return View{
		Text: fmt.Sprintf("✅ Розсилка запущена!\n\nID: %s\nІнтервал: %s\nЗавершення: %s %s\nГрупи: %d\n%s",
			jobID, IntervalLabel(intervalKey), sess.EndDate, sess.EndTime,
			len(sess.Selected), strings.Join(names, ", ")),
		Done: true,
	}
}

// IntervalLabel renders an interval key for display: "30m" → "30 хв".
func IntervalLabel(key string) string {
	r := strings.NewReplacer("m", " хв", "h", " год", "d", " день")
	return r.Replace(key)
}

// groupsMarkup renders the group-selection keyboard: select-all on
// top, two group toggles per row, done when anything is selected.
func (w *Wizard) groupsMarkup(selected []directory.Group) *tele.ReplyMarkup {
	available := w.groups.Groups()
	var rows [][]keyboard.InlineBtn

	if len(available) == 0 {
		rows = append(rows,
			[]keyboard.InlineBtn{{Text: "🔄 Групи завантажуються...", Unique: calendar.UniqueWizardNoop, Data: "-"}},
			[]keyboard.InlineBtn{{Text: "🔄 Оновити список груп", Unique: UniqueRefreshGroups, Data: "-"}},
			[]keyboard.InlineBtn{{Text: "🏠 Головне меню", Unique: "main_menu", Data: "-"}},
		)
		return keyboard.InlineButtonsRows(rows...)
	}

	allSelected := len(selected) == len(available)
	selectAllText := "☑️ Вибрати всі групи"
	if allSelected {
		selectAllText = "✅ Всі групи"
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: selectAllText, Unique: UniqueSelectAll, Data: "-"}})

	var groupBtns []keyboard.InlineBtn
	for _, g := range available {
		mark := "☑️"
		if indexOf(selected, g.ID) >= 0 {
			mark = "✅"
		}
		groupBtns = append(groupBtns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s %s", mark, g.Name),
			Unique: UniqueGroup,
			Data:   fmt.Sprintf("%d", g.ID),
		})
	}
	for i := 0; i < len(groupBtns); i += 2 {
		end := min(i+2, len(groupBtns))
		rows = append(rows, groupBtns[i:end])
	}

	if len(selected) > 0 {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("🚀 Розпочати розсилку (%d груп)", len(selected)),
			Unique: UniqueGroupsDone,
			Data:   "-",
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "🏠 Головне меню", Unique: "main_menu", Data: "-"}})
	return keyboard.InlineButtonsRows(rows...)
}

// timeMarkup builds the 00:00–23:30 half-hour grid, four per row.
func timeMarkup() *tele.ReplyMarkup {
	var buttons []keyboard.InlineBtn
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute += 30 {
			label := fmt.Sprintf("%02d:%02d", hour, minute)
			buttons = append(buttons, keyboard.InlineBtn{Text: label, Unique: UniqueTime, Data: label})
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 4)
}

func intervalMarkup() *tele.ReplyMarkup {
	row := func(keys ...string) []keyboard.InlineBtn {
		btns := make([]keyboard.InlineBtn, 0, len(keys))
		for _, key := range keys {
			btns = append(btns, keyboard.InlineBtn{Text: IntervalLabel(key), Unique: UniqueInterval, Data: key})
		}
		return btns
	}
	return keyboard.InlineButtonsRows(
		row("1m", "15m", "30m"),
		row("1h", "2h", "3h"),
		row("4h", "6h", "12h"),
		row("1d"),
	)
}

func findGroup(groups []directory.Group, id int64) (directory.Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return directory.Group{}, false
}

func indexOf(groups []directory.Group, id int64) int {
	for i, g := range groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}
