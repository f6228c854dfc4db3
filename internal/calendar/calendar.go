// Package calendar renders inline date-picker keyboards and tracks
// per-user date selections.
package calendar

import (
	"fmt"
	"time"

	"github.com/cleanchistwood/cleanbot/core/telegram/keyboard"
	"github.com/cleanchistwood/cleanbot/internal/state"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques handled by the questionnaire date picker.
const (
	UniqueSelect  = "calendar_select"
	UniqueConfirm = "calendar_confirm"
	UniqueCancel  = "calendar_cancel"
	UniqueNav     = "calendar_nav"
	UniqueIgnore  = "calendar_ignore"
)

// Callback uniques handled by the broadcast wizard date picker.
const (
	UniqueWizardDate  = "scheduler_date"
	UniqueWizardMonth = "scheduler_month"
	UniqueWizardNoop  = "ignore"
)

// ISODate is the payload layout for day buttons.
const ISODate = "2006-01-02"

var monthNames = [...]string{
	"Січень", "Лютий", "Березень", "Квітень", "Травень", "Червень",
	"Липень", "Серпень", "Вересень", "Жовтень", "Листопад", "Грудень",
}

var weekdayHeader = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Нд"}

// MonthTitle returns the Ukrainian caption for a month, e.g. "Січень 2026".
func MonthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// FormatDate renders a date the way it is shown to users: dd.mm.yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// Grid lays out the days of a month into Monday-first rows of seven.
// A zero cell is a padding blank before the first or after the last day.
func Grid(year int, month time.Month) [][]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	offset := (int(first.Weekday()) + 6) % 7

	var rows [][]int
	row := make([]int, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, 0)
	}
	for day := 1; day <= daysInMonth; day++ {
		row = append(row, day)
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]int, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, 0)
		}
		rows = append(rows, row)
	}
	return rows
}

// dayLabel marks a day cell. A selected day wins over today.
func dayLabel(day int, isSelected, isToday bool) string {
	switch {
	case isSelected:
		return fmt.Sprintf("✅ %d", day)
	case isToday:
		return fmt.Sprintf("📅 %d", day)
	default:
		return fmt.Sprintf("%d", day)
	}
}

// Selection is the per-user picker state: the month being browsed and the
// day chosen so far, if any.
type Selection struct {
	Year     int
	Month    time.Month
	Selected time.Time
	HasDate  bool
}

// Selector keeps per-user picker state and renders the questionnaire
// variant of the calendar keyboard.
type Selector struct {
	store *state.Store[Selection]
	now   func() time.Time
}

// NewSelector constructs a Selector using the wall clock.
func NewSelector() *Selector {
	return &Selector{store: state.New[Selection](), now: time.Now}
}

// NewSelectorAt constructs a Selector with an injected clock.
func NewSelectorAt(now func() time.Time) *Selector {
	return &Selector{store: state.New[Selection](), now: now}
}

// Open starts a fresh selection on the current month and returns its markup.
func (s *Selector) Open(userID int64) *tele.ReplyMarkup {
	today := s.now()
	sel := &Selection{Year: today.Year(), Month: today.Month()}
	s.store.Set(userID, sel)
	return s.markup(sel)
}

// Select records the tapped day and returns the re-rendered markup.
// Unknown users get a fresh selection on the tapped day's month.
func (s *Selector) Select(userID int64, isoDate string) (*tele.ReplyMarkup, error) {
	day, err := time.Parse(ISODate, isoDate)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar payload %q: %w", isoDate, err)
	}
	var out *tele.ReplyMarkup
	s.store.Update(userID, func(cur *Selection) *Selection {
		if cur == nil {
			cur = &Selection{}
		}
		cur.Year = day.Year()
		cur.Month = day.Month()
		cur.Selected = day
		cur.HasDate = true
		out = s.markup(cur)
		return cur
	})
	return out, nil
}

// Confirm finalizes the selection. It returns ok=false when no day was
// tapped yet; the selection stays active so the user can pick one.
func (s *Selector) Confirm(userID int64) (time.Time, bool) {
	sel := s.store.Get(userID)
	if sel == nil || !sel.HasDate {
		return time.Time{}, false
	}
	s.store.Delete(userID)
	return sel.Selected, true
}

// Navigate switches the browsed month, keeping any tapped day.
func (s *Selector) Navigate(userID int64, payload string) (*tele.ReplyMarkup, error) {
	year, month, err := ParseMonthPayload(payload)
	if err != nil {
		return nil, err
	}
	var out *tele.ReplyMarkup
	s.store.Update(userID, func(cur *Selection) *Selection {
		if cur == nil {
			cur = &Selection{}
		}
		cur.Year = year
		cur.Month = month
		out = s.markup(cur)
		return cur
	})
	return out, nil
}

// Cancel discards the user's selection.
func (s *Selector) Cancel(userID int64) {
	s.store.Delete(userID)
}

// Active reports whether the user has an open picker.
func (s *Selector) Active(userID int64) bool {
	return s.store.Has(userID)
}

func (s *Selector) markup(sel *Selection) *tele.ReplyMarkup {
	today := s.now()
	rows := [][]keyboard.InlineBtn{
		{
			{Text: "←", Unique: UniqueNav, Data: monthPayload(prevMonth(sel.Year, sel.Month))},
			{Text: MonthTitle(sel.Year, sel.Month), Unique: UniqueIgnore, Data: "-"},
			{Text: "→", Unique: UniqueNav, Data: monthPayload(nextMonth(sel.Year, sel.Month))},
		},
	}

	header := make([]keyboard.InlineBtn, 0, 7)
	for _, wd := range weekdayHeader {
		header = append(header, keyboard.InlineBtn{Text: wd, Unique: UniqueIgnore, Data: "-"})
	}
	rows = append(rows, header)

	for _, week := range Grid(sel.Year, sel.Month) {
		row := make([]keyboard.InlineBtn, 0, 7)
		for _, day := range week {
			if day == 0 {
				row = append(row, keyboard.InlineBtn{Text: " ", Unique: UniqueIgnore, Data: "-"})
				continue
			}
			date := time.Date(sel.Year, sel.Month, day, 0, 0, 0, 0, time.UTC)
			isSelected := sel.HasDate && sameDay(date, sel.Selected)
			isToday := sel.Year == today.Year() && sel.Month == today.Month() && day == today.Day()
			row = append(row, keyboard.InlineBtn{
				Text:   dayLabel(day, isSelected, isToday),
				Unique: UniqueSelect,
				Data:   date.Format(ISODate),
			})
		}
		rows = append(rows, row)
	}

	rows = append(rows, []keyboard.InlineBtn{
		{Text: "✅ Підтвердити", Unique: UniqueConfirm, Data: "-"},
		{Text: "❌ Скасувати", Unique: UniqueCancel, Data: "-"},
	})
	return keyboard.InlineButtonsRows(rows...)
}

// WizardMarkup renders the broadcast wizard variant: an arrow navigation
// row and plain day cells, no confirm step.
func WizardMarkup(year int, month time.Month, today time.Time) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{
		{
			{Text: "←", Unique: UniqueWizardMonth, Data: monthPayload(prevMonth(year, month))},
			{Text: MonthTitle(year, month), Unique: UniqueWizardNoop, Data: "-"},
			{Text: "→", Unique: UniqueWizardMonth, Data: monthPayload(nextMonth(year, month))},
		},
	}

	header := make([]keyboard.InlineBtn, 0, 7)
	for _, wd := range weekdayHeader {
		header = append(header, keyboard.InlineBtn{Text: wd, Unique: UniqueWizardNoop, Data: "-"})
	}
	rows = append(rows, header)

	for _, week := range Grid(year, month) {
		row := make([]keyboard.InlineBtn, 0, 7)
		for _, day := range week {
			if day == 0 {
				row = append(row, keyboard.InlineBtn{Text: " ", Unique: UniqueWizardNoop, Data: "-"})
				continue
			}
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			label := fmt.Sprintf("%d", day)
			if year == today.Year() && month == today.Month() && day == today.Day() {
				label = fmt.Sprintf("📅 %d", day)
			}
			row = append(row, keyboard.InlineBtn{
				Text:   label,
				Unique: UniqueWizardDate,
				Data:   date.Format(ISODate),
			})
		}
		rows = append(rows, row)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// ParseMonthPayload decodes a "<year>_<month>" navigation payload.
func ParseMonthPayload(payload string) (int, time.Month, error) {
	var year, month int
	if _, err := fmt.Sscanf(payload, "%d_%d", &year, &month); err != nil {
		return 0, 0, fmt.Errorf("invalid month payload %q: %w", payload, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month payload %q: month out of range", payload)
	}
	return year, time.Month(month), nil
}

func monthPayload(year int, month time.Month) string {
	return fmt.Sprintf("%d_%d", year, int(month))
}

func prevMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return t.Year(), t.Month()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return t.Year(), t.Month()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
