package calendar

import (
	"testing"
	"time"
)

func TestGridMondayFirst(t *testing.T) {
	// June 2026 starts on a Monday and has 30 days.
	rows := Grid(2026, time.June)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[0][0] != 1 {
		t.Fatalf("expected June 1st in the first cell, got %d", rows[0][0])
	}
	if rows[4][1] != 30 {
		t.Fatalf("expected June 30th on Tuesday of the last row, got %d", rows[4][1])
	}
	for _, cell := range rows[4][2:] {
		if cell != 0 {
			t.Fatalf("expected trailing padding after the 30th, got %d", cell)
		}
	}
}

func TestGridLeadingPadding(t *testing.T) {
	// March 2026 starts on a Sunday: six blanks before the 1st.
	rows := Grid(2026, time.March)
	for i, cell := range rows[0][:6] {
		if cell != 0 {
			t.Fatalf("expected blank at column %d, got %d", i, cell)
		}
	}
	if rows[0][6] != 1 {
		t.Fatalf("expected the 1st in the Sunday column, got %d", rows[0][6])
	}
}

func TestDayLabelPrecedence(t *testing.T) {
	if got := dayLabel(5, true, true); got != "✅ 5" {
		t.Fatalf("selected must win over today, got %q", got)
	}
	if got := dayLabel(5, false, true); got != "📅 5" {
		t.Fatalf("expected today marker, got %q", got)
	}
	if got := dayLabel(5, false, false); got != "5" {
		t.Fatalf("expected plain day, got %q", got)
	}
}

func TestSelectorConfirmRequiresSelection(t *testing.T) {
	now := func() time.Time { return time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC) }
	s := NewSelectorAt(now)

	s.Open(42)
	if _, ok := s.Confirm(42); ok {
		t.Fatalf("confirm without a tapped day must fail")
	}
	if !s.Active(42) {
		t.Fatalf("failed confirm must keep the picker open")
	}

	if _, err := s.Select(42, "2026-06-15"); err != nil {
		t.Fatalf("select: %v", err)
	}
	date, ok := s.Confirm(42)
	if !ok {
		t.Fatalf("confirm after selection must succeed")
	}
	if FormatDate(date) != "15.06.2026" {
		t.Fatalf("unexpected confirmed date: %s", FormatDate(date))
	}
	if s.Active(42) {
		t.Fatalf("confirm must close the picker")
	}
}

func TestSelectorCancel(t *testing.T) {
	s := NewSelector()
	s.Open(7)
	s.Cancel(7)
	if s.Active(7) {
		t.Fatalf("cancel must discard the selection")
	}
}

func TestSelectorRejectsBadPayload(t *testing.T) {
	s := NewSelector()
	s.Open(9)
	if _, err := s.Select(9, "not-a-date"); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestMonthPayloadRoundTrip(t *testing.T) {
	year, month, err := ParseMonthPayload(monthPayload(prevMonth(2026, time.January)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if year != 2025 || month != time.December {
		t.Fatalf("expected December 2025, got %v %d", month, year)
	}

	year, month, err = ParseMonthPayload(monthPayload(nextMonth(2025, time.December)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if year != 2026 || month != time.January {
		t.Fatalf("expected January 2026, got %v %d", month, year)
	}

	if _, _, err := ParseMonthPayload("2026_13"); err == nil {
		t.Fatalf("expected range error for month 13")
	}
}

func TestSelectorNavigateKeepsSelection(t *testing.T) {
	now := func() time.Time { return time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC) }
	s := NewSelectorAt(now)
	s.Open(3)
	if _, err := s.Select(3, "2026-06-20"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := s.Navigate(3, "2026_7"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	date, ok := s.Confirm(3)
	if !ok || FormatDate(date) != "20.06.2026" {
		t.Fatalf("navigation must not drop the tapped day, got %v %v", date, ok)
	}
}

func TestMonthTitle(t *testing.T) {
	if got := MonthTitle(2026, time.August); got != "Серпень 2026" {
		t.Fatalf("unexpected title: %q", got)
	}
}
