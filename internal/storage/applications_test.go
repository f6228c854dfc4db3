package storage

import (
	"testing"

	"github.com/cleanchistwood/cleanbot/internal/questionnaire"
)

func TestAnswerByLabel(t *testing.T) {
	answers := []questionnaire.Answer{
		{Label: "Особисті дані", Value: "Олена, 25, Київ"},
		{Label: "Телефон", Value: "+380991234567"},
		{Label: "Дата стажування", Value: "15.06.2026"},
	}
	if got := answerByLabel(answers, "Телефон"); got != "+380991234567" {
		t.Fatalf("got %q", got)
	}
	if got := answerByLabel(answers, "телефон"); got != "+380991234567" {
		t.Fatalf("lookup must be case-insensitive, got %q", got)
	}
	if got := answerByLabel(answers, "Посада"); got != "" {
		t.Fatalf("missing label must yield empty, got %q", got)
	}
}

func TestInternshipRowCandidate(t *testing.T) {
	cases := []struct {
		row  InternshipRow
		want string
	}{
		{InternshipRow{FirstName: "Олена", LastName: "Петренко", Username: "olena"}, "Олена Петренко (@olena)"},
		{InternshipRow{FirstName: "Олена"}, "Олена"},
		{InternshipRow{Username: "olena"}, "@olena"},
		{InternshipRow{UserID: 42}, "ID 42"},
	}
	for _, tc := range cases {
		if got := tc.row.Candidate(); got != tc.want {
			t.Errorf("Candidate() = %q, want %q", got, tc.want)
		}
	}
}
