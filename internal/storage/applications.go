package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cleanchistwood/cleanbot/internal/questionnaire"

	"github.com/jmoiron/sqlx"
)

const displayDate = "02.01.2006"

// Applications is the finished-questionnaire repository. It implements
// the questionnaire sink.
type Applications struct {
	db *sqlx.DB
}

// NewApplications constructs the repository.
func NewApplications(db *sqlx.DB) *Applications {
	return &Applications{db: db}
}

// SaveApplication stores one finished questionnaire. The ordered
// answers go to jsonb; the fields the reminder sweep needs are lifted
// into columns.
func (a *Applications) SaveApplication(ctx context.Context, app questionnaire.Application) error {
	answers, err := json.Marshal(app.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	personal := answerByLabel(app.Answers, "Особисті дані")
	phone := answerByLabel(app.Answers, "Телефон")
	var internship sql.NullTime
	if raw := answerByLabel(app.Answers, "Дата стажування"); raw != "" {
		if date, perr := time.Parse(displayDate, raw); perr == nil {
			internship = sql.NullTime{Time: date, Valid: true}
		}
	}

	const query = `
		INSERT INTO applications (
			user_id, chat_id, username, first_name, last_name,
			category, category_name, answers,
			personal, phone, internship_date, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = a.db.ExecContext(ctx, query,
		app.UserID, app.ChatID, app.Username, app.FirstName, app.LastName,
		app.Category, app.CategoryName, answers,
		personal, phone, internship, app.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application for %d: %w", app.UserID, err)
	}
	return nil
}

func answerByLabel(answers []questionnaire.Answer, label string) string {
	for _, a := range answers {
		if strings.EqualFold(a.Label, label) {
			return a.Value
		}
	}
	return ""
}

// InternshipRow is what the reminder sweep needs about one candidate.
type InternshipRow struct {
	UserID         int64     `db:"user_id"`
	Username       string    `db:"username"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	CategoryName   string    `db:"category_name"`
	Personal       string    `db:"personal"`
	Phone          string    `db:"phone"`
	InternshipDate time.Time `db:"internship_date"`
}

// Candidate renders a human-readable candidate reference.
func (r InternshipRow) Candidate() string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	switch {
	case name != "" && r.Username != "":
		return fmt.Sprintf("%s (@%s)", name, r.Username)
	case name != "":
		return name
	case r.Username != "":
		return "@" + r.Username
	default:
		return fmt.Sprintf("ID %d", r.UserID)
	}
}

// InternshipsOn lists applications whose internship date falls on the
// given day.
func (a *Applications) InternshipsOn(ctx context.Context, day time.Time) ([]InternshipRow, error) {
	const query = `
		SELECT user_id, username, first_name, last_name,
		       category_name, personal, phone, internship_date
		FROM applications
		WHERE internship_date = $1
		ORDER BY submitted_at`
	var rows []InternshipRow
	if err := a.db.SelectContext(ctx, &rows, query, day.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("internships on %s: %w", day.Format("2006-01-02"), err)
	}
	return rows, nil
}
