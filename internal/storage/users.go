// Package storage persists user profiles and finished applications in
// PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// UserProfile is one row of the users table.
type UserProfile struct {
	UserID            int64        `db:"user_id"`
	ChatID            int64        `db:"chat_id"`
	Username          string       `db:"username"`
	FirstName         string       `db:"first_name"`
	LastName          string       `db:"last_name"`
	Category          string       `db:"category"`
	CategoryName      string       `db:"category_name"`
	QuestionnaireDone bool         `db:"questionnaire_done"`
	QuestionnaireAt   sql.NullTime `db:"questionnaire_at"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
}

// Users is the profile repository.
type Users struct {
	db *sqlx.DB
}

// NewUsers constructs the repository.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// UpdateProfile upserts the identity fields seen on every update.
func (u *Users) UpdateProfile(ctx context.Context, userID, chatID int64, username, firstName, lastName string) error {
	const query = `
		INSERT INTO users (user_id, chat_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = now()`
	if _, err := u.db.ExecContext(ctx, query, userID, chatID, username, firstName, lastName); err != nil {
		return fmt.Errorf("upsert profile %d: %w", userID, err)
	}
	return nil
}

// Get returns the profile, or nil when the user is unknown.
func (u *Users) Get(ctx context.Context, userID int64) (*UserProfile, error) {
	var profile UserProfile
	err := u.db.GetContext(ctx, &profile, `SELECT * FROM users WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %d: %w", userID, err)
	}
	return &profile, nil
}

// SetCategory assigns (or overwrites) the applicant category.
func (u *Users) SetCategory(ctx context.Context, userID int64, category, categoryName string) error {
	const query = `
		UPDATE users SET category = $2, category_name = $3, updated_at = now()
		WHERE user_id = $1`
	res, err := u.db.ExecContext(ctx, query, userID, category, categoryName)
	if err != nil {
		return fmt.Errorf("set category %d: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set category %d: unknown user", userID)
	}
	return nil
}

// CompleteQuestionnaire marks the profile after a finished dialog.
func (u *Users) CompleteQuestionnaire(ctx context.Context, userID int64, category, categoryName string, completedAt time.Time) error {
	const query = `
		UPDATE users SET
			category = $2,
			category_name = $3,
			questionnaire_done = TRUE,
			questionnaire_at = $4,
			updated_at = now()
		WHERE user_id = $1`
	if _, err := u.db.ExecContext(ctx, query, userID, category, categoryName, completedAt); err != nil {
		return fmt.Errorf("complete questionnaire %d: %w", userID, err)
	}
	return nil
}
