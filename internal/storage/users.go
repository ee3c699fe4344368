package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chrisminnick/starboard2/internal/models"
)

const userColumns = `id, email, password_hash, name, plan, subscription_status,
	trial_start_date, trial_end_date, default_template, auto_save_interval, editor_theme,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name,
		&u.Subscription.Plan, &u.Subscription.Status,
		&u.Subscription.TrialStartDate, &u.Subscription.TrialEndDate,
		&u.Preferences.DefaultTemplate, &u.Preferences.AutoSaveInterval, &u.Preferences.EditorTheme,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts user with a fresh id. The email is stored lower-cased.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.ID = uuid.NewString()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	query := `INSERT INTO users (id, email, password_hash, name, plan, subscription_status,
			      trial_start_date, trial_end_date, default_template, auto_save_interval, editor_theme,
			      created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.Subscription.Plan, user.Subscription.Status,
		user.Subscription.TrialStartDate, user.Subscription.TrialEndDate,
		user.Preferences.DefaultTemplate, user.Preferences.AutoSaveInterval, user.Preferences.EditorTheme,
		user.CreatedAt, user.UpdatedAt)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUser returns the user with the given id.
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdatePreferences overwrites the user's preferences.
func (s *Storage) UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) error {
	const op = "storage.UpdatePreferences"
	if err := ctxDone(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !validID(userID) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users
		 SET default_template = $1, auto_save_interval = $2, editor_theme = $3, updated_at = now()
		 WHERE id = $4`,
		prefs.DefaultTemplate, prefs.AutoSaveInterval, prefs.EditorTheme, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// FindTrialsEndingBetween returns trial users whose trial ends in (from, to]
// and who have not been reminded yet.
func (s *Storage) FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]models.TrialReminder, error) {
	const op = "storage.FindTrialsEndingBetween"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, email, name, trial_end_date
		 FROM users
		 WHERE subscription_status = 'trial'
		   AND trial_end_date > $1
		   AND trial_end_date <= $2
		   AND trial_reminder_sent_at IS NULL
		 ORDER BY trial_end_date`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.TrialReminder
	for rows.Next() {
		var r models.TrialReminder
		if err := rows.Scan(&r.UserID, &r.Email, &r.Name, &r.TrialEndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkTrialReminded records that the trial reminder for userID went out.
func (s *Storage) MarkTrialReminded(ctx context.Context, userID string, at time.Time) error {
	const op = "storage.MarkTrialReminded"
	if !validID(userID) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET trial_reminder_sent_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
