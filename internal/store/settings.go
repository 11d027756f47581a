package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Settings holds a user's preferences. A row is created lazily with
// defaults the first time settings are read.
type Settings struct {
	UserID             int64  `json:"user_id"`
	DefaultLanguage    string `json:"default_language"`
	EmailNotifications bool   `json:"email_notifications"`
	Theme              string `json:"theme"`
}

// GetSettings returns the user's settings, creating the defaults row if
// none exists yet.
func (s *Store) GetSettings(ctx context.Context, userID int64) (*Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, default_language, email_notifications, theme
		FROM user_settings WHERE user_id = ?`, userID)

	var st Settings
	err := row.Scan(&st.UserID, &st.DefaultLanguage, &st.EmailNotifications, &st.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		st = Settings{
			UserID:             userID,
			DefaultLanguage:    "python",
			EmailNotifications: true,
			Theme:              "light",
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO user_settings (user_id, default_language, email_notifications, theme)
			VALUES (?, ?, ?, ?)`,
			st.UserID, st.DefaultLanguage, st.EmailNotifications, st.Theme); err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
		return &st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan settings: %w", err)
	}
	return &st, nil
}

// UpdateSettings upserts the user's settings.
func (s *Store) UpdateSettings(ctx context.Context, st *Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, default_language, email_notifications, theme)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			default_language = excluded.default_language,
			email_notifications = excluded.email_notifications,
			theme = excluded.theme`,
		st.UserID, st.DefaultLanguage, st.EmailNotifications, st.Theme)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}
