package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Project groups a user's analyses. Archived projects keep their history
// but are flagged so clients can tuck them away.
type Project struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	IsArchived    bool      `json:"is_archived"`
	CreatedAt     time.Time `json:"created_at"`
	AnalysisCount int       `json:"analysis_count"`
}

// CreateProject inserts a project for the given user.
func (s *Store) CreateProject(ctx context.Context, p *Project) (*Project, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (user_id, name, description, language, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.Language, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read project id: %w", err)
	}

	out := *p
	out.ID = id
	out.CreatedAt = now
	return &out, nil
}

// GetProject fetches a project owned by userID.
func (s *Store) GetProject(ctx context.Context, userID, projectID int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.name, p.description, p.language, p.is_archived, p.created_at,
		       (SELECT COUNT(*) FROM analysis_history a WHERE a.project_id = p.id)
		FROM projects p WHERE p.id = ? AND p.user_id = ?`, projectID, userID)

	var p Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Language, &p.IsArchived, &p.CreatedAt, &p.AnalysisCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return &p, nil
}

// ListProjects returns the user's projects, newest first.
func (s *Store) ListProjects(ctx context.Context, userID int64) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.name, p.description, p.language, p.is_archived, p.created_at,
		       (SELECT COUNT(*) FROM analysis_history a WHERE a.project_id = p.id)
		FROM projects p WHERE p.user_id = ?
		ORDER BY p.created_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Language, &p.IsArchived, &p.CreatedAt, &p.AnalysisCount); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// SetProjectArchived flips the archived flag on a project owned by userID.
func (s *Store) SetProjectArchived(ctx context.Context, userID, projectID int64, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET is_archived = ? WHERE id = ? AND user_id = ?`,
		archived, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
