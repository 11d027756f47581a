package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/logicguard/logicguard/internal/analysis"
)

// Analysis is a persisted analysis_history row. The structured result
// fields are stored as JSON text columns, mirroring the result contract.
type Analysis struct {
	ID            int64                 `json:"id"`
	UserID        int64                 `json:"user_id"`
	ProjectID     int64                 `json:"project_id,omitempty"`
	CodeSnippet   string                `json:"code_snippet"`
	Language      string                `json:"language"`
	Score         int                   `json:"score"`
	Summary       string                `json:"summary"`
	Bugs          []analysis.Finding    `json:"bugs"`
	Optimizations []analysis.Suggestion `json:"optimizations"`
	Positives     []string              `json:"positives"`
	Metrics       analysis.Metrics      `json:"metrics"`
	CreatedAt     time.Time             `json:"created_at"`
}

// RecordAnalysis persists a completed analysis and returns its row ID.
// It implements analysis.Recorder.
func (s *Store) RecordAnalysis(ctx context.Context, rec *analysis.Record) (int64, error) {
	res := rec.Result
	bugs, err := json.Marshal(res.Bugs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal bugs: %w", err)
	}
	opts, err := json.Marshal(res.Optimizations)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal optimizations: %w", err)
	}
	positives, err := json.Marshal(res.Positives)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal positives: %w", err)
	}
	metrics, err := json.Marshal(res.Metrics)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	var projectID any
	if rec.ProjectID > 0 {
		projectID = rec.ProjectID
	}

	row, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history
			(user_id, project_id, code_snippet, language, score, summary, bugs, optimizations, positives, metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, projectID, rec.Code, rec.Language, res.Score, res.Summary,
		string(bugs), string(opts), string(positives), string(metrics), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}
	return row.LastInsertId()
}

// GetAnalysis fetches a single history entry owned by userID.
func (s *Store) GetAnalysis(ctx context.Context, userID, analysisID int64) (*Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, COALESCE(project_id, 0), code_snippet, language, score, summary,
		       bugs, optimizations, positives, metrics, created_at
		FROM analysis_history WHERE id = ? AND user_id = ?`, analysisID, userID)
	return scanAnalysis(row.Scan)
}

// ListAnalyses returns the user's history, newest first. projectID filters
// to one project when positive; limit caps the result when positive.
func (s *Store) ListAnalyses(ctx context.Context, userID, projectID int64, limit int) ([]*Analysis, error) {
	query := `
		SELECT id, user_id, COALESCE(project_id, 0), code_snippet, language, score, summary,
		       bugs, optimizations, positives, metrics, created_at
		FROM analysis_history WHERE user_id = ?`
	args := []any{userID}
	if projectID > 0 {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*Analysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// DeleteAnalysis removes a history entry owned by userID.
func (s *Store) DeleteAnalysis(ctx context.Context, userID, analysisID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_history WHERE id = ? AND user_id = ?`, analysisID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
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

func scanAnalysis(scan func(dest ...any) error) (*Analysis, error) {
	var a Analysis
	var bugs, opts, positives, metrics string
	err := scan(&a.ID, &a.UserID, &a.ProjectID, &a.CodeSnippet, &a.Language, &a.Score,
		&a.Summary, &bugs, &opts, &positives, &metrics, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(bugs), &a.Bugs); err != nil {
		return nil, fmt.Errorf("corrupt bugs column for analysis %d: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(opts), &a.Optimizations); err != nil {
		return nil, fmt.Errorf("corrupt optimizations column for analysis %d: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(positives), &a.Positives); err != nil {
		return nil, fmt.Errorf("corrupt positives column for analysis %d: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
		return nil, fmt.Errorf("corrupt metrics column for analysis %d: %w", a.ID, err)
	}
	return &a, nil
}
