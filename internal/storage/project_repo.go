// internal/storage/project_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MYMGG/storysmith-mvp/internal/models"
)

// ErrNotFound is returned for lookups of ids that are not stored.
var ErrNotFound = errors.New("not found")

const timeLayout = time.RFC3339Nano

// ProjectRepo handles persistence for Project records.
type ProjectRepo struct{}

// Create inserts a project.
func (r *ProjectRepo) Create(ctx context.Context, db *sql.DB, p models.Project) error {
	const q = `INSERT INTO projects (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q, p.ID, p.Title,
		p.CreatedAt.UTC().Format(timeLayout), p.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Get returns one project by id, or ErrNotFound.
func (r *ProjectRepo) Get(ctx context.Context, db *sql.DB, id string) (*models.Project, error) {
	const q = `SELECT id, title, created_at, updated_at FROM projects WHERE id = ?`
	var p models.Project
	var createdAt, updatedAt string
	err := db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}

// List returns all projects ordered by creation time.
func (r *ProjectRepo) List(ctx context.Context, db *sql.DB) ([]models.Project, error) {
	const q = `SELECT id, title, created_at, updated_at FROM projects ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update rewrites title and updated_at for an existing project.
func (r *ProjectRepo) Update(ctx context.Context, db *sql.DB, p models.Project) error {
	const q = `UPDATE projects SET title = ?, updated_at = ? WHERE id = ?`
	res, err := db.ExecContext(ctx, q, p.Title, p.UpdatedAt.UTC().Format(timeLayout), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project row. Deleting an unknown id is not an error.
func (r *ProjectRepo) Delete(ctx context.Context, db *sql.DB, id string) error {
	const q = `DELETE FROM projects WHERE id = ?`
	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// StoryStateRepo handles persistence for the one StoryState per project.
type StoryStateRepo struct{}

// Put upserts the serialized StoryState for a project.
func (r *StoryStateRepo) Put(ctx context.Context, db *sql.DB, projectID string, stateJSON []byte) error {
	const q = `INSERT INTO story_states (project_id, state_json, updated_at) VALUES (?, ?, ?)
ON CONFLICT(project_id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, q, projectID, string(stateJSON), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("put story state: %w", err)
	}
	return nil
}

// Get returns the serialized StoryState for a project, or ErrNotFound.
func (r *StoryStateRepo) Get(ctx context.Context, db *sql.DB, projectID string) ([]byte, error) {
	const q = `SELECT state_json FROM story_states WHERE project_id = ?`
	var stateJSON string
	err := db.QueryRowContext(ctx, q, projectID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get story state: %w", err)
	}
	return []byte(stateJSON), nil
}

// Delete removes the StoryState for a project.
func (r *StoryStateRepo) Delete(ctx context.Context, db *sql.DB, projectID string) error {
	const q = `DELETE FROM story_states WHERE project_id = ?`
	if _, err := db.ExecContext(ctx, q, projectID); err != nil {
		return fmt.Errorf("delete story state: %w", err)
	}
	return nil
}

// SettingsRepo is a tiny key-value table for app-level settings such as the
// active project id.
type SettingsRepo struct{}

// Put upserts a setting.
func (r *SettingsRepo) Put(ctx context.Context, db *sql.DB, key, value string) error {
	const q = `INSERT INTO app_settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

// Get returns a setting value, or ErrNotFound.
func (r *SettingsRepo) Get(ctx context.Context, db *sql.DB, key string) (string, error) {
	const q = `SELECT value FROM app_settings WHERE key = ?`
	var value string
	err := db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// Delete removes a setting.
func (r *SettingsRepo) Delete(ctx context.Context, db *sql.DB, key string) error {
	const q = `DELETE FROM app_settings WHERE key = ?`
	if _, err := db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}
