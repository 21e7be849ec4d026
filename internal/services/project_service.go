// internal/services/project_service.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/MYMGG/storysmith-mvp/internal/errors"
	"github.com/MYMGG/storysmith-mvp/internal/models"
	"github.com/MYMGG/storysmith-mvp/internal/storage"
)

const activeProjectKey = "storysmith_mvp_active_project_id"

// defaultVisualStyle seeds new projects so early image prompts stay visually
// consistent before the user picks a style.
const defaultVisualStyle = "3D animated Film"

// ProjectService manages the project list, the one StoryState per project,
// and the active-project pointer.
type ProjectService struct {
	db       *sql.DB
	projects *storage.ProjectRepo
	states   *storage.StoryStateRepo
	settings *storage.SettingsRepo
}

// NewProjectService creates a project service over an opened database.
func NewProjectService(db *sql.DB) *ProjectService {
	return &ProjectService{
		db:       db,
		projects: &storage.ProjectRepo{},
		states:   &storage.StoryStateRepo{},
		settings: &storage.SettingsRepo{},
	}
}

// ListProjects returns all projects.
func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.projects.List(ctx, s.db)
}

// GetProject returns one project by id.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.projects.Get(ctx, s.db, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("Project not found: %s", id), err)
	}
	return p, err
}

// CreateProject creates a project with a fresh seeded StoryState.
func (s *ProjectService) CreateProject(ctx context.Context, title string) (*models.Project, error) {
	now := time.Now().UTC()
	project := models.Project{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projects.Create(ctx, s.db, project); err != nil {
		return nil, err
	}

	style := defaultVisualStyle
	state := models.NewEmptyStoryState(&models.StoryStateOverrides{
		StoryData: &models.StoryData{VisualStyle: &style},
	})
	if err := s.putState(ctx, project.ID, state); err != nil {
		return nil, err
	}

	return &project, nil
}

// UpdateProject renames a project and bumps its updated time.
func (s *ProjectService) UpdateProject(ctx context.Context, id, title string) (*models.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if title != "" {
		project.Title = title
	}
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, s.db, *project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes a project and its StoryState, clearing the active
// pointer when it referenced the deleted project.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	if err := s.projects.Delete(ctx, s.db, id); err != nil {
		return err
	}
	if err := s.states.Delete(ctx, s.db, id); err != nil {
		return err
	}

	active, err := s.ActiveProjectID(ctx)
	if err != nil {
		return err
	}
	if active == id {
		return s.settings.Delete(ctx, s.db, activeProjectKey)
	}
	return nil
}

// GetStoryState loads and normalizes the StoryState for a project.
func (s *ProjectService) GetStoryState(ctx context.Context, projectID string) (*models.StoryState, error) {
	raw, err := s.states.Get(ctx, s.db, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("No story state for project: %s", projectID), err)
	}
	if err != nil {
		return nil, err
	}
	state, _ := models.NormalizeRaw(raw)
	return state, nil
}

// SaveStoryState normalizes and persists the StoryState for a project,
// stamping last_updated and bumping the project's updated time.
func (s *ProjectService) SaveStoryState(ctx context.Context, projectID string, state *models.StoryState) (*models.StoryState, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	normalized := models.NormalizeStoryState(state)
	normalized.Touch()
	if err := s.putState(ctx, projectID, normalized); err != nil {
		return nil, err
	}

	if _, err := s.UpdateProject(ctx, projectID, ""); err != nil {
		return nil, err
	}
	return normalized, nil
}

func (s *ProjectService) putState(ctx context.Context, projectID string, state *models.StoryState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal story state: %w", err)
	}
	return s.states.Put(ctx, s.db, projectID, raw)
}

// ActiveProjectID returns the active project id, or "" when none is set.
func (s *ProjectService) ActiveProjectID(ctx context.Context) (string, error) {
	id, err := s.settings.Get(ctx, s.db, activeProjectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return id, err
}

// SetActiveProjectID marks a project as active.
func (s *ProjectService) SetActiveProjectID(ctx context.Context, id string) error {
	if _, err := s.GetProject(ctx, id); err != nil {
		return err
	}
	return s.settings.Put(ctx, s.db, activeProjectKey, id)
}

// ClearActiveProjectID unsets the active project pointer.
func (s *ProjectService) ClearActiveProjectID(ctx context.Context) error {
	return s.settings.Delete(ctx, s.db, activeProjectKey)
}
