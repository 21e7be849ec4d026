// internal/services/illustration_service.go
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/MYMGG/storysmith-mvp/internal/errors"
	"github.com/MYMGG/storysmith-mvp/internal/llm"
	"github.com/MYMGG/storysmith-mvp/internal/models"
)

// IllustrationItemStatus is the outcome of one item in a batch.
type IllustrationItemStatus string

const (
	ItemStatusIllustrated IllustrationItemStatus = "illustrated"
	ItemStatusFailed      IllustrationItemStatus = "failed"
	ItemStatusSkipped     IllustrationItemStatus = "skipped"
)

// IllustrationItem records what happened to one scene or the cover.
type IllustrationItem struct {
	SceneID string                 `json:"scene_id,omitempty"` // empty for the cover
	Target  string                 `json:"target"`             // "scene" or "cover"
	Status  IllustrationItemStatus `json:"status"`
	URL     string                 `json:"url,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// IllustrationBatch is the result of one batch run.
type IllustrationBatch struct {
	TaskID string             `json:"task_id"`
	Items  []IllustrationItem `json:"items"`
	Failed int                `json:"failed"`
}

// IllustrationService renders scene and cover images for a project's
// StoryState. Failures are isolated per item; one bad prompt never aborts the
// batch. The last batch per project is remembered so a retry can target only
// the items that failed.
type IllustrationService struct {
	images   ImageClient
	projects *ProjectService
	progress *ProgressService

	mutex       sync.Mutex
	lastBatches map[string]*IllustrationBatch // project id -> last batch
}

// NewIllustrationService creates an illustration service.
func NewIllustrationService(images ImageClient, projects *ProjectService, progress *ProgressService) *IllustrationService {
	return &IllustrationService{
		images:      images,
		projects:    projects,
		progress:    progress,
		lastBatches: make(map[string]*IllustrationBatch),
	}
}

// StartBatch launches an asynchronous batch over every scene plus the cover
// and returns the task id for progress subscription.
func (s *IllustrationService) StartBatch(ctx context.Context, projectID, apiKey string) (string, error) {
	return s.start(ctx, projectID, apiKey, false)
}

// RetryFailed launches a batch narrowed to the items that failed in the
// project's previous batch.
func (s *IllustrationService) RetryFailed(ctx context.Context, projectID, apiKey string) (string, error) {
	s.mutex.Lock()
	last := s.lastBatches[projectID]
	s.mutex.Unlock()
	if last == nil || last.Failed == 0 {
		return "", apperrors.NewValidationError("No failed illustrations to retry for this project", nil)
	}
	return s.start(ctx, projectID, apiKey, true)
}

func (s *IllustrationService) start(ctx context.Context, projectID, apiKey string, retryOnly bool) (string, error) {
	state, err := s.projects.GetStoryState(ctx, projectID)
	if err != nil {
		return "", err
	}
	if state.StoryContent == nil || len(state.StoryContent.SceneJSONArray) == 0 {
		return "", apperrors.NewValidationError("Project has no scenes to illustrate", nil)
	}

	taskID := uuid.NewString()
	tracker := s.progress.CreateTracker(taskID)

	go s.runBatch(projectID, apiKey, taskID, tracker, retryOnly)

	return taskID, nil
}

// failedTargets returns the scene ids and cover flag that failed in the
// previous batch for a project.
func (s *IllustrationService) failedTargets(projectID string) (map[string]bool, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	failedScenes := make(map[string]bool)
	coverFailed := false
	last := s.lastBatches[projectID]
	if last == nil {
		return failedScenes, coverFailed
	}
	for _, item := range last.Items {
		if item.Status != ItemStatusFailed {
			continue
		}
		if item.Target == "cover" {
			coverFailed = true
		} else {
			failedScenes[item.SceneID] = true
		}
	}
	return failedScenes, coverFailed
}

// runBatch is the batch worker. It owns its own context so an aborted HTTP
// request does not cancel in-flight generation.
func (s *IllustrationService) runBatch(projectID, apiKey, taskID string, tracker *ProgressTracker, retryOnly bool) {
	ctx := context.Background()

	state, err := s.projects.GetStoryState(ctx, projectID)
	if err != nil {
		tracker.Fail(err.Error())
		return
	}

	scenes := state.StoryContent.SceneJSONArray
	failedScenes, coverFailed := map[string]bool{}, false
	if retryOnly {
		failedScenes, coverFailed = s.failedTargets(projectID)
	}

	batch := &IllustrationBatch{TaskID: taskID}
	total := len(scenes) + 1 // scenes plus cover

	for i := range scenes {
		scene := &scenes[i]
		sceneID := string(scene.SceneID)

		tracker.UpdateProgress(i*100/total, fmt.Sprintf("Illustrating scene %d of %d...", i+1, len(scenes)))

		if retryOnly && !failedScenes[sceneID] {
			batch.Items = append(batch.Items, IllustrationItem{
				SceneID: sceneID, Target: "scene", Status: ItemStatusSkipped, URL: scene.IllustrationURL,
			})
			continue
		}
		if scene.IllustrationPrompt == "" {
			batch.Items = append(batch.Items, IllustrationItem{
				SceneID: sceneID, Target: "scene", Status: ItemStatusFailed,
				Error: "scene has no illustration_prompt",
			})
			batch.Failed++
			continue
		}

		resp, err := s.images.GenerateImage(ctx, llm.ImageRequest{Prompt: scene.IllustrationPrompt, APIKey: apiKey})
		if err != nil {
			logrus.WithFields(logrus.Fields{"project": projectID, "scene": sceneID}).
				WithError(err).Warn("scene illustration failed")
			scene.SceneStatus = models.SceneStatusPendingIllustration
			batch.Items = append(batch.Items, IllustrationItem{
				SceneID: sceneID, Target: "scene", Status: ItemStatusFailed, Error: err.Error(),
			})
			batch.Failed++
			continue
		}

		scene.IllustrationURL = resp.URL
		scene.SceneStatus = models.SceneStatusIllustrated
		batch.Items = append(batch.Items, IllustrationItem{
			SceneID: sceneID, Target: "scene", Status: ItemStatusIllustrated, URL: resp.URL,
		})
	}

	s.illustrateCover(ctx, state, apiKey, batch, retryOnly, coverFailed, tracker, total)

	rebuildAssetsManifest(state)

	if _, err := s.projects.SaveStoryState(ctx, projectID, state); err != nil {
		tracker.Fail("Failed to save illustrated story: " + err.Error())
		return
	}

	s.mutex.Lock()
	s.lastBatches[projectID] = batch
	s.mutex.Unlock()

	if batch.Failed > 0 {
		tracker.Complete(fmt.Sprintf("Finished with %d failed item(s)", batch.Failed))
	} else {
		tracker.Complete("All illustrations generated")
	}
}

func (s *IllustrationService) illustrateCover(ctx context.Context, state *models.StoryState, apiKey string, batch *IllustrationBatch, retryOnly, coverFailed bool, tracker *ProgressTracker, total int) {
	cover := state.StoryContent.Cover
	if cover == nil || cover.CoverImagePrompt == "" {
		return
	}

	tracker.UpdateProgress((total-1)*100/total, "Illustrating cover...")

	if retryOnly && !coverFailed {
		batch.Items = append(batch.Items, IllustrationItem{
			Target: "cover", Status: ItemStatusSkipped, URL: cover.CoverImageURL,
		})
		return
	}

	resp, err := s.images.GenerateImage(ctx, llm.ImageRequest{Prompt: cover.CoverImagePrompt, APIKey: apiKey})
	if err != nil {
		logrus.WithError(err).Warn("cover illustration failed")
		batch.Items = append(batch.Items, IllustrationItem{
			Target: "cover", Status: ItemStatusFailed, Error: err.Error(),
		})
		batch.Failed++
		return
	}

	cover.CoverImageURL = resp.URL
	batch.Items = append(batch.Items, IllustrationItem{
		Target: "cover", Status: ItemStatusIllustrated, URL: resp.URL,
	})
}

// LastBatch returns the most recent batch result for a project.
func (s *IllustrationService) LastBatch(projectID string) (*IllustrationBatch, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	batch, ok := s.lastBatches[projectID]
	return batch, ok
}

// rebuildAssetsManifest regenerates the manifest from the current media URLs.
// The manifest is only attached once every scene and the cover have images;
// a partial batch leaves it untouched so a Final export keeps failing its
// completeness check honestly.
func rebuildAssetsManifest(state *models.StoryState) {
	if state.StoryContent == nil {
		return
	}
	cover := state.StoryContent.Cover
	if cover == nil || cover.CoverImageURL == "" {
		return
	}

	sceneImages := make([]string, 0, len(state.StoryContent.SceneJSONArray))
	for _, scene := range state.StoryContent.SceneJSONArray {
		if scene.IllustrationURL == "" {
			return
		}
		sceneImages = append(sceneImages, scene.IllustrationURL)
	}

	heroImage := ""
	if cb := state.StoryContent.CharacterBlock; cb != nil {
		heroImage = cb.HeroImageURL
	}

	state.StoryContent.AssetsManifest = &models.AssetsManifest{
		HeroImage:   heroImage,
		CoverImage:  cover.CoverImageURL,
		SceneImages: sceneImages,
	}
}
