// internal/api/handlers.go
package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/MYMGG/storysmith-mvp/internal/auth"
	"github.com/MYMGG/storysmith-mvp/internal/models"
	"github.com/MYMGG/storysmith-mvp/internal/services"
	"github.com/MYMGG/storysmith-mvp/internal/storage"
)

// Handler bundles the services API endpoints depend on.
type Handler struct {
	Projects      *services.ProjectService
	Export        *services.ExportService
	Import        *services.ImportService
	Blueprint     *services.BlueprintService
	Illustrations *services.IllustrationService
	Progress      *services.ProgressService
	Prefs         *storage.FileStore
	AccessCode    string
}

// NewHandler creates the API handler.
func NewHandler(
	projects *services.ProjectService,
	export *services.ExportService,
	importSvc *services.ImportService,
	blueprint *services.BlueprintService,
	illustrations *services.IllustrationService,
	progress *services.ProgressService,
	prefs *storage.FileStore,
	accessCode string,
) *Handler {
	return &Handler{
		Projects:      projects,
		Export:        export,
		Import:        importSvc,
		Blueprint:     blueprint,
		Illustrations: illustrations,
		Progress:      progress,
		Prefs:         prefs,
		AccessCode:    accessCode,
	}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	Success(c, gin.H{"status": "ok"})
}

// ExchangeAccessCode trades the shared access code for a bearer token.
func (h *Handler) ExchangeAccessCode(c *gin.Context) {
	var req struct {
		AccessCode string `json:"access_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !auth.ValidateAccessCode(req.AccessCode, h.AccessCode) {
		FailWithStatus(c, http.StatusUnauthorized, "Invalid access code")
		return
	}

	token, err := auth.GenerateToken("guest", tokenConfig)
	if err != nil {
		Fail(c, err)
		return
	}

	Success(c, gin.H{"token": token})
}

// ListProjects returns all projects plus the active project id.
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Projects.ListProjects(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	active, err := h.Projects.ActiveProjectID(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"projects": projects, "active_project_id": active})
}

// CreateProject creates a project and marks it active.
func (h *Handler) CreateProject(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "A project title is required")
		return
	}

	project, err := h.Projects.CreateProject(c.Request.Context(), req.Title)
	if err != nil {
		Fail(c, err)
		return
	}
	if err := h.Projects.SetActiveProjectID(c.Request.Context(), project.ID); err != nil {
		Fail(c, err)
		return
	}

	Created(c, project)
}

// GetProject returns one project.
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.Projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, project)
}

// UpdateProject renames a project.
func (h *Handler) UpdateProject(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "A project title is required")
		return
	}

	project, err := h.Projects.UpdateProject(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, project)
}

// DeleteProject removes a project and its story state.
func (h *Handler) DeleteProject(c *gin.Context) {
	if _, err := h.Projects.GetProject(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	if err := h.Projects.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"deleted": c.Param("id")})
}

// SetActiveProject marks a project as the active one.
func (h *Handler) SetActiveProject(c *gin.Context) {
	if err := h.Projects.SetActiveProjectID(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"active_project_id": c.Param("id")})
}

// GetStoryState returns the normalized StoryState for a project.
func (h *Handler) GetStoryState(c *gin.Context) {
	state, err := h.Projects.GetStoryState(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, state)
}

// SaveStoryState persists a StoryState for a project.
func (h *Handler) SaveStoryState(c *gin.Context) {
	var state models.StoryState
	if err := c.ShouldBindJSON(&state); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "Invalid story state body")
		return
	}

	saved, err := h.Projects.SaveStoryState(c.Request.Context(), c.Param("id"), &state)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, saved)
}

// GetViewerBook returns the viewer-facing book schema for a project.
func (h *Handler) GetViewerBook(c *gin.Context) {
	state, err := h.Projects.GetStoryState(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, models.ToViewerBook(state))
}

// GetViewerPrefs returns per-book viewer preferences.
func (h *Handler) GetViewerPrefs(c *gin.Context) {
	prefs := models.ViewerPrefs{}
	err := h.Prefs.LoadJSON("prefs/"+c.Param("id")+".json", &prefs)
	if err != nil && !os.IsNotExist(err) {
		Fail(c, err)
		return
	}
	Success(c, prefs)
}

// SaveViewerPrefs stores per-book viewer preferences.
func (h *Handler) SaveViewerPrefs(c *gin.Context) {
	var prefs models.ViewerPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "Invalid preferences body")
		return
	}
	if err := h.Prefs.SaveJSON("prefs/"+c.Param("id")+".json", prefs); err != nil {
		Fail(c, err)
		return
	}
	Success(c, prefs)
}

// ForgeHero runs the hero-creation chat stage.
func (h *Handler) ForgeHero(c *gin.Context) {
	var req struct {
		UserMessage string `json:"userMessage"`
		APIKey      string `json:"apiKey"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.Blueprint.ForgeHero(c.Request.Context(), req.UserMessage, req.APIKey)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"reply": reply})
}

// WeaveScene runs the scene-weaving chat stage.
func (h *Handler) WeaveScene(c *gin.Context) {
	var req struct {
		UserMessage string             `json:"userMessage"`
		StoryState  *models.StoryState `json:"storyState"`
		APIKey      string             `json:"apiKey"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.Blueprint.WeaveScene(c.Request.Context(), req.UserMessage, req.StoryState, req.APIKey)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"reply": reply})
}

// GetBlueprintSummary condenses a project's StoryState into a blueprint view.
func (h *Handler) GetBlueprintSummary(c *gin.Context) {
	state, err := h.Projects.GetStoryState(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, services.BlueprintFromStoryState(state))
}

// StartIllustrations launches a batch illustration run.
func (h *Handler) StartIllustrations(c *gin.Context) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	c.ShouldBindJSON(&req) // body optional

	taskID, err := h.Illustrations.StartBatch(c.Request.Context(), c.Param("id"), req.APIKey)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"task_id": taskID})
}

// RetryIllustrations re-runs only the failed items of the previous batch.
func (h *Handler) RetryIllustrations(c *gin.Context) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	c.ShouldBindJSON(&req) // body optional

	taskID, err := h.Illustrations.RetryFailed(c.Request.Context(), c.Param("id"), req.APIKey)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"task_id": taskID})
}

// GetIllustrationBatch returns the last batch result for a project.
func (h *Handler) GetIllustrationBatch(c *gin.Context) {
	batch, ok := h.Illustrations.LastBatch(c.Param("id"))
	if !ok {
		FailWithStatus(c, http.StatusNotFound, "No illustration batch recorded for this project")
		return
	}
	Success(c, batch)
}
