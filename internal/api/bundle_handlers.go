// internal/api/bundle_handlers.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MYMGG/storysmith-mvp/internal/models"
)

// ExportBundle exports the project's StoryState as a downloadable bundle for
// the requested stage. The response body is the bundle JSON itself, with the
// fixed per-stage filename in Content-Disposition.
func (h *Handler) ExportBundle(c *gin.Context) {
	bundleType := models.BundleType(c.Param("bundleType"))

	state, err := h.Projects.GetStoryState(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}

	export, err := h.Export.ExportAndArchive(state, bundleType)
	if err != nil {
		Fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.MIME, []byte(export.JSONString))
}

// ImportBundle validates an uploaded bundle against the expected stage and
// returns the import result. The bundle arrives either as a multipart "file"
// field or as the raw request body. Workflow failures are part of the result,
// not HTTP errors.
func (h *Handler) ImportBundle(c *gin.Context) {
	result := h.runImport(c)
	Success(c, result)
}

// ImportBundleIntoProject imports a bundle and, on success, saves the
// recovered StoryState as the project's current state.
func (h *Handler) ImportBundleIntoProject(c *gin.Context) {
	result := h.runImport(c)
	if !result.Success {
		Success(c, result)
		return
	}

	saved, err := h.Projects.SaveStoryState(c.Request.Context(), c.Param("id"), result.StoryState)
	if err != nil {
		Fail(c, err)
		return
	}
	result.StoryState = saved
	Success(c, result)
}

func (h *Handler) runImport(c *gin.Context) *models.ImportResult {
	expected := models.BundleType(c.Param("bundleType"))

	if file, err := c.FormFile("file"); err == nil {
		f, openErr := file.Open()
		if openErr != nil {
			return &models.ImportResult{Success: false, Errors: []string{"Failed to read file: " + openErr.Error()}}
		}
		defer f.Close()
		return h.Import.ImportBundle(f, expected)
	}

	return h.Import.ImportBundle(c.Request.Body, expected)
}
