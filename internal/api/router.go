// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/MYMGG/storysmith-mvp/internal/config"
	"github.com/MYMGG/storysmith-mvp/internal/di"
	"github.com/MYMGG/storysmith-mvp/internal/services"
	"github.com/MYMGG/storysmith-mvp/internal/storage"
)

// SetupRouter wires the HTTP routes. Services are taken from the container;
// main is responsible for registering them first.
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	container := di.GetContainer()

	projectService, ok := container.Get("project").(*services.ProjectService)
	if !ok {
		return nil, fmt.Errorf("project service not initialized")
	}
	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("export service not initialized")
	}
	importService, ok := container.Get("import").(*services.ImportService)
	if !ok {
		return nil, fmt.Errorf("import service not initialized")
	}
	blueprintService, ok := container.Get("blueprint").(*services.BlueprintService)
	if !ok {
		return nil, fmt.Errorf("blueprint service not initialized")
	}
	illustrationService, ok := container.Get("illustration").(*services.IllustrationService)
	if !ok {
		return nil, fmt.Errorf("illustration service not initialized")
	}
	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("progress service not initialized")
	}
	prefsStore, ok := container.Get("prefs").(*storage.FileStore)
	if !ok {
		return nil, fmt.Errorf("preferences store not initialized")
	}

	handler := NewHandler(
		projectService,
		exportService,
		importService,
		blueprintService,
		illustrationService,
		progressService,
		prefsStore,
		cfg.AccessCode,
	)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())

	r.Static("/static", cfg.StaticDir)

	r.GET("/api/health", handler.Health)
	r.POST("/api/auth/access", handler.ExchangeAccessCode)

	// Progress stream stays public; task ids are unguessable.
	r.GET("/ws/progress/:taskID", handler.ProgressWebSocket)

	apiGroup := r.Group("/api", accessGateMiddleware(cfg.AccessCode))
	{
		projects := apiGroup.Group("/projects")
		{
			projects.GET("", handler.ListProjects)
			projects.POST("", handler.CreateProject)
			projects.GET("/:id", handler.GetProject)
			projects.PUT("/:id", handler.UpdateProject)
			projects.DELETE("/:id", handler.DeleteProject)
			projects.POST("/:id/activate", handler.SetActiveProject)

			projects.GET("/:id/state", handler.GetStoryState)
			projects.PUT("/:id/state", handler.SaveStoryState)

			projects.GET("/:id/blueprint", handler.GetBlueprintSummary)
			projects.GET("/:id/viewer", handler.GetViewerBook)
			projects.GET("/:id/viewer/prefs", handler.GetViewerPrefs)
			projects.PUT("/:id/viewer/prefs", handler.SaveViewerPrefs)

			projects.POST("/:id/export/:bundleType", handler.ExportBundle)
			projects.POST("/:id/import/:bundleType", handler.ImportBundleIntoProject)

			projects.POST("/:id/illustrations", handler.StartIllustrations)
			projects.POST("/:id/illustrations/retry", handler.RetryIllustrations)
			projects.GET("/:id/illustrations", handler.GetIllustrationBatch)
		}

		apiGroup.POST("/import/:bundleType", handler.ImportBundle)

		apiGroup.POST("/generate/hero", handler.ForgeHero)
		apiGroup.POST("/generate/scenes", handler.WeaveScene)
	}

	return r, nil
}
