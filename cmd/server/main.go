// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MYMGG/storysmith-mvp/internal/api"
	"github.com/MYMGG/storysmith-mvp/internal/config"
	"github.com/MYMGG/storysmith-mvp/internal/di"
	"github.com/MYMGG/storysmith-mvp/internal/llm"
	_ "github.com/MYMGG/storysmith-mvp/internal/llm/providers/openai"
	"github.com/MYMGG/storysmith-mvp/internal/services"
	"github.com/MYMGG/storysmith-mvp/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	setupLogging(cfg)
	logrus.WithField("port", cfg.Port).Info("starting StorySmith server")

	createDirectories(cfg)

	if err := api.InitializeAuth(cfg.DebugMode); err != nil {
		logrus.WithError(err).Fatal("failed to initialize auth")
	}

	if err := initServices(cfg); err != nil {
		logrus.WithError(err).Fatal("failed to initialize services")
	}

	router, err := api.SetupRouter(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up router")
	}

	setupGracefulShutdown(router, cfg.Port)
}

func setupLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.DebugMode && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}

func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "exports"),
		filepath.Join(cfg.DataDir, "prefs"),
		filepath.Dir(cfg.DBPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).WithField("dir", dir).Fatal("failed to create directory")
		}
	}
}

// initServices builds all services in dependency order and registers them in
// the container.
func initServices(cfg *config.Config) error {
	container := di.GetContainer()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}

	archiveStore, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "exports"))
	if err != nil {
		return err
	}
	prefsStore, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}

	provider, err := llm.GetProvider("openai", map[string]string{
		"api_key": cfg.OpenAIAPIKey,
	})
	if err != nil {
		return err
	}

	generationService := services.NewGenerationService(provider, cfg.OpenAIAPIKey)
	projectService := services.NewProjectService(db)
	progressService := services.NewProgressService()

	container.Register("db", db)
	container.Register("generation", generationService)
	container.Register("project", projectService)
	container.Register("progress", progressService)
	container.Register("export", services.NewExportService(archiveStore))
	container.Register("import", services.NewImportService())
	container.Register("blueprint", services.NewBlueprintService(generationService, "prompts"))
	container.Register("illustration", services.NewIllustrationService(generationService, projectService, progressService))
	container.Register("prefs", prefsStore)

	// Old finished trackers are reaped hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			progressService.CleanupCompletedTasks(24 * time.Hour)
		}
	}()

	return nil
}

func setupGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("forced server shutdown")
	}

	logrus.Info("server stopped")
}
