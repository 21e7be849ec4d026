// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config stores the application configuration.
type Config struct {
	Port         string
	DataDir      string
	DBPath       string
	StaticDir    string
	OpenAIAPIKey string
	AccessCode   string
	DebugMode    bool
	LogLevel     string
}

// Load reads configuration from the environment, with .env as an optional
// overlay.
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:         getEnv("PORT", "8080"),
		DataDir:      getEnvPath("DATA_DIR", "data"),
		DBPath:       getEnv("DB_PATH", "data/storysmith.db"),
		StaticDir:    getEnv("STATIC_DIR", "static"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		AccessCode:   getEnv("ACCESS_CODE", ""),
		DebugMode:    getEnvBool("DEBUG_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if config.OpenAIAPIKey == "" {
		logrus.Warn("OPENAI_API_KEY not set; generation requests must supply their own key")
	}

	return config, nil
}

// getEnv returns an environment variable, falling back to a default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns a path environment variable, creating the directory if
// it does not exist.
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: failed to create directory %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool returns a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}
