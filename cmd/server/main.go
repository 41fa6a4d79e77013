package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"collab-scorecard/backend/internal/api"
	"collab-scorecard/backend/internal/config"
	"collab-scorecard/backend/internal/store"
)

func main() {
	settings, err := config.LoadConfig(strings.TrimSpace(os.Getenv("SCORECARD_CONFIG")))
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		settings.LogLevel = level
	}
	if format := strings.TrimSpace(os.Getenv("LOG_FORMAT")); format != "" {
		settings.LogFormat = format
	}
	if err := settings.ConfigureLogging(); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	driver := strings.TrimSpace(os.Getenv("SCORECARD_DB_DRIVER"))
	if driver == "" {
		driver = store.DriverSQLite
	}
	dsn := strings.TrimSpace(os.Getenv("SCORECARD_DB_DSN"))
	if dsn == "" {
		baseDir, err := os.Getwd()
		if err != nil {
			logrus.Fatalf("determine working directory: %v", err)
		}
		dsn = filepath.Join(baseDir, "data", "scorecard.db")
	}
	if driver == store.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}

	origins := []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
	if env := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); env != "" {
		origins = origins[:0]
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	server, err := api.NewServer(api.Config{
		DBDriver:       driver,
		DBDSN:          dsn,
		SilentDB:       !strings.EqualFold(settings.LogLevel, "debug"),
		AllowedOrigins: origins,
		Settings:       settings,
		SeedIfEmpty:    !strings.EqualFold(strings.TrimSpace(os.Getenv("SCORECARD_SKIP_SEED")), "true"),
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.Infof("starting collaboration scorecard backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
