package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/eXocriador/automaze-task/api"
	"github.com/eXocriador/automaze-task/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(os.Getenv("CORS_ALLOW_ORIGINS")),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	logger := log.New()
	api.Register(e, store, logger)

	listenAddr := ":8000"
	if val, ok := os.LookupEnv("PORT"); ok {
		if _, err := strconv.Atoi(val); err != nil {
			log.Fatalf("invalid PORT: %v", err)
		}
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// corsOrigins parses the comma-separated allow-list. Empty means permissive.
func corsOrigins(env string) []string {
	if env == "" {
		return []string{"*"}
	}
	parts := strings.Split(env, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
