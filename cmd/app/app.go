package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"moviemeter/internal/config"
	"moviemeter/internal/database"
	handlers "moviemeter/internal/handler"
	"moviemeter/internal/repository"
	"moviemeter/internal/router"
	"moviemeter/internal/service"
	"moviemeter/internal/storage"
)

const googleKeysTimeout = 10 * time.Second

type App struct {
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Router   *router.Router
}

// New connects the database and object storage and wires the HTTP stack.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	minioClient, err := storage.NewMinIOClient(ctx, cfg)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
	}

	repo := repository.NewRepository(db.DB)

	google := service.NewGoogleVerifier(cfg.GoogleClientID, &http.Client{Timeout: googleKeysTimeout})
	services := service.NewService(repo, cfg, minioClient, google)

	handler := handlers.NewHandlers(services, minioClient, cfg)

	return &App{
		DB:       db,
		Repo:     repo,
		Services: services,
		Router:   router.NewRouter(handler, services.Auth, cfg),
	}, nil
}

func (a *App) Close() error {
	return a.DB.CloseDB()
}
