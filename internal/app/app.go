package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/auth"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/database"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/delivery/httpd"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository/memory"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/worker"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	store     *repository.PostgresRepository
	pool      *worker.Pool
	publisher integration.EventPublisher
}

type repositories struct {
	users     repository.UserRepository
	projects  repository.ProjectRepository
	courses   repository.CourseRepository
	contents  repository.ContentRepository
	wishlists repository.WishlistRepository
	prompts   repository.PromptRepository
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{logger: log, config: cfg}

	repos, err := a.openRepositories()
	if err != nil {
		return nil, err
	}

	a.pool = worker.NewPool(cfg.Workers.Count, log)
	a.pool.Start()
	a.publisher = a.newPublisher()

	media, err := newMedia(cfg.Media, log)
	if err != nil {
		a.release()
		return nil, err
	}

	assistant := integration.NewDisabledAssistant()
	if cfg.Assistant.Enabled {
		assistant = integration.NewOpenAIAssistant(cfg.Assistant, log)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth)

	services := httpd.Services{
		Users:    service.NewUserService(repos.users, tokens, log),
		Projects: service.NewProjectService(repos.projects, repos.users, a.publisher, cfg.Projects, log),
		Courses:  service.NewCourseService(repos.courses, repos.users, a.publisher, log),
		Contents: service.NewContentService(repos.contents, repos.users, media, cfg.Media.MaxUploadSize, log),
		Wishlist: service.NewWishlistService(repos.wishlists, repos.courses, log),
		Chat:     service.NewChatService(assistant, cfg.Assistant, log),
		Prompts:  service.NewPromptService(repos.prompts, log),
	}

	if cfg.Prompts.SeedFile != "" {
		if err := importPrompts(context.Background(), services.Prompts, cfg.Prompts.SeedFile); err != nil {
			a.release()
			return nil, err
		}
	}

	// A nil *PostgresRepository must not become a non-nil Pinger.
	var pinger httpd.Pinger
	if a.store != nil {
		pinger = a.store
	}
	handler := httpd.NewHandler(services, pinger, cfg.Media.MaxUploadSize, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpd.RequestLogger(log))
	router.Use(httpd.Recovery(log))
	if cfg.Metrics.Enabled {
		router.Use(httpd.Metrics)
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *App) openRepositories() (*repositories, error) {
	switch a.config.Database.Driver {
	case "memory":
		a.logger.Warn().Msg("Using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:     memory.NewUserRepository(store),
			projects:  memory.NewProjectRepository(store),
			courses:   memory.NewCourseRepository(store),
			contents:  memory.NewContentRepository(store),
			wishlists: memory.NewWishlistRepository(store),
			prompts:   memory.NewPromptRepository(store),
		}, nil
	case "postgres", "":
		db, err := database.NewPostgres(a.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.store = repository.NewPostgresRepository(db, a.logger)

		if err := a.store.Ping(context.Background()); err != nil {
			_ = a.store.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		a.logger.Info().Msg("Database connection established")

		return &repositories{
			users:     repository.NewUserRepository(db, a.logger),
			projects:  repository.NewProjectRepository(db, a.logger),
			courses:   repository.NewCourseRepository(db, a.logger),
			contents:  repository.NewContentRepository(db, a.logger),
			wishlists: repository.NewWishlistRepository(db, a.logger),
			prompts:   repository.NewPromptRepository(db, a.logger),
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", a.config.Database.Driver)
	}
}

// newPublisher falls back to the no-op publisher when the broker is
// disabled or unreachable; events are best effort.
func (a *App) newPublisher() integration.EventPublisher {
	if !a.config.RabbitMQ.Enabled {
		return integration.NewNoopPublisher(a.logger)
	}

	rabbit, err := integration.NewRabbitMQPublisher(a.config.RabbitMQ.URL, a.config.RabbitMQ.Exchange, a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to connect to RabbitMQ, events will not be published")
		return integration.NewNoopPublisher(a.logger)
	}
	return integration.NewAsyncPublisher(rabbit, a.pool, a.logger)
}

func importPrompts(ctx context.Context, prompts service.PromptService, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt seed file: %w", err)
	}
	var entries []models.Prompt
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to parse prompt seed file %s: %w", path, err)
	}
	if _, err := prompts.Import(ctx, entries); err != nil {
		return fmt.Errorf("failed to import prompts: %w", err)
	}
	return nil
}

func newMedia(cfg config.MediaConfig, log zerolog.Logger) (integration.MediaStorage, error) {
	if !cfg.Enabled {
		return integration.NewDisabledStorage(), nil
	}
	media, err := integration.NewMinIOStorage(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create media storage: %w", err)
	}
	return media, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting swanirbhar on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down swanirbhar...")

	err := a.server.Shutdown(ctx)
	a.release()
	return err
}

// release stops background work before closing the connections it uses.
func (a *App) release() {
	if a.pool != nil {
		a.pool.Stop()
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close event publisher")
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}
