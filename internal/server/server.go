package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/devhub-se/apiserver/config"
	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/db"
	"github.com/devhub-se/apiserver/internal/events"
	"github.com/devhub-se/apiserver/internal/handlers"
	"github.com/devhub-se/apiserver/internal/logging"
	"github.com/devhub-se/apiserver/internal/metrics"
	"github.com/devhub-se/apiserver/internal/oauth"
	"github.com/devhub-se/apiserver/internal/services"
	"github.com/devhub-se/apiserver/internal/storage"
	"github.com/devhub-se/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     events.Backend
	log        *slog.Logger
}

// New constructs a Server with all dependencies wired. Optional backends
// (events, object storage) are selected by config and may be absent.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	roles, err := authz.NewRoles(cfg.Roles)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("role configuration: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)
	subcategoryRepo := store.NewSubcategoryRepository(dbConn)
	threadRepo := store.NewThreadRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	snippetRepo := store.NewSnippetRepository(dbConn)
	newsRepo := store.NewNewsRepository(dbConn)

	userService := services.NewUserService(userRepo)
	forumService := services.NewForumService(categoryRepo, subcategoryRepo, threadRepo, postRepo)
	snippetService := services.NewSnippetService(snippetRepo)
	newsService := services.NewNewsService(newsRepo)

	eventsBackend, err := newEventsBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	publisher := events.NewPublisher(eventsBackend, log)

	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	engine := authz.NewEngine(userRepo, roles)
	guard := handlers.NewGuard(engine, jwtSecret, log, publisher)
	oauthManager := oauth.NewManager(cfg.OAuth)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", metrics.Handler())
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret, guard)
	})
	router.Route("/oauth", func(r chi.Router) {
		handlers.OAuthRouter(r, userService, oauthManager, jwtSecret)
	})
	router.Route("/forum", func(r chi.Router) {
		handlers.ForumRouter(r, forumService, guard, publisher)
	})
	router.Route("/snippets", func(r chi.Router) {
		handlers.SnippetRouter(r, snippetService, guard, publisher)
	})
	router.Route("/news", func(r chi.Router) {
		handlers.NewsRouter(r, newsService, guard, publisher)
	})
	router.Route("/profile", func(r chi.Router) {
		handlers.ProfileRouter(r, userService, objectStorage, guard)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     eventsBackend,
		log:        log,
	}, nil
}

// newEventsBackend selects the message broker by config. An empty
// backend name disables event publishing.
func newEventsBackend(ctx context.Context, cfg config.Config) (events.Backend, error) {
	switch cfg.Events.Backend {
	case "rabbitmq":
		return events.NewRabbitMQClient(cfg.Events.RabbitMQ)
	case "pubsub":
		return events.NewPubSubClient(ctx, cfg.Events.PubSub)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// newObjectStorage selects the avatar store by config. An empty backend
// name disables avatar storage.
func newObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Storage.Backend {
	case "minio":
		client, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	avatars := storage.NewStorage(backend)
	if err := avatars.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return avatars, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	return s.httpServer.Close()
}
