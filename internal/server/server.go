package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/cache"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/db"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/handlers"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/mq"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/storage"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server wraps the HTTP server, router and owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.Publisher
	queryCache *cache.QueryCache
	logger     *slog.Logger
}

// New constructs a Server with all repositories, services and routes
// wired from config.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	imageStore, err := newImageStore(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := imageStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	events, err := newEventPublisher(ctx, cfg, logger)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	queryCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, search cache disabled", "error", err)
		queryCache = nil
	}

	userRepo := store.NewUserRepository(dbConn)
	listingRepo := store.NewListingRepository(dbConn)
	groupRepo := store.NewGroupRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)

	userService := services.NewUserService(userRepo)
	listingService := services.NewListingService(listingRepo, imageStore, queryCache, logger)
	groupService := services.NewGroupService(groupRepo, listingRepo, events, logger)
	messageService := services.NewMessageService(messageRepo, userRepo)

	authHandler := handlers.NewAuthHandler(userService, events, cfg.JWT, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	listingHandler := handlers.NewListingHandler(listingService, userService, logger)
	groupHandler := handlers.NewGroupHandler(groupService, userService, logger)
	messageHandler := handlers.NewMessageHandler(messageService, userService, logger)
	uploadHandler := handlers.NewUploadHandler(imageStore, logger)
	healthHandler := handlers.NewHealthHandler(dbConn)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
		handlers.UserRouter(r, userHandler, authHandler.RequireAuth)
		handlers.ListingRouter(r, listingHandler, authHandler.RequireAuth)
		handlers.GroupRouter(r, groupHandler, authHandler.RequireAuth)
		handlers.MessageRouter(r, messageHandler, authHandler.RequireAuth)
		handlers.HealthRouter(r, healthHandler)
	})
	handlers.UploadRouter(router, uploadHandler)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
		queryCache: queryCache,
		logger:     logger,
	}, nil
}

func newImageStore(ctx context.Context, cfg config.Config) (*storage.ImageStore, error) {
	switch cfg.Storage.Backend {
	case "minio", "":
		backend, err := storage.NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio backend: %w", err)
		}
		return storage.NewImageStore(backend), nil
	case "gcs":
		backend, err := storage.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("gcs backend: %w", err)
		}
		return storage.NewImageStore(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newEventPublisher(ctx context.Context, cfg config.Config, logger *slog.Logger) (*mq.Publisher, error) {
	switch cfg.Broker.Backend {
	case "rabbitmq":
		backend, err := mq.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq backend: %w", err)
		}
		return mq.NewPublisher(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub backend: %w", err)
		}
		return mq.NewPublisher(backend), nil
	case "none", "":
		logger.Info("event broker disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown broker backend %q", cfg.Broker.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.closeResources()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			s.logger.Warn("broker close failed", "error", err)
		}
	}
	if s.queryCache != nil {
		if err := s.queryCache.Close(); err != nil {
			s.logger.Warn("redis close failed", "error", err)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// requestLogger logs one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
