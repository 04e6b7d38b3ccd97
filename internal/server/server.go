package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/harborline/stockgate/internal/api/v1"
	"github.com/harborline/stockgate/internal/auth"
	"github.com/harborline/stockgate/internal/config"
	"github.com/harborline/stockgate/internal/domain"
	"github.com/harborline/stockgate/internal/server/middleware"
)

// authPath is where unauthenticated requests are challenged to.
const authPath = "/auth"

// Server is the HTTP server that wires all gateway routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	sessions   domain.SessionStore
	oauth      *auth.OAuth
	cfg        *config.Config
}

// New creates a Server with all routes wired.
func New(ctx context.Context, cfg *config.Config, sessions domain.SessionStore, exec v1.InventoryExecutor) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Boundary())
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Reauthorize-Url"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	oauthSvc := auth.NewOAuth(cfg.App.APIKey, cfg.App.APISecret, cfg.App.AppURL, cfg.App.Scopes, sessions)

	s := &Server{
		router:   router,
		sessions: sessions,
		oauth:    oauthSvc,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// OAuth install flow (unauthenticated, per-IP limited).
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, 2, 5))
		registerAuthRoutes(r, oauthSvc)
	})

	// App routes: everything behind the auth gate, per-shop limited.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.App.APIKey, cfg.App.APISecret, sessions, authPath))
		r.Use(middleware.RateLimitByShop(ctx, 4, 8))

		apiConfig := huma.DefaultConfig("Stockgate API", "1.0.0")
		api := humachi.New(r, apiConfig)
		registerAppRoutes(api, exec)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Handler exposes the wired router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
