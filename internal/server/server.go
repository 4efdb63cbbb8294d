// Package server is the composition root: it selects the storage backend,
// wires the dependency graph and owns the HTTP listener's lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/caltrack/caltrack/internal/analysis"
	"github.com/caltrack/caltrack/internal/auth"
	"github.com/caltrack/caltrack/internal/blob"
	"github.com/caltrack/caltrack/internal/config"
	"github.com/caltrack/caltrack/internal/handler"
	"github.com/caltrack/caltrack/internal/ledger"
	"github.com/caltrack/caltrack/internal/ledger/postgres"
	"github.com/caltrack/caltrack/internal/ledger/sqlite"
	"github.com/caltrack/caltrack/internal/middleware"
	"github.com/caltrack/caltrack/internal/reward"
	"github.com/caltrack/caltrack/internal/service"
	"github.com/caltrack/caltrack/internal/session"
)

// Server owns the router, the selected ledger backend and the resources
// that must be released on shutdown.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	entries ledger.Ledger
}

// New assembles the full dependency graph for the configured backend.
//
// The backend choice is a startup decision, not a runtime one: "local" runs
// single-user on sqlite with inlined images and no auth; "remote" runs
// multi-user on postgres with a disk blob store and JWT auth. Everything
// above the ledger interface is identical between the two.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
	}

	state, err := session.New(cfg.StatePath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening session state: %w", err)
	}

	var media *blob.DiskStore
	switch cfg.Backend {
	case config.BackendLocal:
		store, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite ledger: %w", err)
		}
		s.entries = store

	case config.BackendRemote:
		media, err = blob.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening media store: %w", err)
		}
		store, err := postgres.New(cfg.PostgresDSN, media, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres ledger: %w", err)
		}
		s.entries = store

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	tracker := service.NewTrackerService(
		s.entries,
		&analysis.Client{},
		state,
		&reward.MemeClient{},
		cfg.GeminiAPIKey,
		logger,
	)

	if err := s.setupRoutes(tracker, media); err != nil {
		s.entries.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes(tracker *service.TrackerService, media *blob.DiskStore) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	analyzeHandler := handler.NewAnalyzeHandler(tracker, s.logger)
	entryHandler := handler.NewEntryHandler(tracker, s.logger)
	settingsHandler := handler.NewSettingsHandler(tracker, s.logger)
	avatarHandler := handler.NewAvatarHandler(tracker, s.logger)

	// Remote mode wraps the API in auth; local mode runs it open because
	// there is exactly one user, the device owner.
	var guard func(http.Handler) http.Handler
	if s.cfg.Backend == config.BackendRemote {
		tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
		if err != nil {
			return err
		}

		users, ok := s.entries.(service.UserStore)
		if !ok {
			return fmt.Errorf("remote backend does not support accounts")
		}
		authService := service.NewAuthService(users, tokens, auth.NewPasswordService(), s.logger)
		authHandler := handler.NewAuthHandler(authService, s.logger)

		s.router.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
		})

		guard = auth.RequireAuth(tokens)
	}

	s.router.Route("/api", func(r chi.Router) {
		if guard != nil {
			r.Use(guard)
		}

		r.Post("/analyze", analyzeHandler.HandleAnalyze)

		r.Post("/entries", entryHandler.HandleCreate)
		r.Get("/entries", entryHandler.HandleList)
		r.Patch("/entries/{id}", entryHandler.HandleUpdate)
		r.Delete("/entries/{id}", entryHandler.HandleDelete)

		r.Get("/summary", entryHandler.HandleSummary)
		r.Get("/stats/weekly", entryHandler.HandleWeekly)

		r.Get("/goals", settingsHandler.HandleGetGoals)
		r.Put("/goals", settingsHandler.HandlePutGoals)
		r.Get("/settings", settingsHandler.HandleGetSettings)
		r.Put("/settings", settingsHandler.HandlePutSettings)

		r.Get("/avatar", avatarHandler.HandleGet)
		r.Post("/avatar/equip", avatarHandler.HandleEquip)
		r.Post("/avatar/color", avatarHandler.HandleColor)
	})

	// Uploaded photos are public by URL; the keys are unguessable enough
	// for a food log and the entries referencing them are auth-guarded.
	if media != nil {
		fileServer := http.FileServer(http.Dir(media.Dir()))
		s.router.Handle("/media/*", http.StripPrefix("/media/", fileServer))
	}

	return nil
}

// Start runs the listener until SIGINT/SIGTERM, then drains in-flight
// requests and closes the ledger.
func (s *Server) Start() error {
	defer s.entries.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // analysis calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("backend", s.cfg.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
