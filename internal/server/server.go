package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dbh-bot/dbh/config"
	"github.com/dbh-bot/dbh/internal/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server, router and flush scheduler.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	app        *App
	log        *slog.Logger

	flushCtx  context.Context
	stopFlush context.CancelFunc
	flushDone sync.WaitGroup
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	authMiddleware := handlers.NewAuthHandler(app.Accounts).RequireAuth

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, app.Accounts)
	})
	router.Route("/r", func(r chi.Router) {
		handlers.RedirectRouter(r, app.Redirects)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, app.Scheduler, cfg.AdminLogins, authMiddleware)
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

	flushCtx, stopFlush := context.WithCancel(context.Background())
	return &Server{
		httpServer: httpServer,
		router:     router,
		app:        app,
		log:        log,
		flushCtx:   flushCtx,
		stopFlush:  stopFlush,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the flush scheduler and the HTTP server. It returns nil once
// Shutdown has been called.
func (s *Server) Start() error {
	s.flushDone.Add(1)
	go func() {
		defer s.flushDone.Done()
		s.app.Scheduler.Run(s.flushCtx)
	}()

	s.log.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, runs the final flush and closes
// the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.stopFlush()
	s.flushDone.Wait()
	return errors.Join(err, s.app.Close())
}
