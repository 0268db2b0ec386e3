// Package server wires the repositories, services, and handlers into the
// HTTP router and owns the listen/shutdown lifecycle.
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

	"github.com/48Nauts-Operator/hubble-sub000/internal/auth"
	"github.com/48Nauts-Operator/hubble-sub000/internal/config"
	"github.com/48Nauts-Operator/hubble-sub000/internal/discovery"
	"github.com/48Nauts-Operator/hubble-sub000/internal/events"
	"github.com/48Nauts-Operator/hubble-sub000/internal/favicon"
	"github.com/48Nauts-Operator/hubble-sub000/internal/handler"
	"github.com/48Nauts-Operator/hubble-sub000/internal/middleware"
	sqliteRepo "github.com/48Nauts-Operator/hubble-sub000/internal/repository/sqlite"
	"github.com/48Nauts-Operator/hubble-sub000/internal/service"
)

type Server struct {
	router    *chi.Mux
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	hub       *events.Hub
	discovery *discovery.Service
	auths     *service.AuthService
}

// New builds the full dependency graph. Discovery is optional: when it is
// disabled or Docker is unreachable the rest of the server runs without it.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		hub:    events.NewHub(logger),
	}

	var github *auth.GitHubProvider
	if cfg.GitHubConfigured() {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	}

	icons := favicon.New(cfg.FaviconCacheSize, cfg.FaviconCacheTTL, logger)
	s.auths = service.NewAuthService(db, tokens, auth.NewPasswordService(), cfg.GitHubAllowedLogin, logger)
	bookmarks := service.NewBookmarkService(db, db, icons, s.hub, logger)
	groups := service.NewGroupService(db, s.hub, logger)
	shares := service.NewShareService(db, db, db, db, s.hub, cfg.BaseURL, logger)
	analytics := service.NewAnalyticsService(db, db, db, logger)

	if cfg.DiscoveryEnabled {
		disc, err := discovery.New(db, db, s.hub, cfg.DiscoveryInterval, logger)
		if err != nil {
			logger.Warn("container discovery unavailable", slog.String("error", err.Error()))
		} else {
			s.discovery = disc
		}
	}

	s.setupRoutes(tokens, github, bookmarks, groups, shares, analytics)
	return s, nil
}

// Bootstrap initializes the admin account on first start.
func (s *Server) Bootstrap(ctx context.Context) error {
	return s.auths.Bootstrap(ctx, s.cfg.AdminUsername, s.cfg.AdminPassword)
}

func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	bookmarks *service.BookmarkService,
	groups *service.GroupService,
	shares *service.ShareService,
	analytics *service.AnalyticsService,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(s.auths, github, s.logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarks, s.logger)
	groupHandler := handler.NewGroupHandler(groups, s.logger)
	shareAdmin := handler.NewShareAdminHandler(shares, s.logger)
	sharePublic := handler.NewSharePublicHandler(shares, s.logger)
	discoveryHandler := handler.NewDiscoveryHandler(s.discovery, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(analytics, s.logger)
	eventsHandler := handler.NewEventsHandler(s.hub, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Get("/ws", eventsHandler.HandleWS)

	// Visitor endpoints. No authentication; share accessibility is enforced
	// per uid by the service.
	s.router.Route("/api/public", func(r chi.Router) {
		r.Get("/shares/{uid}", sharePublic.HandleResolve)
		r.Get("/shares/{uid}/overlay", sharePublic.HandleGetOverlay)
		r.Put("/shares/{uid}/overlay", sharePublic.HandleUpdateOverlay)
		r.Post("/shares/{uid}/overlay/bookmarks", sharePublic.HandleAddPersonalBookmark)
		r.Post("/bookmarks/{id}/click", bookmarkHandler.HandleClick)
	})

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/bookmarks", bookmarkHandler.HandleList)
		r.Post("/bookmarks", bookmarkHandler.HandleCreate)
		r.Get("/bookmarks/{id}", bookmarkHandler.HandleGet)
		r.Put("/bookmarks/{id}", bookmarkHandler.HandleUpdate)
		r.Delete("/bookmarks/{id}", bookmarkHandler.HandleDelete)

		r.Get("/groups", groupHandler.HandleList)
		r.Post("/groups", groupHandler.HandleCreate)
		r.Get("/groups/{id}", groupHandler.HandleGet)
		r.Put("/groups/{id}", groupHandler.HandleUpdate)
		r.Delete("/groups/{id}", groupHandler.HandleDelete)

		r.Get("/shares", shareAdmin.HandleList)
		r.Post("/shares", shareAdmin.HandleCreate)
		r.Get("/shares/{id}", shareAdmin.HandleGet)
		r.Put("/shares/{id}", shareAdmin.HandleUpdate)
		r.Delete("/shares/{id}", shareAdmin.HandleDelete)

		r.Get("/discovery/containers", discoveryHandler.HandleContainers)
		r.Post("/discovery/sync", discoveryHandler.HandleSync)

		r.Get("/analytics/summary", analyticsHandler.HandleSummary)
	})
}

// Router exposes the configured router. Used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the event hub, background discovery, and the HTTP server, then
// blocks until a shutdown signal or server error.
func (s *Server) Start() error {
	defer s.db.Close()

	go s.hub.Run()

	discoveryCtx, cancelDiscovery := context.WithCancel(context.Background())
	defer cancelDiscovery()
	if s.discovery != nil {
		go s.discovery.Run(discoveryCtx)
	}

	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.cfg.Addr()),
			slog.String("base_url", s.cfg.BaseURL),
			slog.String("database", s.cfg.DBPath),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
