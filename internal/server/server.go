package server

import (
	"context"
	"net/http"
	"time"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/config"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/http/handlers"
	"github.com/brandconnect/brandconnect-be/internal/media"
	"github.com/brandconnect/brandconnect-be/internal/middleware"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Deps are the collaborators the HTTP layer needs. Publisher and Uploader may be nil.
type Deps struct {
	Store     storage.Store
	Publisher events.Publisher
	Uploader  media.Uploader
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler builds the routed, middleware-wrapped handler. Tests use it with httptest.
func Handler(cfg config.Config, deps Deps) http.Handler {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL())

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), func(ctx context.Context) error {
		_, err := deps.Store.CountUsers(ctx)
		return err
	}).Register(mux)
	handlers.NewAuthHandler(deps.Store, tokens, publisher, handlers.CookieOptions{
		Path:   cfg.CookiePath,
		Secure: cfg.CookieSecure,
	}).Register(mux)
	handlers.NewUsersHandler(deps.Store, tokens, publisher, deps.Uploader).Register(mux)
	handlers.NewCampaignsHandler(deps.Store, tokens, publisher).Register(mux)

	return middleware.Recover(
		middleware.Tracing(
			middleware.Logging(
				middleware.CORS(cfg.CORSOrigins, mux))))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
