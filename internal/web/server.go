// Package web provides the UniNest JSON HTTP API.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/booking"
	"github.com/uninest/uninest/internal/directory"
	"github.com/uninest/uninest/internal/enrollment"
	"github.com/uninest/uninest/internal/logging"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/review"
	"github.com/uninest/uninest/internal/rules"
	"github.com/uninest/uninest/internal/storage"
	"github.com/uninest/uninest/internal/user"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	sessions auth.Sessions
	files    storage.Backend
}

// WithSessions replaces the SQLite session store, e.g. with Redis.
func WithSessions(s auth.Sessions) Option {
	return func(o *options) { o.sessions = s }
}

// WithFileBackend sets the object store for uploads. The default keeps
// files in memory.
func WithFileBackend(b storage.Backend) Option {
	return func(o *options) { o.files = b }
}

// Server is the API HTTP server.
type Server struct {
	db     *sql.DB
	config auth.Config

	userRepo    *user.Repository
	users       *user.Service
	properties  *property.Service
	reviews     *review.Service
	interests   *booking.Service
	enrollments *enrollment.Service
	files       *storage.Service

	tokens   *auth.TokenStore
	sessions auth.Sessions
	apiKeys  *auth.APIKeyStore
	mailer   *auth.Mailer
	passkeys *passkeyHandlers

	mux     *http.ServeMux
	handler http.Handler
}

// NewServer wires the services over database and registers the routes.
func NewServer(database *sql.DB, cfg auth.Config, opts ...Option) (*Server, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sessions == nil {
		o.sessions = auth.NewSessionStore(database)
	}
	if o.files == nil {
		o.files = storage.NewMemory()
	}

	userRepo := user.NewRepository(database)
	propRepo := property.NewRepository(database)
	engine := rules.NewEngine(directory.New(userRepo, propRepo))
	props := property.NewService(propRepo, engine)
	mailer := auth.NewMailer(cfg)

	s := &Server{
		db:          database,
		config:      cfg,
		userRepo:    userRepo,
		users:       user.NewService(userRepo, propRepo, engine),
		properties:  props,
		reviews:     review.NewService(database, props, engine),
		interests:   booking.NewService(database, props, engine, booking.NewMailNotifier(mailer, userRepo, cfg.BaseURL)),
		enrollments: enrollment.NewService(database, props, engine),
		files:       storage.NewService(o.files),
		tokens:      auth.NewTokenStore(database),
		sessions:    o.sessions,
		apiKeys:     auth.NewAPIKeyStore(database),
		mailer:      mailer,
		mux:         http.NewServeMux(),
	}

	passkeys, err := newPasskeyHandlers(cfg, auth.NewPasskeyStore(database), s.sessions, userRepo)
	if err != nil {
		return nil, fmt.Errorf("initializing passkeys: %w", err)
	}
	s.passkeys = passkeys

	s.routes()
	mw := auth.NewMiddleware(s.sessions, s.apiKeys, userRepo)
	s.handler = logging.RequestLogger(mw.Handler(s.mux))
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/auth/verify", s.handleVerify)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)

	s.mux.HandleFunc("/passkey/register/begin", s.passkeys.handleBeginRegistration)
	s.mux.HandleFunc("/passkey/register/finish", s.passkeys.handleFinishRegistration)
	s.mux.HandleFunc("/passkey/login/begin", s.passkeys.handleBeginLogin)
	s.mux.HandleFunc("/passkey/login/finish", s.passkeys.handleFinishLogin)
	s.mux.HandleFunc("/passkey/credentials", s.passkeys.handleCredentials)
	s.mux.HandleFunc("/passkey/credentials/", s.passkeys.handleCredentials)

	s.mux.HandleFunc("/cli/auth", s.handleCLIAuth)
	s.mux.HandleFunc("/cli/auth/verify", s.handleCLIAuthVerify)
	s.mux.HandleFunc("/cli/auth/complete", s.handleCLIAuthComplete)

	s.mux.HandleFunc("/api/keys", s.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/keys/", s.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/me", s.handleMe)
	s.mux.HandleFunc("/api/me/", s.handleMe)
	s.mux.HandleFunc("/api/users/", s.handleUsers)
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIProperties)
	s.mux.HandleFunc("/api/reviews/", s.handleAPIReviews)
	s.mux.HandleFunc("/api/interests", s.handleAPIInterests)
	s.mux.HandleFunc("/api/interests/", s.handleAPIInterests)
	s.mux.HandleFunc("/api/enrollments", s.handleAPIEnrollments)
	s.mux.HandleFunc("/api/enrollments/", s.handleAPIEnrollments)
	s.mux.HandleFunc("/files/", s.handleFiles)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired tokens and sessions are swept while it runs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx, time.Hour)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "base_url", s.config.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type cleaner interface {
	Cleanup(ctx context.Context) error
}

// sweep removes expired login tokens, and sessions for stores that do not
// expire them on their own, every interval until ctx is done.
func (s *Server) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *Server) cleanup(ctx context.Context) {
	if err := s.tokens.Cleanup(ctx); err != nil {
		slog.Warn("cleaning up tokens", "err", err)
	}
	if c, ok := s.sessions.(cleaner); ok {
		if err := c.Cleanup(ctx); err != nil {
			slog.Warn("cleaning up sessions", "err", err)
		}
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		apiError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	if p, ok := s.sessions.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			slog.Warn("session store unreachable", "err", err)
			apiError(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
