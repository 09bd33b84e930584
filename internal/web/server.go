// Package web serves the site: page routes from the route table, the JSON
// API and the inbound webhooks. Every integration-backed view goes through a
// gate before it calls out.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/brewandbeans/kaizen/internal/config"
	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/observability"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
	"github.com/brewandbeans/kaizen/internal/routes"
	"github.com/brewandbeans/kaizen/internal/storage"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20

	defaultFrontendURL = "http://localhost:5173"
)

// Store is the local user and subscription store
type Store interface {
	Ping() error
	GetUser(id string) (*storage.UserRecord, error)
	UpsertUser(id, name, email string) (*storage.UserRecord, error)
	SaveSubscription(record *storage.SubscriptionRecord) error
	GetSubscriptionByUser(userID string) (*storage.SubscriptionRecord, error)
	FindSubscriptionByCustomer(customerID string) (*storage.SubscriptionRecord, error)
	HasActiveSubscription(userID string) (bool, error)
	SaveEmailEvent(record *storage.EmailEventRecord) error
	ListEmailEvents(limit int) ([]*storage.EmailEventRecord, error)
}

// Billing is the subscription billing provider
type Billing interface {
	ListPlans(ctx context.Context) ([]integrations.Plan, error)
	CreateCheckout(ctx context.Context, r integrations.CheckoutRequest) (string, error)
	CustomerPortalURL(ctx context.Context, customerID string) (string, error)
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, e integrations.Email) (string, error)
}

// ChatModel produces chat completions
type ChatModel interface {
	Complete(ctx context.Context, msgs []integrations.ChatMessage) (string, error)
	Stream(ctx context.Context, msgs []integrations.ChatMessage, onDelta func(string) error) (string, error)
}

// MonitorCreator registers uptime monitors
type MonitorCreator interface {
	CreateMonitor(ctx context.Context, name, url, description string) (json.RawMessage, error)
}

// SessionVerifier resolves the signed-in user of a request
type SessionVerifier interface {
	VerifyRequest(r *http.Request) (*integrations.Session, error)
}

// Deps are the collaborators of the server. Any of them may be nil when the
// backing service is off; the gates keep nil collaborators from being called.
type Deps struct {
	Store         Store
	Billing       Billing
	Mailer        Mailer
	Chat          ChatModel
	Monitors      MonitorCreator
	Sessions      SessionVerifier
	Observability *observability.Manager
	AccessLog     *zap.Logger
	Version       string
}

// Server is the site HTTP server
type Server struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	accessLog *zap.Logger
	deps      Deps
	router    *chi.Mux
	pages     routes.Table
	api       []routes.Endpoint
	views     *views
	now       func() time.Time
}

// NewServer builds the router from the route tables of cfg
func NewServer(cfg *config.Config, logger *zap.SugaredLogger, deps Deps) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = logger.Desugar().Named("http")
	}

	v, err := loadViews()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		accessLog: accessLog,
		deps:      deps,
		router:    chi.NewRouter(),
		pages:     routes.Build(cfg),
		api:       routes.BuildAPI(cfg),
		views:     v,
		now:       time.Now,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Pages returns the mounted page table
func (s *Server) Pages() routes.Table {
	return s.pages
}

// Endpoints returns the mounted API endpoints
func (s *Server) Endpoints() []routes.Endpoint {
	return s.api
}

func (s *Server) setupRoutes() error {
	r := s.router

	r.Use(reqcontext.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(reqcontext.LoggerMiddleware(s.logger))
	r.Use(s.accessLogMiddleware())
	if obs := s.deps.Observability; obs != nil {
		r.Use(obs.HTTPMiddleware())
	}
	r.Use(middleware.Recoverer)
	r.Use(s.requestDeadline)
	r.Use(s.sessionMiddleware)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	if obs := s.deps.Observability; obs != nil {
		obs.Mount(r)
	}

	r.Get("/menu", s.handleMenu)
	for _, e := range s.api {
		if e.Handler == routes.APIChat {
			r.Options(e.Pattern, s.handleChatPreflight)
		}
	}

	if err := routes.Mount(r, s.pages, s.pageRegistry()); err != nil {
		return fmt.Errorf("failed to mount page routes: %w", err)
	}
	if err := routes.MountAPI(r, s.api, s.apiRegistry()); err != nil {
		return fmt.Errorf("failed to mount API routes: %w", err)
	}

	s.logger.Debugw("Routes mounted",
		"pages", s.pages.Patterns(),
		"api_endpoints", len(s.api))
	return nil
}

func (s *Server) pageRegistry() *routes.Registry {
	return routes.NewRegistry().
		HandleFunc(routes.HandlerHome, s.handleHome).
		HandleFunc(routes.HandlerSignIn, s.handleSignIn).
		HandleFunc(routes.HandlerSignUp, s.handleSignUp).
		HandleFunc(routes.HandlerPricing, s.handlePricing).
		HandleFunc(routes.HandlerSuccess, s.handleSuccess).
		HandleFunc(routes.HandlerSubscriptionRequired, s.handleSubscriptionRequired).
		HandleFunc(routes.HandlerDashboard, s.handleDashboard).
		HandleFunc(routes.HandlerDashboardSettings, s.handleSettings).
		HandleFunc(routes.HandlerDashboardChat, s.handleChatPage).
		Layout(routes.LayoutDashboard, s.dashboardLayout)
}

func (s *Server) apiRegistry() *routes.Registry {
	return routes.NewRegistry().
		HandleFunc(routes.APIHealth, s.handleHealth).
		HandleFunc(routes.APISentryWebhook, s.handleSentryWebhook).
		HandleFunc(routes.APIPlans, s.handlePlans).
		HandleFunc(routes.APICheckout, s.handleCheckout).
		HandleFunc(routes.APIPortal, s.handlePortal).
		HandleFunc(routes.APISubscription, s.handleSubscription).
		HandleFunc(routes.APIPolarWebhook, s.handlePolarWebhook).
		HandleFunc(routes.APIEmailTest, s.handleEmailTest).
		HandleFunc(routes.APIResendWebhook, s.handleResendWebhook).
		HandleFunc(routes.APIChat, s.handleChat)
}

// gateOptions reports gate outcomes to metrics when observability is on
func (s *Server) gateOptions() []gate.Option {
	if s.deps.Observability == nil {
		return nil
	}
	return []gate.Option{gate.WithRecorder(s.deps.Observability)}
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Site server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down site server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
