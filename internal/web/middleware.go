package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
	"github.com/brewandbeans/kaizen/internal/routes"
	"github.com/brewandbeans/kaizen/internal/storage"
)

// accessLogMiddleware writes one line per request to the access logger
func (s *Server) accessLogMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			s.accessLog.Info("HTTP request",
				zap.String("request_id", reqcontext.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("status", ww.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("referer", r.Referer()),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps the chat event stream flowing through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// sessionMiddleware attaches the signed-in user when auth is active. An
// invalid or missing token leaves the request anonymous.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AuthActive() || s.deps.Sessions == nil {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.deps.Sessions.VerifyRequest(r)
		if err != nil {
			if !errors.Is(err, integrations.ErrNoSessionToken) {
				reqcontext.GetLogger(r.Context()).Debugw("Session rejected", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := reqcontext.WithUser(r.Context(), &reqcontext.User{
			ID:    session.UserID,
			Email: session.Email,
			Name:  session.Name,
		})
		ctx = reqcontext.WithLogger(ctx, reqcontext.GetLogger(ctx).With("user_id", session.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestDeadline applies requestTimeout to every request except chat, whose
// stream lasts as long as the client stays connected. The chat client bounds
// its own calls.
func (s *Server) requestDeadline(next http.Handler) http.Handler {
	bounded := middleware.Timeout(requestTimeout)(next)
	chat := make(map[string]bool)
	for _, e := range s.api {
		if e.Handler == routes.APIChat {
			chat[e.Pattern] = true
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && chat[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		bounded.ServeHTTP(w, r)
	})
}

// dashboardLayout guards the dashboard group: with auth active a user must be
// signed in, and with payments and the backend active that user needs an
// active subscription. The subscription check only runs while
// /subscription-required is mounted to redirect to.
func (s *Server) dashboardLayout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := reqcontext.GetUser(r.Context())

		if s.cfg.AuthActive() && user == nil {
			http.Redirect(w, r, "/sign-in", http.StatusFound)
			return
		}

		if s.subscriptionRequired() && user != nil {
			active, err := s.hasActiveSubscription(user.ID)
			if err != nil {
				reqcontext.GetLogger(r.Context()).Errorw("Failed to check subscription", "error", err)
			}
			if !active {
				http.Redirect(w, r, "/subscription-required", http.StatusFound)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) subscriptionRequired() bool {
	return s.cfg.PaymentsActive() && s.cfg.BackendActive() && s.deps.Store != nil &&
		s.pages.Has(routes.HandlerSubscriptionRequired)
}

func (s *Server) hasActiveSubscription(userID string) (bool, error) {
	if s.deps.Store == nil || userID == "" {
		return false, nil
	}
	return s.deps.Store.HasActiveSubscription(userID)
}

// subscriptionFor returns the user's subscription, nil when there is none
func (s *Server) subscriptionFor(userID string) (*storage.SubscriptionRecord, error) {
	if s.deps.Store == nil || userID == "" {
		return nil, nil
	}
	sub, err := s.deps.Store.GetSubscriptionByUser(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

// ensureUser records the signed-in user locally. First-time users get the
// welcome email when email is active.
func (s *Server) ensureUser(ctx context.Context, u *reqcontext.User) {
	if u == nil || s.deps.Store == nil {
		return
	}
	logger := reqcontext.GetLogger(ctx)

	_, err := s.deps.Store.GetUser(u.ID)
	isNew := errors.Is(err, storage.ErrNotFound)

	_, err = s.deps.Store.UpsertUser(u.ID, u.Name, u.Email)
	s.recordStorage("upsert_user", err)
	if err != nil {
		logger.Errorw("Failed to upsert user", "error", err)
		return
	}

	if isNew && u.Email != "" && s.cfg.EmailActive() && s.deps.Mailer != nil {
		name := u.Name
		if name == "" {
			name = "there"
		}
		if _, err := s.deps.Mailer.Send(ctx, integrations.WelcomeEmail(s.cfg.Services.Resend, u.Email, name)); err != nil {
			logger.Warnw("Failed to send welcome email", "error", err)
		}
	}
}

func (s *Server) recordStorage(op string, err error) {
	if s.deps.Observability != nil {
		s.deps.Observability.RecordStorageOperation(op, err)
	}
}

// chatCORS sets the cross-origin headers of the chat endpoint
func (s *Server) chatCORS(h http.Header) {
	origin := s.cfg.FrontendURL
	if origin == "" {
		origin = defaultFrontendURL
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Add("Vary", "Origin")
}

// handleChatPreflight answers CORS preflight for the chat endpoint. Requests
// missing any preflight header get an empty 200.
func (s *Server) handleChatPreflight(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != "" &&
		r.Header.Get("Access-Control-Request-Headers") != "" {
		s.chatCORS(w.Header())
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Max-Age", "86400")
	}
	w.WriteHeader(http.StatusOK)
}
