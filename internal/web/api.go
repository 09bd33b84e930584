package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
	"github.com/brewandbeans/kaizen/internal/storage"
)

const (
	msgCheckoutFailed = "Failed to create checkout session. Please try again."
	msgPortalFailed   = "Failed to open customer portal. Please try again."
	msgSignInRequired = "Must be signed in"
	timestampLayout   = "2006-01-02T15:04:05.000Z07:00"
)

var errNoSubscription = errors.New("no subscription with a billing customer")

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ts := s.now().UTC().Format(timestampLayout)
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(); err != nil {
			reqcontext.GetLogger(r.Context()).Errorw("Health check failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, healthResponse{
				Status:    "unhealthy",
				Timestamp: ts,
				Error:     "Health check failed",
			})
			return
		}
	}

	version := s.deps.Version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Timestamp: ts, Version: version})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	out := s.loadPlans(r.Context())
	switch out.State {
	case gate.Ready:
		writeSuccess(w, GatedData{State: out.State.String(), Value: s.planCards(r, out.Value)})
	case gate.Error:
		writeIntegrationError(w, r, out.Err, msgPlansFailed)
	default:
		writePlaceholder(w, out.Decision)
	}
}

type subscriptionResponse struct {
	HasActiveSubscription bool                        `json:"hasActiveSubscription"`
	Subscription          *storage.SubscriptionRecord `json:"subscription,omitempty"`
}

func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	user := reqcontext.GetUser(r.Context())
	out := gate.Run(r.Context(), gate.SubscriptionStatus, s.cfg, func(context.Context) (subscriptionResponse, error) {
		if user == nil {
			return subscriptionResponse{}, nil
		}
		sub, err := s.subscriptionFor(user.ID)
		return subscriptionResponse{HasActiveSubscription: sub.IsActive(), Subscription: sub}, err
	}, s.gateOptions()...)

	switch out.State {
	case gate.Ready:
		writeSuccess(w, GatedData{State: out.State.String(), Value: out.Value})
	case gate.Error:
		reqcontext.GetLogger(r.Context()).Errorw("Failed to load subscription", "error", out.Err)
		writeError(w, http.StatusInternalServerError, msgSubscriptionFailed)
	default:
		writePlaceholder(w, out.Decision)
	}
}

// handleCheckout starts a checkout for the posted price. A user who already
// has an active subscription is sent to the customer portal instead.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if d := gate.Pricing.Check(s.cfg); !d.Allowed() {
		s.answerUnavailable(w, r, d)
		return
	}

	var req struct {
		PriceID string `json:"priceId"`
	}
	if err := decodeRequest(r, &req, map[string]*string{"priceId": &req.PriceID}); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.PriceID) == "" {
		writeError(w, http.StatusBadRequest, "priceId is required")
		return
	}

	user := reqcontext.GetUser(r.Context())
	if s.cfg.AuthActive() && user == nil {
		s.answerSignIn(w, r)
		return
	}

	out := gate.Run(r.Context(), gate.Pricing, s.cfg, func(ctx context.Context) (string, error) {
		if s.deps.Billing == nil {
			return "", errNoBilling
		}
		checkout := integrations.CheckoutRequest{
			PriceID:    req.PriceID,
			SuccessURL: s.siteURL(r) + "/success",
		}
		if user != nil {
			s.ensureUser(ctx, user)
			sub, err := s.subscriptionFor(user.ID)
			if err != nil {
				return "", err
			}
			if sub.IsActive() && sub.CustomerID != "" {
				ctx, end := s.traceIntegration(ctx, "polar", "customer_portal")
				url, err := s.deps.Billing.CustomerPortalURL(ctx, sub.CustomerID)
				end(err)
				return url, err
			}
			checkout.UserID = user.ID
			checkout.CustomerEmail = user.Email
		}
		ctx, end := s.traceIntegration(ctx, "polar", "create_checkout")
		url, err := s.deps.Billing.CreateCheckout(ctx, checkout)
		end(err)
		return url, err
	}, s.gateOptions()...)

	s.answerRedirect(w, r, out, msgCheckoutFailed)
}

// handlePortal opens the billing provider's customer portal
func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	if d := gate.CustomerPortal.Check(s.cfg); !d.Allowed() {
		s.answerUnavailable(w, r, d)
		return
	}

	user := reqcontext.GetUser(r.Context())
	if user == nil {
		s.answerSignIn(w, r)
		return
	}

	out := gate.Run(r.Context(), gate.CustomerPortal, s.cfg, func(ctx context.Context) (string, error) {
		if s.deps.Billing == nil {
			return "", errNoBilling
		}
		sub, err := s.subscriptionFor(user.ID)
		if err != nil {
			return "", err
		}
		if sub == nil || sub.CustomerID == "" {
			return "", errNoSubscription
		}
		ctx, end := s.traceIntegration(ctx, "polar", "customer_portal")
		url, err := s.deps.Billing.CustomerPortalURL(ctx, sub.CustomerID)
		end(err)
		return url, err
	}, s.gateOptions()...)

	if errors.Is(out.Err, errNoSubscription) {
		writeError(w, http.StatusNotFound, "No subscription found")
		return
	}
	s.answerRedirect(w, r, out, msgPortalFailed)
}

// answerRedirect sends form posts to the URL and scripts the URL as JSON
func (s *Server) answerRedirect(w http.ResponseWriter, r *http.Request, out gate.Outcome[string], failure string) {
	switch out.State {
	case gate.Ready:
		if isFormPost(r) {
			http.Redirect(w, r, out.Value, http.StatusSeeOther)
			return
		}
		writeSuccess(w, map[string]string{"url": out.Value})
	case gate.Error:
		writeIntegrationError(w, r, out.Err, failure)
	default:
		s.answerUnavailable(w, r, out.Decision)
	}
}

func (s *Server) answerUnavailable(w http.ResponseWriter, r *http.Request, d gate.Decision) {
	if isFormPost(r) {
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}
	writePlaceholder(w, d)
}

func (s *Server) answerSignIn(w http.ResponseWriter, r *http.Request) {
	if isFormPost(r) {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}
	writeError(w, http.StatusUnauthorized, msgSignInRequired)
}

// siteURL is the public origin: FRONTEND_URL, else the request's own
func (s *Server) siteURL(r *http.Request) string {
	if s.cfg.FrontendURL != "" {
		return strings.TrimRight(s.cfg.FrontendURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
