package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
	"github.com/brewandbeans/kaizen/internal/storage"
)

const (
	msgPlansFailed        = "Failed to load pricing plans. Please try again."
	msgSubscriptionFailed = "Failed to load subscription details. Please try again."
	recentEmailEvents     = 5
)

var errNoBilling = errors.New("billing client is not configured")

type planCard struct {
	Plan    integrations.Plan
	Price   *integrations.Price
	Popular bool
	Current bool
}

type homeView struct {
	ShowPricing bool
	Placeholder *gate.Placeholder
	Error       string
	Plans       []planCard
}

type authView struct {
	Mode           string
	PublishableKey string
	RedirectURL    string
}

type successView struct {
	NeedsSignIn  bool
	Anonymous    bool
	Subscription *storage.SubscriptionRecord
}

type dashboardCard struct {
	Title string
	Value string
	Note  string
}

type emailPanel struct {
	Placeholder *gate.Placeholder
	Events      []*storage.EmailEventRecord
}

type dashboardView struct {
	Cards []dashboardCard
	Email *emailPanel
}

type settingsView struct {
	SignedIn     bool
	Active       bool
	Subscription *storage.SubscriptionRecord
}

type chatView struct {
	Endpoint string
}

// loadPlans runs the pricing gate around the plan list
func (s *Server) loadPlans(ctx context.Context) gate.Outcome[[]integrations.Plan] {
	return gate.Run(ctx, gate.Pricing, s.cfg, func(ctx context.Context) ([]integrations.Plan, error) {
		if s.deps.Billing == nil {
			return nil, errNoBilling
		}
		ctx, end := s.traceIntegration(ctx, "polar", "list_plans")
		plans, err := s.deps.Billing.ListPlans(ctx)
		end(err)
		return plans, err
	}, s.gateOptions()...)
}

// planCards marks the popular plan and the user's current one. With two
// plans the second is popular, otherwise the middle one.
func (s *Server) planCards(r *http.Request, plans []integrations.Plan) []planCard {
	var current *storage.SubscriptionRecord
	if u := reqcontext.GetUser(r.Context()); u != nil {
		if sub, err := s.subscriptionFor(u.ID); err == nil && sub.IsActive() {
			current = sub
		}
	}

	popular := len(plans) / 2
	if len(plans) == 2 {
		popular = 1
	}

	cards := make([]planCard, len(plans))
	for i, p := range plans {
		c := planCard{Plan: p, Popular: i == popular}
		if len(p.Prices) > 0 {
			price := p.Prices[0]
			c.Price = &price
		}
		if current != nil {
			c.Current = current.ProductID == p.ID || (c.Price != nil && current.PriceID == c.Price.ID)
		}
		cards[i] = c
	}
	return cards
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	view := homeView{ShowPricing: gate.NavPricing.Check(s.cfg).Allowed()}
	if view.ShowPricing {
		out := s.loadPlans(r.Context())
		switch out.State {
		case gate.Ready:
			view.Plans = s.planCards(r, out.Value)
		case gate.Error:
			reqcontext.GetLogger(r.Context()).Warnw("Failed to load plans", "error", out.Err)
			view.Error = msgPlansFailed
		default:
			view.Placeholder = out.Placeholder
		}
	}
	s.render(w, r, http.StatusOK, "home", &pageData{Content: view})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "menu", &pageData{Title: "Menu", Content: menu})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	s.renderAuth(w, r, "sign-in", "Sign In")
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	s.renderAuth(w, r, "sign-up", "Sign Up")
}

func (s *Server) renderAuth(w http.ResponseWriter, r *http.Request, mode, title string) {
	view := authView{Mode: mode, RedirectURL: "/dashboard"}
	if c := s.cfg.Services.Clerk; c != nil {
		view.PublishableKey = c.PublishableKey
	}
	s.render(w, r, http.StatusOK, "auth", &pageData{Title: title, Content: view})
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "Pricing"}
	out := s.loadPlans(r.Context())
	switch out.State {
	case gate.Ready:
		data.Content = s.planCards(r, out.Value)
	case gate.Error:
		reqcontext.GetLogger(r.Context()).Warnw("Failed to load plans", "error", out.Err)
		data.Error = msgPlansFailed
	default:
		data.Placeholder = out.Placeholder
	}
	s.render(w, r, http.StatusOK, "pricing", data)
}

func (s *Server) handleSuccess(w http.ResponseWriter, r *http.Request) {
	user := reqcontext.GetUser(r.Context())
	out := gate.Run(r.Context(), gate.Success, s.cfg, func(ctx context.Context) (successView, error) {
		if user == nil {
			if s.cfg.AuthActive() {
				return successView{NeedsSignIn: true}, nil
			}
			return successView{Anonymous: true}, nil
		}
		s.ensureUser(ctx, user)
		sub, err := s.subscriptionFor(user.ID)
		return successView{Subscription: sub}, err
	}, s.gateOptions()...)

	data := &pageData{Title: "Success"}
	switch out.State {
	case gate.Ready:
		data.Content = out.Value
	case gate.Error:
		reqcontext.GetLogger(r.Context()).Errorw("Failed to load subscription", "error", out.Err)
		data.Error = msgSubscriptionFailed
	default:
		data.Placeholder = out.Placeholder
	}
	s.render(w, r, http.StatusOK, "success", data)
}

func (s *Server) handleSubscriptionRequired(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "subscription_required", &pageData{Title: "Subscription Required"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{
		Cards: []dashboardCard{
			{Title: "Features", Value: strconv.Itoa(len(s.cfg.EnabledFeatures())), Note: strings.Join(s.cfg.EnabledFeatures(), ", ")},
			{Title: "Services", Value: strconv.Itoa(len(s.cfg.EnabledServices())), Note: strings.Join(s.cfg.EnabledServices(), ", ")},
		},
	}

	// a disabled email feature omits the form entirely
	switch d := gate.EmailTest.Check(s.cfg); d.State {
	case gate.Disabled:
	case gate.Misconfigured:
		view.Email = &emailPanel{Placeholder: d.Placeholder}
	default:
		panel := &emailPanel{}
		if s.deps.Store != nil {
			events, err := s.deps.Store.ListEmailEvents(recentEmailEvents)
			s.recordStorage("list_email_events", err)
			if err != nil {
				reqcontext.GetLogger(r.Context()).Warnw("Failed to list email events", "error", err)
			}
			panel.Events = events
		}
		view.Email = panel
	}

	s.render(w, r, http.StatusOK, "dashboard", &pageData{Title: "Dashboard", Content: view})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	user := reqcontext.GetUser(r.Context())
	out := gate.Run(r.Context(), gate.SubscriptionStatus, s.cfg, func(context.Context) (settingsView, error) {
		if user == nil {
			return settingsView{}, nil
		}
		sub, err := s.subscriptionFor(user.ID)
		if err != nil {
			return settingsView{}, err
		}
		return settingsView{SignedIn: true, Active: sub.IsActive(), Subscription: sub}, nil
	}, s.gateOptions()...)

	data := &pageData{Title: "Settings"}
	switch out.State {
	case gate.Ready:
		data.Content = out.Value
	case gate.Error:
		reqcontext.GetLogger(r.Context()).Errorw("Failed to load subscription", "error", out.Err)
		data.Error = msgSubscriptionFailed
	default:
		data.Placeholder = out.Placeholder
	}
	s.render(w, r, http.StatusOK, "settings", data)
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	out := gate.Run(r.Context(), gate.Chat, s.cfg, func(context.Context) (chatView, error) {
		return chatView{Endpoint: chatPath}, nil
	}, s.gateOptions()...)

	data := &pageData{Title: "Chat"}
	if out.State == gate.Ready {
		data.Content = out.Value
	} else {
		data.Placeholder = out.Placeholder
	}
	s.render(w, r, http.StatusOK, "chat", data)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.render(w, r, http.StatusNotFound, "not_found", &pageData{Title: "Not Found"})
}

// traceIntegration opens a span for an outbound call; end closes it
func (s *Server) traceIntegration(ctx context.Context, service, op string) (context.Context, func(error)) {
	if s.deps.Observability == nil {
		return ctx, func(error) {}
	}
	ctx, end := s.deps.Observability.Tracing().Integration(ctx, service, op)
	return ctx, end
}
