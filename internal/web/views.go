package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
	"github.com/brewandbeans/kaizen/internal/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = []string{
	"home", "menu", "pricing", "success", "subscription_required",
	"auth", "dashboard", "settings", "chat", "not_found",
}

type views struct {
	pages map[string]*template.Template
}

func loadViews() (*views, error) {
	base, err := template.New("layout.html").Funcs(template.FuncMap{
		"money":    formatMoney,
		"date":     formatDate,
		"interval": formatInterval,
	}).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout templates: %w", err)
	}

	v := &views{pages: make(map[string]*template.Template, len(pageTemplates))}
	for _, name := range pageTemplates {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// pageData is what every page template receives
type pageData struct {
	Title       string
	Nav         navData
	User        *reqcontext.User
	Placeholder *gate.Placeholder
	Error       string
	Content     any
}

type navLink struct {
	Name   string
	Href   string
	Active bool
}

// navData drives the navbar and, inside the dashboard, the sidebar
type navData struct {
	Items         []navLink
	ShowAuth      bool
	SignedIn      bool
	ShowDashboard bool
	DashboardLink string
	Sidebar       []navLink
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	t, ok := s.views.pages[name]
	if !ok {
		reqcontext.GetLogger(r.Context()).Errorw("Unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.Nav = s.nav(r)
	data.User = reqcontext.GetUser(r.Context())

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		reqcontext.GetLogger(r.Context()).Errorw("Failed to render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// nav builds the navbar. Auth links follow the auth gate; the dashboard link
// points new visitors at sign-up and unsubscribed users at pricing.
func (s *Server) nav(r *http.Request) navData {
	path := r.URL.Path
	items := []navLink{
		{Name: "Home", Href: "/"},
		{Name: "Menu", Href: "/menu"},
	}
	if gate.NavPricing.Check(s.cfg).Allowed() && s.pages.Has(routes.HandlerPricing) {
		items = append(items, navLink{Name: "Pricing", Href: "/pricing"})
	}
	for i := range items {
		items[i].Active = items[i].Href == path
	}

	user := reqcontext.GetUser(r.Context())
	n := navData{
		Items:         items,
		ShowAuth:      gate.NavAuth.Check(s.cfg).Allowed() && s.pages.Has(routes.HandlerSignIn),
		SignedIn:      user != nil,
		ShowDashboard: s.pages.Has(routes.HandlerDashboard),
		DashboardLink: "/dashboard",
	}

	if n.ShowAuth {
		switch {
		case user == nil:
			n.DashboardLink = "/sign-up"
		case gate.NavPricing.Check(s.cfg).Allowed():
			if active, _ := s.hasActiveSubscription(user.ID); !active {
				n.DashboardLink = "/pricing"
			}
		}
	}

	if strings.HasPrefix(path, "/dashboard") {
		for _, route := range s.pages {
			if route.Layout != routes.LayoutDashboard {
				continue
			}
			n.Sidebar = append(n.Sidebar, navLink{
				Name:   sidebarName(route.Handler),
				Href:   route.Pattern,
				Active: route.Pattern == path,
			})
		}
	}
	return n
}

func sidebarName(handler string) string {
	switch handler {
	case routes.HandlerDashboardSettings:
		return "Settings"
	case routes.HandlerDashboardChat:
		return "Chat"
	default:
		return "Dashboard"
	}
}

// formatMoney renders an amount in minor units, e.g. 1500 usd -> $15.00
func formatMoney(amount int64, currency string) string {
	major := fmt.Sprintf("%d.%02d", amount/100, amount%100)
	switch strings.ToLower(currency) {
	case "", "usd":
		return "$" + major
	case "eur":
		return "€" + major
	case "gbp":
		return "£" + major
	default:
		return major + " " + strings.ToUpper(currency)
	}
}

func formatInterval(interval string) string {
	if interval == "" {
		return ""
	}
	return "/" + interval
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
