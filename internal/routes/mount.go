package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware wraps a handler, used for layouts
type Middleware func(http.Handler) http.Handler

// Registry resolves handler identifiers to implementations
type Registry struct {
	handlers map[string]http.Handler
	layouts  map[string]Middleware
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]http.Handler),
		layouts:  make(map[string]Middleware),
	}
}

// Handle registers the implementation for a handler identifier
func (r *Registry) Handle(id string, h http.Handler) *Registry {
	r.handlers[id] = h
	return r
}

// HandleFunc registers a handler function
func (r *Registry) HandleFunc(id string, h http.HandlerFunc) *Registry {
	return r.Handle(id, h)
}

// Layout registers the middleware for a layout identifier
func (r *Registry) Layout(id string, mw Middleware) *Registry {
	r.layouts[id] = mw
	return r
}

// Mount registers the page table on the router. Consecutive routes sharing a
// layout are grouped under that layout's middleware. Unknown identifiers are
// reported before anything is registered.
func Mount(router chi.Router, t Table, reg *Registry) error {
	for _, route := range t {
		if _, ok := reg.handlers[route.Handler]; !ok {
			return fmt.Errorf("no handler registered for %s (%s)", route.Handler, route.Pattern)
		}
		if route.Layout != "" {
			if _, ok := reg.layouts[route.Layout]; !ok {
				return fmt.Errorf("no layout registered for %s (%s)", route.Layout, route.Pattern)
			}
		}
	}

	for i := 0; i < len(t); {
		j := i + 1
		for j < len(t) && t[j].Layout == t[i].Layout {
			j++
		}
		group := t[i:j]
		if layout := t[i].Layout; layout != "" {
			mw := reg.layouts[layout]
			router.Group(func(r chi.Router) {
				r.Use(mw)
				for _, route := range group {
					r.Method(http.MethodGet, route.Pattern, reg.handlers[route.Handler])
				}
			})
		} else {
			for _, route := range group {
				router.Method(http.MethodGet, route.Pattern, reg.handlers[route.Handler])
			}
		}
		i = j
	}
	return nil
}

// MountAPI registers the API endpoints on the router
func MountAPI(router chi.Router, endpoints []Endpoint, reg *Registry) error {
	for _, e := range endpoints {
		if _, ok := reg.handlers[e.Handler]; !ok {
			return fmt.Errorf("no handler registered for %s (%s %s)", e.Handler, e.Method, e.Pattern)
		}
	}
	for _, e := range endpoints {
		router.Method(e.Method, e.Pattern, reg.handlers[e.Handler])
	}
	return nil
}
