package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
)

// APIResponse is the envelope of every JSON API answer
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GatedData is returned by API endpoints behind a gate. Disabled and
// misconfigured features are not errors: they answer 200 with a placeholder.
type GatedData struct {
	State       string            `json:"state"`
	Placeholder *gate.Placeholder `json:"placeholder,omitempty"`
	Value       any               `json:"value,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

// writePlaceholder answers a request for a gated feature that is off
func writePlaceholder(w http.ResponseWriter, d gate.Decision) {
	writeSuccess(w, GatedData{State: d.State.String(), Placeholder: d.Placeholder})
}

// writeIntegrationError logs the cause and answers 502 with a user facing message
func writeIntegrationError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logger := reqcontext.GetLogger(r.Context())
	var apiErr *integrations.APIError
	if errors.As(err, &apiErr) {
		logger.Warnw("Integration call failed",
			"service", apiErr.Service,
			"status", apiErr.StatusCode,
			"error", err)
	} else {
		logger.Warnw("Integration call failed", "error", err)
	}
	writeError(w, http.StatusBadGateway, message)
}

// isFormPost reports whether the request came from an HTML form rather than
// a script; form posts are answered with redirects.
func isFormPost(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

// decodeRequest reads a JSON body, or form values for form posts
func decodeRequest(r *http.Request, dst any, fields map[string]*string) error {
	if isFormPost(r) {
		if err := r.ParseForm(); err != nil {
			return err
		}
		for name, ptr := range fields {
			*ptr = strings.TrimSpace(r.PostFormValue(name))
		}
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
