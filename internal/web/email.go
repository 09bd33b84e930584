package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/brewandbeans/kaizen/internal/gate"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
)

const (
	msgEmailSent   = "Test email sent successfully!"
	msgEmailFailed = "Failed to send test email. Check your email configuration."
)

var errNoMailer = errors.New("email client is not configured")

type emailTestRequest struct {
	ToEmail string `json:"toEmail"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// handleEmailTest sends the dashboard test email
func (s *Server) handleEmailTest(w http.ResponseWriter, r *http.Request) {
	if d := gate.EmailTest.Check(s.cfg); !d.Allowed() {
		writePlaceholder(w, d)
		return
	}
	if s.cfg.AuthActive() && reqcontext.GetUser(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "Must be authenticated to send test emails")
		return
	}

	var req emailTestRequest
	if err := decodeRequest(r, &req, map[string]*string{
		"toEmail": &req.ToEmail,
		"subject": &req.Subject,
		"message": &req.Message,
	}); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch {
	case req.ToEmail == "":
		writeError(w, http.StatusBadRequest, "Please enter an email address")
		return
	case !integrations.ValidEmail(req.ToEmail):
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	out := gate.Run(r.Context(), gate.EmailTest, s.cfg, func(ctx context.Context) (string, error) {
		if s.deps.Mailer == nil {
			return "", errNoMailer
		}
		ctx, end := s.traceIntegration(ctx, "resend", "send_email")
		id, err := s.deps.Mailer.Send(ctx, integrations.TestEmail(s.cfg.Services.Resend, req.ToEmail, req.Subject, req.Message))
		end(err)
		return id, err
	}, s.gateOptions()...)

	switch out.State {
	case gate.Ready:
		reqcontext.GetLogger(r.Context()).Infow("Test email sent", "email_id", out.Value)
		if isFormPost(r) {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		writeSuccess(w, map[string]string{"id": out.Value, "message": msgEmailSent})
	case gate.Error:
		writeIntegrationError(w, r, out.Err, msgEmailFailed)
	default:
		writePlaceholder(w, out.Decision)
	}
}
