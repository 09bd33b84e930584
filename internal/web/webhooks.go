package web

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/reqcontext"
)

// traceWebhook opens a webhook span; done counts the delivery and closes it
func (s *Server) traceWebhook(ctx context.Context, source, eventType string) (context.Context, func(error)) {
	obs := s.deps.Observability
	if obs == nil {
		return ctx, func(error) {}
	}
	ctx, end := obs.Tracing().Webhook(ctx, source, eventType)
	return ctx, func(err error) {
		obs.RecordWebhook(source, err)
		end(err)
	}
}

// verifySignature checks the signature when a secret is configured
func (s *Server) verifySignature(secret string, r *http.Request, body []byte) error {
	if secret == "" {
		return nil
	}
	return integrations.VerifyWebhook(secret, r.Header, body, s.now())
}

// handlePolarWebhook stores subscription changes pushed by the billing provider
func (s *Server) handlePolarWebhook(w http.ResponseWriter, r *http.Request) {
	logger := reqcontext.GetLogger(r.Context())
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	_, done := s.traceWebhook(r.Context(), "polar", gjson.GetBytes(body, "type").String())

	var secret string
	if p := s.cfg.Services.Polar; p != nil {
		secret = p.WebhookSecret
	}
	if err := s.verifySignature(secret, r, body); err != nil {
		done(err)
		logger.Warnw("Rejected billing webhook", "error", err)
		writeError(w, http.StatusForbidden, "Invalid webhook signature")
		return
	}

	ev, err := integrations.ParseSubscriptionEvent(body)
	if err != nil {
		done(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ev.IsSubscriptionEvent() {
		done(nil)
		logger.Debugw("Ignoring billing webhook", "type", ev.Type)
		writeJSON(w, http.StatusAccepted, APIResponse{Success: true})
		return
	}
	if s.deps.Store == nil {
		done(nil)
		writeJSON(w, http.StatusAccepted, APIResponse{Success: true})
		return
	}

	sub := ev.Subscription
	if sub.UserID == "" && sub.CustomerID != "" {
		if prev, err := s.deps.Store.FindSubscriptionByCustomer(sub.CustomerID); err == nil {
			sub.UserID = prev.UserID
		}
	}

	err = s.deps.Store.SaveSubscription(sub)
	s.recordStorage("save_subscription", err)
	done(err)
	if err != nil {
		logger.Errorw("Failed to store subscription", "subscription_id", sub.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store subscription")
		return
	}

	logger.Infow("Subscription updated",
		"type", ev.Type,
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"status", sub.Status)
	writeJSON(w, http.StatusAccepted, APIResponse{Success: true})
}

// handleResendWebhook stores email delivery events
func (s *Server) handleResendWebhook(w http.ResponseWriter, r *http.Request) {
	logger := reqcontext.GetLogger(r.Context())
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	_, done := s.traceWebhook(r.Context(), "resend", gjson.GetBytes(body, "type").String())

	var secret string
	if c := s.cfg.Services.Resend; c != nil {
		secret = c.WebhookSecret
	}
	if err := s.verifySignature(secret, r, body); err != nil {
		done(err)
		logger.Warnw("Rejected email webhook", "error", err)
		writeError(w, http.StatusForbidden, "Invalid webhook signature")
		return
	}

	ev, err := integrations.ParseEmailEvent(body)
	if err != nil {
		done(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.deps.Store != nil {
		err = s.deps.Store.SaveEmailEvent(ev)
		s.recordStorage("save_email_event", err)
		if err != nil {
			done(err)
			logger.Errorw("Failed to store email event", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to store email event")
			return
		}
	}

	done(nil)
	logger.Debugw("Email event received", "type", ev.Type, "email_id", ev.EmailID)
	writeSuccess(w, nil)
}

// handleSentryWebhook turns triggered error alerts into uptime monitors
func (s *Server) handleSentryWebhook(w http.ResponseWriter, r *http.Request) {
	logger := reqcontext.GetLogger(r.Context())
	body, err := readBody(r)
	if err != nil || !gjson.ValidBytes(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	doc := gjson.ParseBytes(body)
	action := doc.Get("action").String()
	ctx, done := s.traceWebhook(r.Context(), "sentry", action)

	if action == "triggered" {
		if s.deps.Monitors == nil {
			logger.Debug("Uptime monitor service is off, alert not relayed")
		} else {
			issue := doc.Get("data.issue")
			ctx, end := s.traceIntegration(ctx, "openstatus", "create_monitor")
			_, err := s.deps.Monitors.CreateMonitor(ctx,
				"Sentry Alert: "+issue.Get("title").String(),
				issue.Get("permalink").String(),
				"Error: "+issue.Get("culprit").String())
			end(err)
			if err != nil {
				done(err)
				logger.Errorw("Failed to create monitor from alert", "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
				return
			}
		}
	}

	done(nil)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
