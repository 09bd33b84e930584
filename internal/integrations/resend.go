package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/brewandbeans/kaizen/internal/config"
	"github.com/brewandbeans/kaizen/internal/storage"
)

// ResendURL is the email provider endpoint
const ResendURL = "https://api.resend.com"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidRecipient is returned for malformed recipient addresses
var ErrInvalidRecipient = errors.New("invalid recipient email address")

// ValidEmail reports whether addr looks like a deliverable address
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(strings.TrimSpace(addr))
}

// Email is one transactional message
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// TestEmail builds the dashboard test message. Empty subject and message
// fall back to the company-branded defaults.
func TestEmail(cfg *config.ResendConfig, to, subject, message string) Email {
	company := cfg.Company()
	if strings.TrimSpace(subject) == "" {
		subject = "Test Email from " + company
	}
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("<h1>Test Email</h1><p>This is a test email sent from your %s application!</p>"+
			"<p>If you received this, your email configuration is working correctly.</p>", company)
	}
	return Email{
		From:    cfg.Sender(),
		To:      []string{strings.TrimSpace(to)},
		Subject: subject,
		HTML:    message,
	}
}

// WelcomeEmail builds the message sent to newly registered users
func WelcomeEmail(cfg *config.ResendConfig, to, name string) Email {
	company := cfg.Company()
	return Email{
		From:    cfg.Sender(),
		To:      []string{to},
		Subject: fmt.Sprintf("Welcome to %s, %s!", company, name),
		HTML:    fmt.Sprintf("<h1>Welcome aboard, %s!</h1><p>We're excited to have you with us at %s.</p>", name, company),
	}
}

// ResendClient sends email
type ResendClient struct {
	*client
}

// NewResend creates an email client
func NewResend(cfg *config.ResendConfig, opts ...Option) *ResendClient {
	return &ResendClient{client: newClient("resend", ResendURL, bearer(cfg.APIKey), opts)}
}

// Send delivers the message and returns the provider's email ID
func (c *ResendClient) Send(ctx context.Context, e Email) (string, error) {
	if len(e.To) == 0 {
		return "", ErrInvalidRecipient
	}
	for _, to := range e.To {
		if !ValidEmail(to) {
			return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
		}
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/emails", e, &resp); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return resp.ID, nil
}

// ParseEmailEvent converts an email provider webhook into a storable event
func ParseEmailEvent(body []byte) (*storage.EmailEventRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("webhook body is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	typ := doc.Get("type").String()
	if typ == "" {
		return nil, errors.New("webhook has no event type")
	}

	ev := &storage.EmailEventRecord{
		Type:    typ,
		EmailID: doc.Get("data.email_id").String(),
		Subject: doc.Get("data.subject").String(),
		Payload: append([]byte(nil), body...),
	}
	doc.Get("data.to").ForEach(func(_, v gjson.Result) bool {
		ev.To = append(ev.To, v.String())
		return true
	})
	if at := jsonTime(doc.Get("created_at")); at != nil {
		ev.Received = *at
	} else {
		ev.Received = time.Now().UTC()
	}
	return ev, nil
}
