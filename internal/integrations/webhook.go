package integrations

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// WebhookTolerance is the allowed clock skew for signed webhook timestamps
const WebhookTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("webhook signature headers missing")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrStaleWebhook     = errors.New("webhook timestamp outside tolerance")
)

// VerifyWebhook checks a Standard Webhooks signature, as sent by the billing
// provider ("webhook-*" headers) and the email provider ("svix-*" headers).
// The signed content is "<id>.<timestamp>.<body>"; the signature header holds
// space separated "v1,<base64 hmac-sha256>" entries.
func VerifyWebhook(secret string, h http.Header, body []byte, now time.Time) error {
	id, ts, sigs := webhookHeaders(h, "webhook-")
	if id == "" {
		id, ts, sigs = webhookHeaders(h, "svix-")
	}
	if id == "" || ts == "" || sigs == "" {
		return ErrMissingSignature
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp %q: %w", ts, err)
	}
	sent := time.Unix(sec, 0)
	if now.Sub(sent) > WebhookTolerance || sent.Sub(now) > WebhookTolerance {
		return ErrStaleWebhook
	}

	expected := SignWebhook(secret, id, sent, body)
	for _, entry := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignWebhook returns the base64 v1 signature for a payload
func SignWebhook(secret, id string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, webhookKey(secret))
	fmt.Fprintf(mac, "%s.%d.", id, ts.Unix())
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// webhookKey decodes "whsec_<base64>" secrets; anything else is used raw
func webhookKey(secret string) []byte {
	if rest, ok := strings.CutPrefix(secret, "whsec_"); ok {
		if key, err := base64.StdEncoding.DecodeString(rest); err == nil {
			return key
		}
	}
	return []byte(secret)
}

func webhookHeaders(h http.Header, prefix string) (id, ts, sigs string) {
	return h.Get(prefix + "id"), h.Get(prefix + "timestamp"), h.Get(prefix + "signature")
}
