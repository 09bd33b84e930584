package integrations

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeaders(prefix, secret, id string, ts time.Time, body []byte) http.Header {
	h := http.Header{}
	h.Set(prefix+"id", id)
	h.Set(prefix+"timestamp", strconv.FormatInt(ts.Unix(), 10))
	h.Set(prefix+"signature", "v1,"+SignWebhook(secret, id, ts, body))
	return h
}

func TestVerifyWebhook(t *testing.T) {
	now := time.Now()
	body := []byte(`{"type":"subscription.active"}`)
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("super-secret-key"))

	t.Run("billing headers", func(t *testing.T) {
		h := signedHeaders("webhook-", secret, "msg_1", now, body)
		assert.NoError(t, VerifyWebhook(secret, h, body, now))
	})

	t.Run("email headers", func(t *testing.T) {
		h := signedHeaders("svix-", secret, "msg_2", now, body)
		assert.NoError(t, VerifyWebhook(secret, h, body, now))
	})

	t.Run("raw secret", func(t *testing.T) {
		h := signedHeaders("webhook-", "plain-secret", "msg_3", now, body)
		assert.NoError(t, VerifyWebhook("plain-secret", h, body, now))
	})

	t.Run("multiple signatures", func(t *testing.T) {
		h := signedHeaders("webhook-", secret, "msg_4", now, body)
		h.Set("webhook-signature", "v1,bogus v2,ignored "+h.Get("webhook-signature"))
		assert.NoError(t, VerifyWebhook(secret, h, body, now))
	})

	t.Run("tampered body", func(t *testing.T) {
		h := signedHeaders("webhook-", secret, "msg_5", now, body)
		assert.ErrorIs(t, VerifyWebhook(secret, h, []byte(`{"type":"x"}`), now), ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		h := signedHeaders("webhook-", "other", "msg_6", now, body)
		assert.ErrorIs(t, VerifyWebhook(secret, h, body, now), ErrInvalidSignature)
	})

	t.Run("stale", func(t *testing.T) {
		old := now.Add(-10 * time.Minute)
		h := signedHeaders("webhook-", secret, "msg_7", old, body)
		assert.ErrorIs(t, VerifyWebhook(secret, h, body, now), ErrStaleWebhook)
	})

	t.Run("missing headers", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhook(secret, http.Header{}, body, now), ErrMissingSignature)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		h := signedHeaders("webhook-", secret, "msg_8", now, body)
		h.Set("webhook-timestamp", "yesterday")
		err := VerifyWebhook(secret, h, body, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid webhook timestamp")
	})
}
