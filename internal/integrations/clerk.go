package integrations

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brewandbeans/kaizen/internal/config"
)

// SessionCookie is the identity provider's session token cookie
const SessionCookie = "__session"

var (
	ErrNoSessionToken  = errors.New("no session token")
	ErrNoVerifyKey     = errors.New("identity provider JWT key is not configured")
	ErrInvalidSession  = errors.New("invalid session token")
	sessionLeeway      = 5 * time.Second
	sessionSigningAlgs = []string{jwt.SigningMethodRS256.Alg()}
)

// SessionClaims are the claims of a session token. Email and name are only
// present when the session token template adds them.
type SessionClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
}

// Session is a verified signed-in user
type Session struct {
	UserID string
	Email  string
	Name   string
}

// ClerkVerifier verifies networkless session tokens with the instance's PEM key
type ClerkVerifier struct {
	key            any
	authorizedURLs []string
}

// NewClerkVerifier parses cfg.JWTKey. authorizedParties, when given, restricts
// the azp claim (usually the site origin).
func NewClerkVerifier(cfg *config.ClerkConfig, authorizedParties ...string) (*ClerkVerifier, error) {
	if cfg == nil || strings.TrimSpace(cfg.JWTKey) == "" {
		return nil, ErrNoVerifyKey
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(normalizePEM(cfg.JWTKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity provider JWT key: %w", err)
	}
	return &ClerkVerifier{key: key, authorizedURLs: authorizedParties}, nil
}

// Verify checks signature, expiry and authorized party
func (v *ClerkVerifier) Verify(token string) (*Session, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, jwt.WithValidMethods(sessionSigningAlgs), jwt.WithLeeway(sessionLeeway), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	if len(v.authorizedURLs) > 0 && claims.AuthorizedParty != "" && !slices.Contains(v.authorizedURLs, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: unauthorized party %q", ErrInvalidSession, claims.AuthorizedParty)
	}
	return &Session{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// VerifyRequest reads the token from the Authorization header or the session cookie
func (v *ClerkVerifier) VerifyRequest(r *http.Request) (*Session, error) {
	token := SessionToken(r)
	if token == "" {
		return nil, ErrNoSessionToken
	}
	return v.Verify(token)
}

// SessionToken extracts the raw session token from a request
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// normalizePEM restores newlines in keys pasted into a single env line
func normalizePEM(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), `\n`, "\n")
}
