// Package reqcontext carries per-request values (request ID, logger, signed-in
// user) through context.Context.
package reqcontext

import (
	"regexp"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader is echoed on every response
	RequestIDHeader = "X-Request-Id"

	// MaxRequestIDLength bounds client supplied IDs
	MaxRequestIDLength = 256
)

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,256}$`)

// IsValidRequestID accepts 1-256 characters of letters, digits, dashes and
// underscores. Anything else is replaced so it cannot be injected into logs.
func IsValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	return requestIDPattern.MatchString(id)
}

// GenerateRequestID returns a new UUID v4
func GenerateRequestID() string {
	return uuid.New().String()
}

// GetOrGenerateRequestID keeps a valid client ID, otherwise generates one
func GetOrGenerateRequestID(providedID string) string {
	if IsValidRequestID(providedID) {
		return providedID
	}
	return GenerateRequestID()
}
