package logs

import (
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// SecretSanitizer wraps a zapcore.Core and masks provider credentials
type SecretSanitizer struct {
	zapcore.Core
	patterns []*secretPattern
	resolved *sync.Map
}

type secretPattern struct {
	name     string
	regex    *regexp.Regexp
	maskFunc func(string) string
}

func prefixMask(keep int) func(string) string {
	return func(s string) string {
		if len(s) <= keep+2 {
			return "****"
		}
		return s[:keep] + "***" + s[len(s)-2:]
	}
}

var defaultPatterns = []*secretPattern{
	// Clerk secret keys: sk_live_..., sk_test_...
	{name: "clerk_secret", regex: regexp.MustCompile(`\b(sk_(?:live|test)_[A-Za-z0-9]{16,})\b`), maskFunc: prefixMask(8)},
	// OpenAI keys: sk-..., sk-proj-...
	{name: "openai_key", regex: regexp.MustCompile(`\b(sk-[A-Za-z0-9\-_]{20,})\b`), maskFunc: prefixMask(5)},
	// Polar organization access tokens
	{name: "polar_token", regex: regexp.MustCompile(`\b(polar_[a-z]{2,4}_[A-Za-z0-9]{16,})\b`), maskFunc: prefixMask(10)},
	// Resend API keys
	{name: "resend_key", regex: regexp.MustCompile(`\b(re_[A-Za-z0-9_]{16,})\b`), maskFunc: prefixMask(3)},
	// Webhook signing secrets
	{name: "whsec", regex: regexp.MustCompile(`\b(whsec_[A-Za-z0-9+/=]{16,})\b`), maskFunc: prefixMask(6)},
	{
		name:  "bearer_token",
		regex: regexp.MustCompile(`\b(Bearer\s+[A-Za-z0-9\-\._~\+\/]+=*)`),
		maskFunc: func(token string) string {
			parts := strings.SplitN(token, " ", 2)
			if len(parts) != 2 || len(parts[1]) <= 4 {
				return "Bearer ****"
			}
			return "Bearer " + parts[1][:4] + "***" + parts[1][len(parts[1])-2:]
		},
	},
	{
		name:  "jwt",
		regex: regexp.MustCompile(`\b(eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]{4,})`),
		maskFunc: func(jwt string) string {
			parts := strings.Split(jwt, ".")
			if len(parts) != 3 {
				return "****"
			}
			return parts[0] + ".***." + parts[2][len(parts[2])-4:]
		},
	},
}

// NewSecretSanitizer creates a new sanitizing core that wraps the provided core
func NewSecretSanitizer(core zapcore.Core) *SecretSanitizer {
	return &SecretSanitizer{
		Core:     core,
		patterns: defaultPatterns,
		resolved: &sync.Map{},
	}
}

// RegisterResolvedSecret masks an exact value wherever it appears. Values
// shorter than eight characters are ignored.
func (s *SecretSanitizer) RegisterResolvedSecret(value string) {
	if len(value) < 8 {
		return
	}
	s.resolved.Store(value, true)
}

func (s *SecretSanitizer) sanitizeString(str string) string {
	result := str
	s.resolved.Range(func(key, _ interface{}) bool {
		if secret, ok := key.(string); ok {
			result = strings.ReplaceAll(result, secret, maskValue(secret))
		}
		return true
	})
	for _, pattern := range s.patterns {
		result = pattern.regex.ReplaceAllStringFunc(result, pattern.maskFunc)
	}
	return result
}

// Write sanitizes the entry before writing
func (s *SecretSanitizer) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = s.sanitizeString(entry.Message)
	return s.Core.Write(entry, s.sanitizeFields(fields))
}

func (s *SecretSanitizer) sanitizeFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, field := range fields {
		out[i] = s.sanitizeField(field)
	}
	return out
}

func (s *SecretSanitizer) sanitizeField(field zapcore.Field) zapcore.Field {
	switch field.Type {
	case zapcore.StringType:
		field.String = s.sanitizeString(field.String)
	case zapcore.ByteStringType:
		if b, ok := field.Interface.([]byte); ok {
			field.Interface = []byte(s.sanitizeString(string(b)))
		}
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			original := err.Error()
			if sanitized := s.sanitizeString(original); sanitized != original {
				field = zapcore.Field{Key: field.Key, Type: zapcore.StringType, String: sanitized}
			}
		}
	case zapcore.StringerType, zapcore.ReflectType:
		if stringer, ok := field.Interface.(interface{ String() string }); ok {
			original := stringer.String()
			if sanitized := s.sanitizeString(original); sanitized != original {
				field = zapcore.Field{Key: field.Key, Type: zapcore.StringType, String: sanitized}
			}
		}
	}
	return field
}

// With creates a sanitizing child core
func (s *SecretSanitizer) With(fields []zapcore.Field) zapcore.Core {
	return &SecretSanitizer{
		Core:     s.Core.With(s.sanitizeFields(fields)),
		patterns: s.patterns,
		resolved: s.resolved,
	}
}

// Check delegates to the wrapped core
func (s *SecretSanitizer) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, s)
	}
	return checkedEntry
}

// maskValue shows the first 3 and last 2 characters
func maskValue(value string) string {
	if len(value) <= 5 {
		return "****"
	}
	if len(value) <= 8 {
		return value[:2] + "****"
	}
	return value[:3] + "***" + value[len(value)-2:]
}
