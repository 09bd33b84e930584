package reqcontext

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestIsValidRequestID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"UUID format", "a1b2c3d4-e5f6-7890-abcd-ef1234567890", true},
		{"Simple alphanumeric", "abc123", true},
		{"With underscores", "checkout_123", true},
		{"Single character", "x", true},
		{"Max length", strings.Repeat("a", 256), true},

		{"Empty string", "", false},
		{"Too long", strings.Repeat("a", 257), false},
		{"Contains space", "request 123", false},
		{"Contains angle brackets", "<script>", false},
		{"Contains slash", "dashboard/chat", false},
		{"Contains newline", "abc\nINFO forged", false},
		{"Unicode characters", "café", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidRequestID(tt.id))
		})
	}
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.True(t, IsValidRequestID(id))
	assert.NotEqual(t, id, GenerateRequestID())
}

func TestGetOrGenerateRequestID(t *testing.T) {
	assert.Equal(t, "my-request-123", GetOrGenerateRequestID("my-request-123"))

	for _, bad := range []string{"", "invalid spaces", strings.Repeat("a", 300), "<script>alert(1)</script>"} {
		got := GetOrGenerateRequestID(bad)
		assert.True(t, IsValidRequestID(got), bad)
		assert.NotEqual(t, bad, got)
	}
}

func TestGetOrGenerateRequestIDProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		provided := rapid.String().Draw(t, "provided")
		got := GetOrGenerateRequestID(provided)
		if !IsValidRequestID(got) {
			t.Fatalf("invalid request id %q for input %q", got, provided)
		}
		if IsValidRequestID(provided) && got != provided {
			t.Fatalf("valid id %q was replaced by %q", provided, got)
		}
	})
}

func BenchmarkIsValidRequestID(b *testing.B) {
	id := "a1b2c3d4-e5f6-7890-abcd-ef1234567890"
	for i := 0; i < b.N; i++ {
		IsValidRequestID(id)
	}
}
