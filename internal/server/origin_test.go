package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// TestOriginPolicy verifies origin normalization and matching.
func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{" HTTP://LocalHost:8080 ", "not a url", ""}, zap.NewNop())

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"exact", "http://localhost:8080", true},
		{"case insensitive", "http://LOCALHOST:8080", true},
		{"other port", "http://localhost:9090", false},
		{"missing", "", false},
		{"garbage", "::::", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/chat", http.NoBody)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, policy.check(r))
		})
	}
}

// TestOriginPolicyWildcard verifies that "*" admits any origin.
func TestOriginPolicyWildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/chat", http.NoBody)
	r.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, policy.isAllowed(r))
}
