package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminSecret = "admin-secret"

func adminToken(t *testing.T, method jwt.SigningMethod, key any, role string, expires time.Duration) string {
	t.Helper()
	claims := AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expires)),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestAdminJWTRejections(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		header  string
		status  int
		message string
	}{
		{"admin api disabled", "", "Bearer anything", http.StatusUnauthorized, "admin auth disabled"},
		{"no header", adminSecret, "", http.StatusUnauthorized, "missing authorization header"},
		{"basic auth", adminSecret, "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "missing authorization header"},
		{"garbage token", adminSecret, "Bearer not.a.jwt", http.StatusUnauthorized, "invalid token"},
		{"wrong key", adminSecret, "Bearer " + adminToken(t, jwt.SigningMethodHS256, []byte("other"), AdminRole, time.Hour), http.StatusUnauthorized, "invalid token"},
		{"expired", adminSecret, "Bearer " + adminToken(t, jwt.SigningMethodHS256, []byte(adminSecret), AdminRole, -time.Minute), http.StatusUnauthorized, "invalid token"},
		{"unsigned", adminSecret, "Bearer " + adminToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, AdminRole, time.Hour), http.StatusUnauthorized, "invalid token"},
		{"viewer role", adminSecret, "Bearer " + adminToken(t, jwt.SigningMethodHS256, []byte(adminSecret), "viewer", time.Hour), http.StatusForbidden, "admin role required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AdminJWT(tt.secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodPut, "/admin/emergency-contact", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestAdminJWTStoresClaims(t *testing.T) {
	var (
		claims AdminClaims
		ok     bool
	)
	handler := AdminJWT(adminSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok = AdminClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/emergency-contact", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, jwt.SigningMethodHS256, []byte(adminSecret), AdminRole, time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, ok)
	assert.Equal(t, AdminRole, claims.Role)
	assert.Equal(t, "ops-1", claims.Subject)
}

func TestAdminClaimsFromEmptyContext(t *testing.T) {
	_, ok := AdminClaimsFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
