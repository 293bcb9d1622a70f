package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

const adminClaimsKey contextKey = "adminClaims"

// AdminRole is the role claim admin tokens must carry.
const AdminRole = "admin"

// AdminClaims are the claims of an admin console token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminJWT enforces an HMAC-signed JWT with role=admin for admin endpoints.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, http.StatusUnauthorized, "admin auth disabled")
				return
			}
			claims := AdminClaims{}
			if err := parseBearer(r, secret, &claims); err != nil {
				if errors.Is(err, errMissingBearer) {
					writeError(w, http.StatusUnauthorized, "missing authorization header")
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != AdminRole {
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdminClaims(r.Context(), claims)))
		})
	}
}

// WithAdminClaims stores verified admin claims on ctx.
func WithAdminClaims(ctx context.Context, claims AdminClaims) context.Context {
	return context.WithValue(ctx, adminClaimsKey, claims)
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(AdminClaims)
	return claims, ok
}
