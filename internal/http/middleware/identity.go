package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDHeader carries the caller id set by the account service.
const UserIDHeader = "X-User-Id"

var errMissingBearer = errors.New("missing bearer token")

// UserIdentity resolves the caller and stores it in the request context. With
// an empty secret the X-User-Id header is trusted; otherwise an HS256 bearer
// token is required and its subject is the user id. Requests without a usable
// identity pass through unauthenticated and are rejected by the handler.
func UserIdentity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				id int64
				ok bool
			)
			if secret == "" {
				id, ok = parseUserID(r.Header.Get(UserIDHeader))
			} else {
				claims := jwt.RegisteredClaims{}
				if err := parseBearer(r, secret, &claims); err == nil {
					id, ok = parseUserID(claims.Subject)
				}
			}
			if ok {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns ctx carrying an authenticated user id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated user id if present.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func parseUserID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseBearer validates an HMAC-signed bearer token into claims.
func parseBearer(r *http.Request, secret string, claims jwt.Claims) error {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return errMissingBearer
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
