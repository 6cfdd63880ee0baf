// Package middleware provides the REST surface's bearer-session
// authentication and role-gating HTTP middleware.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/usermgmt"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionValidator authenticates a bearer token into a live session,
// satisfied by *usermgmt.Manager.ValidateSession.
type SessionValidator interface {
	ValidateSession(token string) (usermgmt.Session, error)
}

// GetSession retrieves the authenticated session from ctx, set by
// Authenticate. The second return is false on an unauthenticated route.
func GetSession(ctx context.Context) (usermgmt.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(usermgmt.Session)
	return sess, ok
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authenticate validates the request's bearer token and stores the
// resulting session in the request context. Requests with no or an
// invalid token are rejected with 401.
func Authenticate(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				http.Error(w, `{"error":"authorization header required"}`, http.StatusUnauthorized)
				return
			}
			sess, err := validator.ValidateSession(token)
			if err != nil {
				logger.Debug("session authentication failed",
					logger.Component("restapi"), logger.Err(err))
				http.Error(w, `{"error":"invalid or expired session"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate is like Authenticate but allows the request
// through unauthenticated when no bearer token is present or it fails
// validation. NewRouter mounts no route with it.
func OptionalAuthenticate(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := validator.ValidateSession(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMaintenance blocks any session whose role is not Maintenance,
// gating the mutating endpoints spec's REST table reserves for it. Must
// run after Authenticate.
func RequireMaintenance() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}
			if sess.Role != configstore.RoleMaintenance {
				http.Error(w, `{"error":"maintenance role required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
