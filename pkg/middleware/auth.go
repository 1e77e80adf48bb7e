package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Identity reports the user id of the current session, or "" for a guest.
type Identity func(ctx context.Context) string

// Identify stores the current session's user id in the request context so
// logs and handlers can attribute the request.
func Identify(identity Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := identity(r.Context()); id != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the user id stored by Identify.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
