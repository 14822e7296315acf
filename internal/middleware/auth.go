package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/services"
)

type contextKey string

const userKey contextKey = "currentUser"

// IdentityResolver turns a bearer token into the current account
type IdentityResolver interface {
	ResolveCurrentUser(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth validates the bearer token and reloads the account on every
// request, so blocking or deleting a user takes effect immediately.
func RequireAuth(auth IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			user, err := auth.ResolveCurrentUser(r.Context(), strings.TrimSpace(token))
			if err != nil {
				switch {
				case errors.Is(err, services.ErrNotFound):
					writeError(w, http.StatusNotFound, "User not found")
				case errors.Is(err, services.ErrUnauthenticated):
					writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				default:
					writeError(w, http.StatusInternalServerError, "Server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores the authenticated account in ctx
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the account set by RequireAuth, or nil
func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
