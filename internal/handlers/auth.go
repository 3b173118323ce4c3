package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/dominionwar/dominion/internal/security"
	"github.com/dominionwar/dominion/pkg/errors"
	"github.com/dominionwar/dominion/pkg/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// withAuth authenticates the acting user from the bearer token and applies
// the per-user rate limit before the operation runs.
func (m *Manager) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", utils.GenerateRandomID(16))

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, errors.New(errors.ErrCodeUnauthorized, "missing bearer token"))
			return
		}

		claims, err := security.ValidateJWT(strings.TrimPrefix(header, "Bearer "), m.cfg.JWTSecret)
		if err != nil {
			writeError(w, errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid token"))
			return
		}

		if !m.limiter.Allow(claims.UserID) {
			writeError(w, errors.New(errors.ErrCodeRateLimitExceeded, "too many requests"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

func actingUser(r *http.Request) uint {
	id, _ := r.Context().Value(userIDKey).(uint)
	return id
}
