package middleware

import (
	"context"
	"net/http"
	"strings"

	"retiro-api/internal/config"
	"retiro-api/internal/utils"
)

type ctxKey string

const (
	CtxUserID   ctxKey = "uid"
	CtxUsername ctxKey = "username"
	CtxRole     ctxKey = "role"
)

// WithAuth reads a bearer token when present and stashes the claims in the
// request context. Unauthenticated requests pass through; the Require*
// middlewares decide what needs a user.
func WithAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tok string
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := utils.ParseJWT(cfg.SessionSecret, tok)
			if err != nil {
				// expired/broken token: treat as anonymous
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, claims.UserID)
			ctx = context.WithValue(ctx, CtxUsername, claims.Username)
			ctx = context.WithValue(ctx, CtxRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
