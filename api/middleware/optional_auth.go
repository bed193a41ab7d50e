package middleware

import (
	"net/http"
	"strings"

	pkgAuth "github.com/karibu-app/karibu-backend/pkg/auth"
	"github.com/karibu-app/karibu-backend/pkg/auth/session"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

// OptionalAuth seeds the context with claims when a valid bearer token is
// present and passes the request through untouched otherwise. Guest traffic
// on cart and order submission goes through here.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil || claims.ID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil || !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))
			if claims.RestaurantID != nil {
				ctx = WithRestaurantID(ctx, claims.RestaurantID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
