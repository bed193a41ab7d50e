package middleware

import (
	"net/http"
	"strings"

	"github.com/karibu-app/karibu-backend/api/responses"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/logger"
)

// cartSessionHeader carries the anonymous cart session id minted by the
// storefront for guests who have not logged in.
const cartSessionHeader = "X-Cart-Session"

// CartOwner resolves which cart the request operates on. Authenticated users
// own the cart keyed by their user id; guests must present a cart session
// header.
func CartOwner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := UserIDFromContext(r.Context())
			if owner == "" {
				owner = strings.TrimSpace(r.Header.Get(cartSessionHeader))
			}
			if owner == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing cart session"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCartOwner(r.Context(), owner)))
		})
	}
}
