package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/phytopro-backend/api/responses"
	"github.com/angelmondragon/phytopro-backend/api/validators"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth resolves the session token (cookie first, then bearer header) to a
// user and seeds the request context with it.
func Auth(authn authenticator, cookieName string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := validators.SessionToken(r, cookieName)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    user.ID.String(),
					"actor_role": string(RoleFromContext(ctx)),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
