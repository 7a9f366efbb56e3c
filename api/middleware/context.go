package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
)

type contextKey string

const (
	ctxUser contextKey = "user"
)

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.User); ok {
		return v
	}
	return nil
}

// UserIDFromContext returns uuid.Nil for anonymous requests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	user := UserFromContext(ctx)
	if user == nil {
		return ""
	}
	return enums.RoleFor(user.IsAdmin)
}
