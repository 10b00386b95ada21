package auth

import (
	"context"

	apperrors "github.com/hoyacom/apiman/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserContext is the authenticated caller attached to each request.
type UserContext struct {
	Username string
	Email    string
	Roles    []string
}

// HasRole reports whether the caller holds the given role.
func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SetUserInContext attaches the authenticated user to the context.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, or an unauthorized
// error when the request never passed the auth middleware.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, apperrors.NewUnauthorizedError("no authenticated user in context")
	}
	return user, nil
}
