// Package auth resolves who is calling. Identity itself is issued elsewhere;
// this package only verifies tokens and carries the user id in a context.
package auth

import (
	"context"

	"trivia-builder-service/internal/domain"
)

type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the user id stored by WithUserID.
func UserIDFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}

// ContextIdentity implements app.IdentityProvider on top of WithUserID.
type ContextIdentity struct{}

func (ContextIdentity) UserID(ctx context.Context) (string, error) {
	userID, ok := UserIDFrom(ctx)
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return userID, nil
}
