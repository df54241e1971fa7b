package auth

import (
	"context"
	"errors"
)

var _ Checker = (*SessionChecker)(nil)
var _ Checker = (*TestChecker)(nil)

var ErrSessionNotFound = errors.New("session not found")

// Checker resolves an auth token to the user identity behind it.
// Sessions are written by the external auth provider - the fitness store
// trusts the resolved identity and never re-validates it.
type Checker interface {
	UserID(ctx context.Context, token string) (string, error)
}

type contextKey struct{}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKey{}).(string)
	return userID, ok && userID != ""
}
