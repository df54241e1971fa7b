package auth

import "context"

// TestChecker is an in-memory Checker used in tests.
type TestChecker struct {
	Sessions map[string]string // token -> userID
}

func NewTestChecker() *TestChecker {
	return &TestChecker{
		Sessions: map[string]string{},
	}
}

func (c *TestChecker) UserID(_ context.Context, token string) (string, error) {
	userID, ok := c.Sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	return userID, nil
}
