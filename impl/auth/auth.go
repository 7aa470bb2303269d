package auth

import (
	"context"
)

// Auth verifies an ID token and returns the e-mail address it was issued to.
type Auth interface {
	Verify(ctx context.Context, token string) (string, error)
}
