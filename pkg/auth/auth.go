package auth

import (
	"errors"
	"strings"
)

var (
	ErrEmptyHeader   = errors.New("authorization header is empty")
	ErrInvalidFormat = errors.New("invalid authorization header format, expected 'Bearer <token>'")
	ErrEmptyToken    = errors.New("token is empty")
)

// ExtractBearerToken extracts the token from a Bearer authorization header.
// The scheme is matched case-insensitively.
func ExtractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", ErrEmptyHeader
	}

	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", ErrInvalidFormat
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	if strings.ContainsAny(token, " \t") {
		return "", ErrInvalidFormat
	}

	return token, nil
}
