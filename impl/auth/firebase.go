package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	fbAuth "firebase.google.com/go/auth"

	"github.com/visionex-project/imagetranslator/pkg/utils"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidEmail  = errors.New("invalid email in claim")
	ErrInvalidDomain = errors.New("invalid email domain")
)

type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbAuth.Token, error)
}

type Authenticator struct {
	client FirebaseAuthClient
	// Allowed e-mail domains. Empty allows every domain.
	domains []string
}

func New(client FirebaseAuthClient, domains []string) *Authenticator {
	return &Authenticator{
		client:  client,
		domains: utils.Map(domains, strings.ToLower),
	}
}

func (a *Authenticator) Verify(ctx context.Context, token string) (string, error) {
	decodedToken, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	rawEmail, ok := decodedToken.Claims["email"]
	if !ok {
		return "", fmt.Errorf("failed to verify the token: %w", ErrInvalidEmail)
	}

	email, ok := rawEmail.(string)
	if !ok {
		return "", fmt.Errorf("failed to verify the token: %w", ErrInvalidEmail)
	}

	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return "", fmt.Errorf("failed to verify the token: %w: invalid format", ErrInvalidEmail)
	}
	splitEmail := strings.Split(email, "@")
	if len(splitEmail) != 2 {
		return "", fmt.Errorf("failed to verify the token: %w: expected a single '@'", ErrInvalidEmail)
	}
	domain := strings.ToLower(splitEmail[1])
	if len(a.domains) > 0 && !utils.Contains(a.domains, domain) {
		return "", fmt.Errorf("failed to verify the token: %w", ErrInvalidDomain)
	}

	return email, nil
}
