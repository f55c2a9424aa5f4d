package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is what a verified Google ID token tells us about the user.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleIdentity, error)
}

// IDTokenVerifier checks ID tokens against Google's signing keys and the
// configured OAuth client ID.
type IDTokenVerifier struct {
	clientID string
}

func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{clientID: clientID}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate Google ID token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]interface{}) (*GoogleIdentity, error) {
	email, _ := claims["email"].(string)
	if email == "" || subject == "" {
		return nil, fmt.Errorf("google token is missing email or subject")
	}

	// email_verified arrives as a bool from the JWT, or as a string from tokeninfo.
	switch v := claims["email_verified"].(type) {
	case bool:
		if !v {
			return nil, fmt.Errorf("google account email is not verified")
		}
	case string:
		if !strings.EqualFold(v, "true") {
			return nil, fmt.Errorf("google account email is not verified")
		}
	}

	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return &GoogleIdentity{
		Subject: subject,
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}
