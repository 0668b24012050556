package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Google signs ID tokens with either issuer form.
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// IdentityVerifier checks an ID token issued by an external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*GoogleIdentity, error)
}

type verifyFunc func(ctx context.Context, token string, v *rp.IDTokenVerifier) (*oidc.IDTokenClaims, error)

type googleVerifier struct {
	verifiers []*rp.IDTokenVerifier
	verify    verifyFunc
}

func NewGoogleVerifier(clientID string, httpClient *http.Client) IdentityVerifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	keySet := rp.NewRemoteKeySet(httpClient, googleJWKSURL)

	verifiers := make([]*rp.IDTokenVerifier, 0, len(googleIssuers))
	for _, issuer := range googleIssuers {
		verifiers = append(verifiers, rp.NewIDTokenVerifier(issuer, clientID, keySet))
	}

	return &googleVerifier{
		verifiers: verifiers,
		verify:    rp.VerifyIDToken[*oidc.IDTokenClaims],
	}
}

func (g *googleVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	var (
		claims *oidc.IDTokenClaims
		err    error
	)
	for _, v := range g.verifiers {
		claims, err = g.verify(ctx, credential, v)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: google token verification failed: %v", ErrInvalidCredentials, err)
	}

	return &GoogleIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}
