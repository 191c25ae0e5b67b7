package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens.
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// FirebaseConfig configures FirebaseVerifier.
type FirebaseConfig struct {
	ProjectID  string
	JWKSURL    string
	ClockSkew  time.Duration
	HTTPClient *http.Client
	Clock      func() time.Time
}

// FirebaseVerifier validates Firebase ID tokens against Google's published keys.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
	skew     time.Duration
	now      func() time.Time
}

type firebaseClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Firebase struct {
		SignInProvider string `json:"sign_in_provider"`
	} `json:"firebase"`
}

// NewFirebaseVerifier builds a verifier bound to the supplied project.
func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase: project id must be provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = FirebaseJWKSURL
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = DefaultClockSkew
	}
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	verifier := oidc.NewVerifier(firebaseIssuerPrefix+cfg.ProjectID, keySet, &oidc.Config{
		ClientID:             cfg.ProjectID,
		SupportedSigningAlgs: []string{oidc.RS256},
		// Expiry is checked below with the configured skew.
		SkipExpiryCheck: true,
		Now:             now,
	})

	return &FirebaseVerifier{verifier: verifier, skew: skew, now: now}, nil
}

// Verify validates the signature, issuer, audience and token lifetime.
func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, errors.New("firebase: token string is empty")
	}

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("firebase: verify token: %w", err)
	}
	if err := checkTimes(v.now(), token.IssuedAt, token.Expiry, v.skew); err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	if token.Subject == "" {
		return nil, errors.New("firebase: missing subject claim")
	}

	var claims firebaseClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("firebase: decode claims: %w", err)
	}

	return &Identity{
		Subject:   token.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Picture:   claims.Picture,
		Provider:  claims.Firebase.SignInProvider,
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.Expiry,
	}, nil
}
