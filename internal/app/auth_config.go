package app

import (
	"strings"

	"github.com/pawwalk/pawwalk/internal/auth"
)

// Supported identity providers.
const (
	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

// ProviderName returns the normalised provider, defaulting to firebase.
func (c AuthConfig) ProviderName() string {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider == "" {
		return AuthProviderFirebase
	}
	return provider
}

// JWTVerifierConfig converts AuthConfig into the parameters expected by the HS256 verifier.
func (c AuthConfig) JWTVerifierConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	leeway := c.ClockSkew
	if leeway <= 0 {
		leeway = auth.DefaultClockSkew
	}

	return auth.JWTConfig{
		Secret:   c.JWT.Secret,
		Issuer:   c.JWT.Issuer,
		Audience: c.JWT.Audience,
		TTL:      ttl,
		Leeway:   leeway,
	}
}

// FirebaseVerifierConfig converts AuthConfig into FirebaseVerifier parameters.
func (c AuthConfig) FirebaseVerifierConfig() auth.FirebaseConfig {
	skew := c.ClockSkew
	if skew <= 0 {
		skew = auth.DefaultClockSkew
	}

	return auth.FirebaseConfig{
		ProjectID: strings.TrimSpace(c.Firebase.ProjectID),
		JWKSURL:   strings.TrimSpace(c.Firebase.JWKSURL),
		ClockSkew: skew,
	}
}
