package auth

import (
	"context"
	"errors"
	"time"
)

// DefaultClockSkew is the tolerance applied to exp/iat checks when none is configured.
const DefaultClockSkew = time.Minute

var (
	// ErrMissingHeader is returned when no Authorization header was sent.
	ErrMissingHeader = errors.New("auth: missing authorization header")
	// ErrMalformedHeader is returned when the header is not "Bearer <token>".
	ErrMalformedHeader = errors.New("auth: malformed authorization header")
	// ErrInvalidToken wraps every verifier failure.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Identity is the verified subject behind a bearer token.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	Picture   string
	Provider  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier validates a raw token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

func checkTimes(now time.Time, issuedAt, expiresAt time.Time, skew time.Duration) error {
	if !expiresAt.IsZero() && now.After(expiresAt.Add(skew)) {
		return errors.New("token is expired")
	}
	if !issuedAt.IsZero() && issuedAt.After(now.Add(skew)) {
		return errors.New("token used before issued")
	}
	return nil
}
