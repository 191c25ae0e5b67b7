package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pawwalk/pawwalk/pkg/logger"
	"github.com/pawwalk/pawwalk/pkg/metrics"
)

// Resolver turns an Authorization header into a verified identity.
type Resolver struct {
	verifier Verifier
}

// NewResolver wraps the supplied verifier.
func NewResolver(verifier Verifier) (*Resolver, error) {
	if verifier == nil {
		return nil, errors.New("auth: verifier is required")
	}
	return &Resolver{verifier: verifier}, nil
}

// Resolve parses the header and verifies the bearer token. The returned error
// is always one of ErrMissingHeader, ErrMalformedHeader or ErrInvalidToken.
func (r *Resolver) Resolve(ctx context.Context, header string) (*Identity, error) {
	token, err := ParseBearer(header)
	if err != nil {
		if errors.Is(err, ErrMissingHeader) {
			metrics.AuthAttempts.WithLabelValues("missing").Inc()
		} else {
			metrics.AuthAttempts.WithLabelValues("malformed").Inc()
		}
		return nil, err
	}

	identity, err := r.verifier.Verify(ctx, token)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		logger.WithModule("auth").Debug("token verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if identity == nil || identity.Subject == "" {
		metrics.AuthAttempts.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return identity, nil
}
