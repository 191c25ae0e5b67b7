package app

import (
	"fmt"
	"strings"

	"github.com/pawwalk/pawwalk/pkg/crypto"
)

const jwtSecretBytes = 48

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if cfg.Auth.ProviderName() == AuthProviderJWT && strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	return generated, nil
}

// Validate reports configuration that cannot be used to start the server.
func (c *Config) Validate() error {
	switch c.Auth.ProviderName() {
	case AuthProviderFirebase:
		if strings.TrimSpace(c.Auth.Firebase.ProjectID) == "" {
			return fmt.Errorf("config: auth.firebase.project_id is required for the firebase provider")
		}
	case AuthProviderJWT:
		if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
			return fmt.Errorf("config: auth.jwt.secret is required for the jwt provider")
		}
	default:
		return fmt.Errorf("config: unsupported auth provider %q", c.Auth.Provider)
	}

	switch c.Storage.DriverName() {
	case StorageDriverNone:
	case StorageDriverS3:
		if strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			return fmt.Errorf("config: storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unsupported storage driver %q", c.Storage.Driver)
	}
	return nil
}
