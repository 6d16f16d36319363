package config

import (
	"fmt"
	"os"
)

// JWTConfig holds configuration for validating bearer tokens.
// Tokens are issued elsewhere; the tracker only verifies them.
type JWTConfig struct {
	Secret string
	Issuer string // optional; when set, tokens must carry this "iss"
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_ISSUER (optional).
func NewJWTConfig() (*JWTConfig, error) {
	config := &JWTConfig{
		Secret: os.Getenv("JWT_SECRET"),
		Issuer: os.Getenv("JWT_ISSUER"),
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters, got: %d", len(c.Secret))
	}
	return nil
}
