package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// CredentialSource returns the provider credential. An empty key with a nil
// error means the credential is not configured.
type CredentialSource func() (string, error)

type credentialEnv struct {
	FalKey string `env:"FAL_KEY"`
}

// EnvCredential reads FAL_KEY from the process environment on every call, so
// a rotated key is picked up without a restart.
func EnvCredential() CredentialSource {
	return func() (string, error) {
		var c credentialEnv
		if err := env.Parse(&c); err != nil {
			return "", fmt.Errorf("parsing credential env: %w", err)
		}
		return c.FalKey, nil
	}
}

// StaticCredential always returns key.
func StaticCredential(key string) CredentialSource {
	return func() (string, error) {
		return key, nil
	}
}
