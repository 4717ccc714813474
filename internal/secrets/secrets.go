// Package secrets resolves server-held credentials by name.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned when a secret is missing or empty.
var ErrNotFound = errors.New("secret not found")

// Store looks up a secret value by name.
type Store interface {
	Secret(ctx context.Context, name string) (string, error)
}

// EnvStore reads secrets from the process environment at lookup time,
// so a rotated value is picked up without a restart.
type EnvStore struct{}

func (EnvStore) Secret(_ context.Context, name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// MapStore serves secrets from a fixed map.
type MapStore map[string]string

func (m MapStore) Secret(_ context.Context, name string) (string, error) {
	if v := m[name]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
