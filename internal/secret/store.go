// Package secret resolves the target database password from somewhere other
// than the configuration file.
package secret

import (
	"fmt"
	"os"
	"strings"
)

// SecretStore looks up sensitive values such as database passwords.
type SecretStore interface {
	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)
}

// EnvStore reads secrets from environment variables named Prefix+KEY.
type EnvStore struct {
	Prefix string
}

func (e EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.Prefix + strings.ToUpper(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

// Open returns the store named by kind: "env" or "keychain".
func Open(kind string) (SecretStore, error) {
	switch kind {
	case "", "env":
		return EnvStore{Prefix: "CATALOG_SECRET_"}, nil
	case "keychain":
		return NewKeychainStore(), nil
	default:
		return nil, fmt.Errorf("unknown secret store %q", kind)
	}
}
