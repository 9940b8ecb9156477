// Package secrets resolves the credential values injected into
// service environments. Every declared secret is resolved exactly
// once per run, before any service starts, so all consumers of a name
// observe identical values. Secret values are never logged.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/config"
	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

const generatedKeyBytes = 32

// Store holds the resolved secret values for one run.
type Store struct {
	values map[string]string
}

// Resolve materializes every declared secret: a literal value from
// config, or a freshly generated key for generate: true declarations.
// A required secret with neither fails with a missing-configuration
// error so the run aborts before any service is launched.
func Resolve(specs []config.SecretSpec) (*Store, error) {
	values := make(map[string]string, len(specs))

	for _, spec := range specs {
		switch {
		case spec.Value != "":
			values[spec.Name] = spec.Value
		case spec.Generate:
			key, err := generateKey()
			if err != nil {
				return nil, fmt.Errorf("generating secret %q: %w", spec.Name, err)
			}
			values[spec.Name] = key
			logging.Debug("Secrets", "Generated value for secret %q", spec.Name)
		case spec.Required:
			return nil, config.NewConfigurationError(
				"missing required configuration: secret %q has no value and no generator", spec.Name)
		default:
			// Optional and unset: consumers receive an empty value.
			values[spec.Name] = ""
		}
	}

	return &Store{values: values}, nil
}

// Get returns the resolved value for a secret name.
func (s *Store) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// ResolveEnv returns a copy of the environment map with every
// "secret:NAME" reference replaced by its resolved value. Unknown
// references fail; validation should have caught them already, but
// injection must never silently pass a raw reference to a container.
func (s *Store) ResolveEnv(env map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(env))
	for k, v := range env {
		if !strings.HasPrefix(v, config.SecretRefPrefix) {
			resolved[k] = v
			continue
		}
		name := strings.TrimPrefix(v, config.SecretRefPrefix)
		value, ok := s.values[name]
		if !ok {
			return nil, config.NewConfigurationError(
				"missing required configuration: environment variable %s references unknown secret %q", k, name)
		}
		resolved[k] = value
	}
	return resolved, nil
}

func generateKey() (string, error) {
	buf := make([]byte, generatedKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
