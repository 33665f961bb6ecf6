// Package config provides YAML-based configuration loading with environment
// variable expansion. References may carry fallbacks: ${PORT:8080} expands to
// $PORT when set and to 8080 otherwise.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal([]byte(expand(string(data))), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// expand substitutes ${VAR} and $VAR references. A ${VAR:fallback} form
// applies the fallback when VAR is unset or empty.
func expand(s string) string {
	return os.Expand(s, func(ref string) string {
		name, fallback, hasFallback := strings.Cut(ref, ":")
		value := os.Getenv(name)
		if value == "" && hasFallback {
			return fallback
		}
		return value
	})
}
