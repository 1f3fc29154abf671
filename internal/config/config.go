package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
)

// Load reads the configuration file at path, expands ${VAR} references,
// applies defaults and validates the result.
//
// A missing file is not an error: the device must be able to boot with no
// configuration at all, so Load returns the defaults instead.
func Load(path string) (*Config, error) {
	dir := "."
	if path != "" {
		dir = filepath.Dir(path)
	}
	if err := LoadEnvFiles(dir); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load environment files").
			WithContext("dir", dir).
			Fatal().
			Build()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := Parse(data, cfg); err != nil {
				return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
					WithContext("path", path).
					Fatal().
					Build()
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
				WithContext("path", path).
				Fatal().
				Build()
		}
	}

	NewDefaultApplier().ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands environment variables in data and decodes it into cfg.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}
