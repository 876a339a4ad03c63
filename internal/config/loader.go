package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable naming.
const (
	EnvPrefix     = "GREENHORN_"
	EnvConfigPath = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if GREENHORN_CONFIG is set
//  3. env (prefix GREENHORN_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv(EnvConfigPath))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file
// layer.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like GREENHORN_ADMIN_BURST -> admin_burst (flat keys),
	// preserving underscores to match koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-loads path (layered exactly like LoadFrom) whenever the file
// changes. A valid result is passed to onChange; any load or validation
// failure goes to onError and the caller keeps what it had. If the watcher
// itself fails (for example the file is removed) onError receives an error
// matching ErrWatchStopped and no further callbacks follow. The returned
// function stops watching.
func Watch(ctx context.Context, path string, onChange func(*Config), onError func(error)) (func() error, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no config file to watch", ErrLoadConfig)
	}

	fp := file.Provider(path)
	err := fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			// The provider ends its watch loop after reporting an error.
			onError(fmt.Errorf("%w: %w: %s: %v", ErrLoadConfig, ErrWatchStopped, path, err))
			return
		}
		cfg, err := LoadFrom(ctx, path)
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: watch %s: %v", ErrLoadConfig, path, err)
	}
	return fp.Unwatch, nil
}
