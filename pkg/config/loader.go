package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/maps"
	kenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VERSE_"

// Service loads layered configuration: a struct-backed default, environment
// variables, then any explicit Sources in the order given, each overriding
// the ones before it. It mirrors the teacher's pkg/config.Loader shape
// (Load(ctx, sources...), Validate(cfg)) scoped to this engine's own
// configuration surface.
type Service struct {
	validate *validator.Validate
}

func NewService() *Service {
	return &Service{validate: validator.New()}
}

// Load builds a Config from the default, environment variables, and the
// given sources (applied left to right, later wins), then validates it.
func (s *Service) Load(_ context.Context, sources ...Source) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}
	if err := k.Load(kenv.Provider(".", kenv.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			return envKeyToKoanf(k), v
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
		}
		flat := maps.Flatten(data, nil, ".")
		if err := k.Load(mapProvider(flat), nil); err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
		}
	}
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg against its `validate` struct tags.
func (s *Service) Validate(cfg *Config) error {
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// mapProvider adapts an already-flattened map to koanf's Provider interface
// without depending on the separate confmap provider module.
type mapProvider map[string]any

func (m mapProvider) Read() (map[string]any, error) { return m, nil }
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("mapProvider does not support ReadBytes")
}

func envKeyToKoanf(envKey string) string {
	out := make([]byte, 0, len(envKey))
	for _, r := range envKey {
		switch {
		case r == '_':
			out = append(out, '.')
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(r-'A'+'a'))
		default:
			out = append(out, byte(r))
		}
	}
	return string(out)
}
