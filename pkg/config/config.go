// Package config loads and validates the engine's runtime configuration:
// the cache half-width epsilon (§9 of SPEC_FULL.md), the CEL assert
// evaluator's cost limit, the guard-AST parse-cache size, and the log level.
package config

import "github.com/compozy/verse-engine/pkg/logger"

// CacheConfig controls the incremental interval-tree caches in engine/incache.
type CacheConfig struct {
	// Epsilon is the half-width used to key point-indexed (simulation)
	// cache entries. Widening it increases cache hit rate at the cost of
	// false reuse when guards are sensitive near boundaries (SPEC_FULL §9).
	Epsilon float64 `koanf:"epsilon" validate:"gt=0"`
}

// AssertConfig controls the CEL-backed assert evaluator in engine/assert.
type AssertConfig struct {
	CostLimit    uint64 `koanf:"cost_limit"    validate:"gt=0"`
	ProgramCache int64  `koanf:"program_cache" validate:"gt=0"` // max cost, in ristretto units
}

// GuardConfig controls the guard/reset expression-AST parse cache.
type GuardConfig struct {
	ASTCacheSize int `koanf:"ast_cache_size" validate:"gt=0"`
}

// LogConfig controls pkg/logger construction.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error disabled"`
}

// Config is the engine's complete runtime configuration.
type Config struct {
	Cache  CacheConfig  `koanf:"cache"`
	Assert AssertConfig `koanf:"assert"`
	Guard  GuardConfig  `koanf:"guard"`
	Log    LogConfig    `koanf:"log"`
}

// Default returns the configuration used when no sources override it.
func Default() *Config {
	return &Config{
		Cache:  CacheConfig{Epsilon: 1e-4},
		Assert: AssertConfig{CostLimit: 1000, ProgramCache: 1 << 20},
		Guard:  GuardConfig{ASTCacheSize: 512},
		Log:    LogConfig{Level: string(logger.InfoLevel)},
	}
}

// LogLevel returns the configured log level as a logger.LogLevel.
func (c *Config) LogLevel() logger.LogLevel {
	return logger.LogLevel(c.Log.Level)
}
