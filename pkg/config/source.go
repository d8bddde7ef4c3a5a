package config

// SourceType identifies where a configuration layer came from, used only
// for diagnostics (precedence is determined by call order, not by type).
type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceEnv     SourceType = "env"
	SourceYAML    SourceType = "yaml"
	SourceCLI     SourceType = "cli"
)

// Source is one layer of configuration. Load returns a nested map whose
// keys match the `koanf` struct tags in Config; later sources passed to
// Service.Load override earlier ones key-by-key.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// EnvProvider reads `VERSE_`-prefixed environment variables. Loading is
// delegated to koanf's native env provider inside Service.Load, so this
// type's Load always returns an empty map; it exists only so EnvProvider
// can be passed through the same Source-typed call sequence as the other
// providers for ordering purposes.
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

func (p *EnvProvider) Load() (map[string]any, error) { return map[string]any{}, nil }
func (p *EnvProvider) Type() SourceType              { return SourceEnv }

// MapSource is an in-process Source backed by a plain map, used by tests
// and by callers that already have parsed configuration (e.g. from a flag
// parser or an embedded YAML document) and do not want a file on disk.
type MapSource struct {
	Data       map[string]any
	SourceKind SourceType
}

func NewMapSource(data map[string]any, kind SourceType) *MapSource {
	return &MapSource{Data: data, SourceKind: kind}
}

func (m *MapSource) Load() (map[string]any, error) { return m.Data, nil }
func (m *MapSource) Type() SourceType              { return m.SourceKind }
