package testsupport

import (
	"path/filepath"
	"testing"

	"taskmill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults to simple-only parsing so tests never need network access, and
// applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Parser.Mode = string(config.ModeSimpleOnly)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithParserMode sets the parser mode on the test config.
func WithParserMode(mode config.Mode) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Parser.Mode = string(mode)
	}
}

// WithOpenAI points the test config at a stub chat-completions endpoint.
func WithOpenAI(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenAI.BaseURL = baseURL
		b.cfg.OpenAI.APIKey = apiKey
	}
}
