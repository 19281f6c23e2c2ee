// Package config resolves runtime configuration from defaults, environment
// variables (prefix RAGREP), and CLI flags, in ascending precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"github.com/ragrep/ragrep/pkg/types"
)

// Staleness detection modes.
const (
	StalenessMtime = "mtime" // compare (size, mtime) against stored records; default
	StalenessHash  = "hash"  // compare SHA-256 content hashes; reads every file
)

// Provider selection values. "auto" runs the capability probe at startup.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// DefaultStoreName is the store file created inside the indexed root.
const DefaultStoreName = ".ragrep.db"

// Config holds every tunable of the pipeline. Zero values are filled by
// envconfig defaults; CLI flags overwrite fields after Load.
type Config struct {
	StorePath    string `envconfig:"STORE_PATH"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" default:"200"`
	Provider     string `envconfig:"PROVIDER" default:"auto"`
	Model        string `envconfig:"MODEL"`
	OllamaURL    string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OpenAIKey    string `envconfig:"OPENAI_API_KEY"`
	Staleness    string `envconfig:"STALENESS" default:"mtime"`
	MaxFileSize  int64  `envconfig:"MAX_FILE_SIZE" default:"10485760"`
	CacheSize    int    `envconfig:"CACHE_SIZE" default:"10000"`
	Limit        int    `envconfig:"LIMIT" default:"5"`
}

// Load builds a Config from environment variables layered over defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ragrep", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfig, err)
	}
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}

// Validate rejects configurations that would corrupt chunk identity or point
// at nothing. Called before any store mutation.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", types.ErrConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size), got %d", types.ErrConfig, c.ChunkOverlap)
	}
	switch c.Staleness {
	case StalenessMtime, StalenessHash:
	default:
		return fmt.Errorf("%w: unknown staleness mode %q", types.ErrConfig, c.Staleness)
	}
	switch c.Provider {
	case ProviderAuto, ProviderOpenAI, ProviderOllama, ProviderLocal:
	default:
		return fmt.Errorf("%w: unknown provider %q", types.ErrConfig, c.Provider)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max file size must be positive", types.ErrConfig)
	}
	return nil
}

// ResolveRoot validates and absolutizes the index root.
func (c *Config) ResolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: resolve root %q: %v", types.ErrConfig, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: root %q does not exist", types.ErrConfig, abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: root %q is not a directory", types.ErrConfig, abs)
	}
	return abs, nil
}

// ResolveStorePath returns the store file path for a root, honoring an
// explicit override.
func (c *Config) ResolveStorePath(root string) string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return filepath.Join(root, DefaultStoreName)
}
