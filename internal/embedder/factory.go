package embedder

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config selects and configures a provider.
type Config struct {
	Provider  string // "auto", "openai", "ollama", or "local"
	Model     string // optional model override
	OpenAIKey string
	OllamaURL string
	CacheSize int
}

// New builds an Embedder from cfg. Provider "auto" probes capabilities in
// order: an OpenAI key wins, then a reachable Ollama server, then the local
// hash provider, which always works.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := cfg.Provider
	if provider == "" || provider == "auto" {
		provider = DetectProvider(cfg)
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.Model, cache)
	case ProviderOllama:
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNoProviderEnabled, provider)
	}
}

// DetectProvider picks the best available provider for cfg.
func DetectProvider(cfg Config) string {
	if cfg.OpenAIKey != "" {
		return ProviderOpenAI
	}
	if ollamaReachable(cfg.OllamaURL) {
		return ProviderOllama
	}
	return ProviderLocal
}

// ollamaReachable probes the Ollama server with a short deadline.
func ollamaReachable(baseURL string) bool {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}
