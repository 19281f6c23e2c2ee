package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ragrep/ragrep/internal/chunker"
	"github.com/ragrep/ragrep/internal/embedder"
	"github.com/ragrep/ragrep/internal/indexer"
	"github.com/ragrep/ragrep/internal/recall"
	"github.com/ragrep/ragrep/internal/storage"
)

// app bundles the assembled pipeline for one command invocation.
type app struct {
	root   string
	store  *storage.SQLiteStore
	emb    embedder.Embedder
	idx    *indexer.Indexer
	engine *recall.Engine
}

// newApp resolves the root, opens the store next to it, and assembles the
// pipeline stages around the configured provider.
func newApp(ctx context.Context, path string) (*app, error) {
	root, err := cfg.ResolveRoot(path)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.ResolveStorePath(root))
	if err != nil {
		return nil, err
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		OpenAIKey: cfg.OpenAIKey,
		OllamaURL: cfg.OllamaURL,
		CacheSize: cfg.CacheSize,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	log.Debug().Str("provider", emb.Provider()).Str("model", emb.Model()).Msg("embedding provider selected")

	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		store.Close()
		emb.Close()
		return nil, err
	}

	idx := indexer.New(store, emb, ch, cfg, log.Logger)
	engine := recall.NewEngine(store, emb, idx, log.Logger)

	return &app{
		root:   root,
		store:  store,
		emb:    emb,
		idx:    idx,
		engine: engine,
	}, nil
}

func (a *app) close() {
	if err := a.emb.Close(); err != nil {
		log.Warn().Err(err).Msg("closing embedder")
	}
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("closing store")
	}
}
