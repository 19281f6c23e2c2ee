// Package recall answers semantic queries against the index. By default a
// query first brings the index up to date, so results reflect the current
// state of the tree; callers can opt out and search the store as-is.
package recall

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ragrep/ragrep/internal/embedder"
	"github.com/ragrep/ragrep/internal/indexer"
	"github.com/ragrep/ragrep/internal/storage"
	"github.com/ragrep/ragrep/pkg/types"
)

const (
	// DefaultLimit is the number of matches returned when none is requested.
	DefaultLimit = 5

	// MaxLimit caps a single query's result size.
	MaxLimit = 100
)

// Engine executes recall queries.
type Engine struct {
	store storage.Store
	emb   embedder.Embedder
	idx   *indexer.Indexer
	log   zerolog.Logger
}

// NewEngine assembles an Engine sharing the indexer's store and provider.
func NewEngine(store storage.Store, emb embedder.Embedder, idx *indexer.Indexer, log zerolog.Logger) *Engine {
	return &Engine{
		store: store,
		emb:   emb,
		idx:   idx,
		log:   log.With().Str("component", "recall").Logger(),
	}
}

// Recall embeds query and returns the top limit chunks by cosine
// similarity. When autoIndex is true, root is indexed incrementally first.
// limit <= 0 selects DefaultLimit; values above MaxLimit are clamped. An
// empty store yields an empty result, not an error.
func (e *Engine) Recall(ctx context.Context, query, root string, limit int, autoIndex bool) ([]types.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", types.ErrConfig)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if autoIndex {
		if _, err := e.idx.Run(ctx, root, false); err != nil {
			return nil, err
		}
	}

	emb, err := e.emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, err
	}

	hits, err := e.store.SimilarityQuery(ctx, emb.Vector, limit)
	if err != nil {
		return nil, err
	}

	matches := make([]types.Match, len(hits))
	for i, h := range hits {
		matches[i] = types.Match{
			Score:         h.Score,
			SourcePath:    h.FilePath,
			SequenceIndex: h.SequenceIndex,
			StartOffset:   h.StartOffset,
			EndOffset:     h.EndOffset,
			ChunkText:     h.Content,
		}
	}
	e.log.Debug().Str("query", query).Int("matches", len(matches)).Msg("recall complete")
	return matches, nil
}
