// Package indexer drives the incremental indexing pipeline: scan, diff
// against the store, chunk and embed what changed, and prune what was
// deleted.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ragrep/ragrep/internal/chunker"
	"github.com/ragrep/ragrep/internal/config"
	"github.com/ragrep/ragrep/internal/embedder"
	"github.com/ragrep/ragrep/internal/scanner"
	"github.com/ragrep/ragrep/internal/storage"
	"github.com/ragrep/ragrep/pkg/types"
)

// ErrIndexInProgress is returned when a run overlaps another in the same
// process. The store itself is additionally protected by SQLite locking.
var ErrIndexInProgress = errors.New("index already in progress")

// errUnreadable marks files that could not be read from disk. These are the
// only per-file failures a run survives; everything else aborts.
var errUnreadable = errors.New("unreadable file")

// Indexer owns one store and one embedding provider and keeps them
// consistent with the filesystem.
type Indexer struct {
	store   storage.Store
	emb     embedder.Embedder
	chunker *chunker.Chunker
	cfg     *config.Config
	log     zerolog.Logger
	lock    IndexLock
}

// New assembles an Indexer from its pipeline stages.
func New(store storage.Store, emb embedder.Embedder, ch *chunker.Chunker, cfg *config.Config, log zerolog.Logger) *Indexer {
	return &Indexer{
		store:   store,
		emb:     emb,
		chunker: ch,
		cfg:     cfg,
		log:     log.With().Str("component", "indexer").Logger(),
	}
}

// Run brings the store up to date with root. It is idempotent: a second run
// over an unchanged tree writes nothing. force drops all indexed data
// first, which is also the only way to change the root, the model, or the
// chunk parameters of an existing store.
//
// Per-file read failures are skipped and reported in the summary; provider
// and store failures abort the run. Files already replaced before an abort
// stay replaced, files not yet reached keep their previous chunks.
func (idx *Indexer) Run(ctx context.Context, root string, force bool) (*types.IndexSummary, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	start := time.Now()
	summary := &types.IndexSummary{}

	if err := idx.checkMetadata(ctx, root, force); err != nil {
		return nil, err
	}

	sc, err := scanner.New(root, idx.cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	files, err := sc.Scan()
	if err != nil {
		return nil, err
	}
	summary.FilesScanned = len(files)

	useHash := idx.cfg.Staleness == config.StalenessHash
	if useHash {
		failed, err := sc.HashAll(files)
		if err != nil {
			return nil, err
		}
		for path, hashErr := range failed {
			idx.log.Warn().Str("path", path).Err(hashErr).Msg("skipping unreadable file")
			summary.FilesSkipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", path, hashErr))
		}
		files = dropFailed(files, failed)
	}

	stored, err := idx.store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	changes := DetectChanges(files, stored, useHash)
	summary.FilesUnchanged = len(changes.Unchanged)

	for _, f := range append(changes.Added, changes.Modified...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunksCreated, err := idx.indexFile(ctx, f)
		if err != nil {
			if !errors.Is(err, errUnreadable) {
				return nil, err
			}
			idx.log.Warn().Str("path", f.Path).Err(err).Msg("skipping unreadable file")
			summary.FilesSkipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		summary.FilesIndexed++
		summary.ChunksCreated += chunksCreated
	}

	sort.Strings(changes.Deleted)
	for _, path := range changes.Deleted {
		if err := idx.store.DeleteFile(ctx, path); err != nil {
			return nil, err
		}
		idx.log.Debug().Str("path", path).Msg("removed deleted file from index")
		summary.FilesDeleted++
	}

	if err := idx.writeMetadata(ctx, root); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(start)
	idx.log.Info().
		Int("scanned", summary.FilesScanned).
		Int("indexed", summary.FilesIndexed).
		Int("unchanged", summary.FilesUnchanged).
		Int("deleted", summary.FilesDeleted).
		Int("chunks", summary.ChunksCreated).
		Dur("duration", summary.Duration).
		Msg("index run complete")
	return summary, nil
}

// checkMetadata enforces the immutability of root, model, and chunk
// parameters for an existing store. force resets the store instead.
func (idx *Indexer) checkMetadata(ctx context.Context, root string, force bool) error {
	meta, err := idx.store.Metadata(ctx)
	if err != nil {
		return err
	}
	if meta == nil {
		return nil
	}
	if force {
		idx.log.Info().Msg("force rebuild, dropping indexed data")
		return idx.store.Reset(ctx)
	}
	if meta.RootPath != root {
		return fmt.Errorf("%w: store built from %s, requested %s", types.ErrRootMismatch, meta.RootPath, root)
	}
	if meta.Model != idx.emb.Model() {
		return fmt.Errorf("%w: store built with %s, active model %s (rebuild with --force)",
			types.ErrModelMismatch, meta.Model, idx.emb.Model())
	}
	if meta.Dimension != 0 && idx.emb.Dimension() != 0 && meta.Dimension != idx.emb.Dimension() {
		return fmt.Errorf("%w: store holds %d-dimensional vectors, provider emits %d (rebuild with --force)",
			types.ErrModelMismatch, meta.Dimension, idx.emb.Dimension())
	}
	if meta.ChunkSize != idx.chunker.Size() || meta.ChunkOverlap != idx.chunker.Overlap() {
		return fmt.Errorf("%w: store built with chunk %d/%d, configured %d/%d (rebuild with --force)",
			types.ErrConfig, meta.ChunkSize, meta.ChunkOverlap, idx.chunker.Size(), idx.chunker.Overlap())
	}
	return nil
}

// indexFile reads, chunks, embeds, and stores one file. Binary files are
// stored with zero chunks so they stop reappearing as additions.
func (idx *Indexer) indexFile(ctx context.Context, f scanner.FileInfo) (int, error) {
	content, isText, err := scanner.ReadText(f.AbsPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUnreadable, err)
	}

	rec := storage.FileRecord{
		Path:        f.Path,
		Size:        f.Size,
		MtimeNS:     f.ModTime.UnixNano(),
		ContentHash: f.Hash,
	}

	var chunks []chunker.Chunk
	if isText {
		chunks = idx.chunker.Split(content)
	} else {
		idx.log.Debug().Str("path", f.Path).Msg("binary file, indexing without chunks")
	}

	records := make([]storage.ChunkRecord, len(chunks))
	vectors := make([][]float32, len(chunks))
	for batchStart := 0; batchStart < len(chunks); batchStart += embedder.MaxBatchSize {
		batchEnd := batchStart + embedder.MaxBatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		texts := make([]string, batchEnd-batchStart)
		for i, ch := range chunks[batchStart:batchEnd] {
			texts[i] = ch.Text
		}
		resp, err := idx.emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return 0, err
		}
		for i, emb := range resp.Embeddings {
			vectors[batchStart+i] = emb.Vector
		}
	}
	for i, ch := range chunks {
		records[i] = storage.ChunkRecord{
			SequenceIndex: ch.SequenceIndex,
			StartOffset:   ch.StartOffset,
			EndOffset:     ch.EndOffset,
			Content:       ch.Text,
		}
	}

	if err := idx.store.ReplaceFile(ctx, rec, records, vectors, idx.emb.Model()); err != nil {
		return 0, err
	}
	idx.log.Debug().Str("path", f.Path).Int("chunks", len(chunks)).Msg("indexed file")
	return len(chunks), nil
}

func (idx *Indexer) writeMetadata(ctx context.Context, root string) error {
	return idx.store.SetMetadata(ctx, &storage.Metadata{
		RootPath:      root,
		Provider:      idx.emb.Provider(),
		Model:         idx.emb.Model(),
		Dimension:     idx.emb.Dimension(),
		ChunkSize:     idx.chunker.Size(),
		ChunkOverlap:  idx.chunker.Overlap(),
		Staleness:     idx.cfg.Staleness,
		LastIndexedAt: time.Now().UTC(),
	})
}

func dropFailed(files []scanner.FileInfo, failed map[string]error) []scanner.FileInfo {
	if len(failed) == 0 {
		return files
	}
	kept := files[:0]
	for _, f := range files {
		if _, ok := failed[f.Path]; !ok {
			kept = append(kept, f)
		}
	}
	return kept
}
