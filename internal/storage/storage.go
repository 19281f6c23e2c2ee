package storage

import (
	"context"
	"time"
)

// FileRecord is one indexed file. MtimeNS preserves full filesystem
// timestamp precision; ContentHash is set only when the index was built in
// hash staleness mode.
type FileRecord struct {
	ID          int64
	Path        string // relative to the indexed root, forward slashes
	Size        int64
	MtimeNS     int64
	ContentHash string
	ChunkCount  int
}

// ChunkRecord is one stored chunk of a file.
type ChunkRecord struct {
	ID            int64
	FileID        int64
	SequenceIndex int
	StartOffset   int
	EndOffset     int
	Content       string
}

// Metadata records the parameters the index was built with. Root, model,
// and chunk parameters are immutable for the life of a store; changing any
// of them requires a rebuild.
type Metadata struct {
	RootPath      string
	Provider      string
	Model         string
	Dimension     int
	ChunkSize     int
	ChunkOverlap  int
	Staleness     string
	LastIndexedAt time.Time
}

// Stats summarizes store contents.
type Stats struct {
	FileCount      int
	ChunkCount     int
	EmbeddingCount int
	StoreSizeBytes int64
	Model          string
	LastIndexedAt  time.Time
}

// SimilarityMatch is one scored chunk from a similarity query, ordered by
// descending score with (file path, sequence index) as the tie-break.
type SimilarityMatch struct {
	ChunkID       int64
	Score         float64
	FilePath      string
	SequenceIndex int
	StartOffset   int
	EndOffset     int
	Content       string
}

// Store is the persistence interface for the index.
type Store interface {
	// ListFiles returns every indexed file, sorted by path.
	ListFiles(ctx context.Context) ([]FileRecord, error)

	// GetFile returns the record for one path, or nil when not indexed.
	GetFile(ctx context.Context, path string) (*FileRecord, error)

	// ReplaceFile atomically swaps a file's chunks and embeddings. vectors
	// must align one-to-one with chunks. The old rows for the path, if any,
	// are removed in the same transaction.
	ReplaceFile(ctx context.Context, file FileRecord, chunks []ChunkRecord, vectors [][]float32, model string) error

	// DeleteFile removes a file and, via cascade, its chunks and embeddings.
	DeleteFile(ctx context.Context, path string) error

	// SimilarityQuery scores every stored embedding against vector and
	// returns the top limit matches with their chunk text.
	SimilarityQuery(ctx context.Context, vector []float32, limit int) ([]SimilarityMatch, error)

	// Metadata returns the stored index parameters, or nil before the first
	// successful index run.
	Metadata(ctx context.Context) (*Metadata, error)

	// SetMetadata replaces the stored index parameters.
	SetMetadata(ctx context.Context, meta *Metadata) error

	// Stats reports store contents and on-disk size.
	Stats(ctx context.Context) (*Stats, error)

	// Reset drops all indexed data and metadata, keeping the schema.
	Reset(ctx context.Context) error

	Close() error
}
