package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testFile(path string) FileRecord {
	return FileRecord{
		Path:    path,
		Size:    42,
		MtimeNS: time.Now().UnixNano(),
	}
}

func testChunks(n int) ([]ChunkRecord, [][]float32) {
	chunks := make([]ChunkRecord, n)
	vectors := make([][]float32, n)
	for i := range chunks {
		chunks[i] = ChunkRecord{
			SequenceIndex: i,
			StartOffset:   i * 80,
			EndOffset:     i*80 + 100,
			Content:       "chunk content " + string(rune('a'+i)),
		}
		vectors[i] = []float32{float32(i + 1), 0, 0}
	}
	return chunks, vectors
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	files, err := s.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)

	meta, err := s.Metadata(context.Background())
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s1, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer s2.Close()
}

func TestReplaceFileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks, vectors := testChunks(3)
	require.NoError(t, s.ReplaceFile(ctx, testFile("src/a.go"), chunks, vectors, "test-model"))

	files, err := s.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/a.go", files[0].Path)
	assert.Equal(t, 3, files[0].ChunkCount)

	rec, err := s.GetFile(ctx, "src/a.go")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, files[0].ID, rec.ID)

	missing, err := s.GetFile(ctx, "src/missing.go")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReplaceFileSwapsOldRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks, vectors := testChunks(3)
	require.NoError(t, s.ReplaceFile(ctx, testFile("a.txt"), chunks, vectors, "m"))

	// Reindex the same path with fewer chunks.
	chunks2, vectors2 := testChunks(1)
	require.NoError(t, s.ReplaceFile(ctx, testFile("a.txt"), chunks2, vectors2, "m"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, 1, stats.ChunkCount)
	assert.Equal(t, 1, stats.EmbeddingCount)
}

func TestReplaceFileVectorMismatch(t *testing.T) {
	s := openTestStore(t)
	chunks, vectors := testChunks(3)
	err := s.ReplaceFile(context.Background(), testFile("a.txt"), chunks, vectors[:2], "m")
	assert.Error(t, err)
}

func TestDeleteFileCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks, vectors := testChunks(2)
	require.NoError(t, s.ReplaceFile(ctx, testFile("a.txt"), chunks, vectors, "m"))
	require.NoError(t, s.ReplaceFile(ctx, testFile("b.txt"), chunks, vectors, "m"))

	require.NoError(t, s.DeleteFile(ctx, "a.txt"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, 2, stats.ChunkCount)
	assert.Equal(t, 2, stats.EmbeddingCount)

	// Deleting an unknown path is a no-op.
	require.NoError(t, s.DeleteFile(ctx, "never-indexed.txt"))
}

func TestMetadataRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	in := &Metadata{
		RootPath:      "/srv/project",
		Provider:      "local",
		Model:         "local-sha256",
		Dimension:     256,
		ChunkSize:     1000,
		ChunkOverlap:  200,
		Staleness:     "mtime",
		LastIndexedAt: now,
	}
	require.NoError(t, s.SetMetadata(ctx, in))

	out, err := s.Metadata(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.RootPath, out.RootPath)
	assert.Equal(t, in.Provider, out.Provider)
	assert.Equal(t, in.Model, out.Model)
	assert.Equal(t, in.Dimension, out.Dimension)
	assert.Equal(t, in.ChunkSize, out.ChunkSize)
	assert.Equal(t, in.ChunkOverlap, out.ChunkOverlap)
	assert.Equal(t, in.Staleness, out.Staleness)
	assert.True(t, out.LastIndexedAt.Equal(now))

	// Overwrite wins.
	in.Model = "other-model"
	require.NoError(t, s.SetMetadata(ctx, in))
	out, err = s.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "other-model", out.Model)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks, vectors := testChunks(4)
	require.NoError(t, s.ReplaceFile(ctx, testFile("a.txt"), chunks, vectors, "m"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, 4, stats.ChunkCount)
	assert.Equal(t, 4, stats.EmbeddingCount)
	assert.Greater(t, stats.StoreSizeBytes, int64(0))
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks, vectors := testChunks(2)
	require.NoError(t, s.ReplaceFile(ctx, testFile("a.txt"), chunks, vectors, "m"))
	require.NoError(t, s.SetMetadata(ctx, &Metadata{RootPath: "/x", Model: "m"}))

	require.NoError(t, s.Reset(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.FileCount)
	assert.Zero(t, stats.ChunkCount)
	assert.Zero(t, stats.EmbeddingCount)

	meta, err := s.Metadata(ctx)
	require.NoError(t, err)
	assert.Nil(t, meta)
}
