package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ragrep/ragrep/pkg/types"
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite benefits from single writer

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Open opens or creates the store at dbPath and applies pending schema
// migrations. An existing file that is not a usable store surfaces as
// ErrStoreCorrupt rather than being replaced.
func Open(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreCorrupt, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrStoreCorrupt, err)
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrStoreCorrupt, err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListFiles returns every indexed file sorted by path.
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, size_bytes, mtime_ns, content_hash, chunk_count
		 FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.Path, &f.Size, &f.MtimeNS, &f.ContentHash, &f.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetFile returns the record for path, or nil when the path is not indexed.
func (s *SQLiteStore) GetFile(ctx context.Context, path string) (*FileRecord, error) {
	var f FileRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, size_bytes, mtime_ns, content_hash, chunk_count
		 FROM files WHERE path = ?`, path).
		Scan(&f.ID, &f.Path, &f.Size, &f.MtimeNS, &f.ContentHash, &f.ChunkCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	return &f, nil
}

// ReplaceFile swaps a file's indexed state in one transaction. Chunk and
// embedding rows are inserted in chunk order; the old file row, when
// present, is deleted first and its dependents cascade away.
func (s *SQLiteStore) ReplaceFile(ctx context.Context, file FileRecord, chunks []ChunkRecord, vectors [][]float32, model string) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, file.Path); err != nil {
		return fmt.Errorf("failed to delete old rows for %s: %w", file.Path, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (path, size_bytes, mtime_ns, content_hash, chunk_count, indexed_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		file.Path, file.Size, file.MtimeNS, file.ContentHash, len(chunks))
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", file.Path, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get file id: %w", err)
	}

	for i, chunk := range chunks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (file_id, sequence_index, start_offset, end_offset, content)
			 VALUES (?, ?, ?, ?, ?)`,
			fileID, chunk.SequenceIndex, chunk.StartOffset, chunk.EndOffset, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d of %s: %w", chunk.SequenceIndex, file.Path, err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get chunk id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings (chunk_id, vector, dimension, model)
			 VALUES (?, ?, ?, ?)`,
			chunkID, SerializeVector(vectors[i]), len(vectors[i]), model); err != nil {
			return fmt.Errorf("failed to insert embedding for chunk %d of %s: %w", chunk.SequenceIndex, file.Path, err)
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file row; chunks and embeddings cascade.
func (s *SQLiteStore) DeleteFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return tx.Commit()
}

// Metadata keys stored in the metadata table.
const (
	metaRootPath      = "root_path"
	metaProvider      = "provider"
	metaModel         = "model"
	metaDimension     = "dimension"
	metaChunkSize     = "chunk_size"
	metaChunkOverlap  = "chunk_overlap"
	metaStaleness     = "staleness"
	metaLastIndexedAt = "last_indexed_at"
)

// Metadata returns the stored index parameters, or nil before the first run.
func (s *SQLiteStore) Metadata(ctx context.Context) (*Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(kv) == 0 {
		return nil, nil
	}

	meta := &Metadata{
		RootPath:  kv[metaRootPath],
		Provider:  kv[metaProvider],
		Model:     kv[metaModel],
		Staleness: kv[metaStaleness],
	}
	if v := kv[metaDimension]; v != "" {
		if meta.Dimension, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: bad dimension metadata %q", types.ErrStoreCorrupt, v)
		}
	}
	if v := kv[metaChunkSize]; v != "" {
		if meta.ChunkSize, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: bad chunk_size metadata %q", types.ErrStoreCorrupt, v)
		}
	}
	if v := kv[metaChunkOverlap]; v != "" {
		if meta.ChunkOverlap, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: bad chunk_overlap metadata %q", types.ErrStoreCorrupt, v)
		}
	}
	if v := kv[metaLastIndexedAt]; v != "" {
		if meta.LastIndexedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("%w: bad last_indexed_at metadata %q", types.ErrStoreCorrupt, v)
		}
	}
	return meta, nil
}

// SetMetadata replaces all stored index parameters in one transaction.
func (s *SQLiteStore) SetMetadata(ctx context.Context, meta *Metadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pairs := map[string]string{
		metaRootPath:      meta.RootPath,
		metaProvider:      meta.Provider,
		metaModel:         meta.Model,
		metaDimension:     strconv.Itoa(meta.Dimension),
		metaChunkSize:     strconv.Itoa(meta.ChunkSize),
		metaChunkOverlap:  strconv.Itoa(meta.ChunkOverlap),
		metaStaleness:     meta.Staleness,
		metaLastIndexedAt: meta.LastIndexedAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("failed to set metadata %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Stats reports store contents and the database page footprint.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&stats.FileCount); err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.ChunkCount); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&stats.EmbeddingCount); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to read page size: %w", err)
	}
	stats.StoreSizeBytes = pageCount * pageSize

	meta, err := s.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		stats.Model = meta.Model
		stats.LastIndexedAt = meta.LastIndexedAt
	}
	return stats, nil
}

// Reset drops all data while keeping the schema, for --force rebuilds.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM files`,
		`DELETE FROM metadata`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}
	return tx.Commit()
}
