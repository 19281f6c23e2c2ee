package types

import (
	"errors"
	"time"
)

// Match is a single recall result: one stored chunk ranked against the query.
// Matches are ordered by descending score; equal scores are ordered by source
// path, then sequence index, so results are reproducible across runs.
type Match struct {
	Score         float64 `json:"score"`
	SourcePath    string  `json:"source_path"`
	SequenceIndex int     `json:"sequence_index"`
	StartOffset   int     `json:"start_offset"`
	EndOffset     int     `json:"end_offset"`
	ChunkText     string  `json:"chunk_text"`
}

// Validate checks structural validity of a match.
func (m *Match) Validate() error {
	if m.SourcePath == "" {
		return errors.New("match source path is required")
	}
	if m.StartOffset < 0 || m.EndOffset < m.StartOffset {
		return errors.New("match offsets are inconsistent")
	}
	if m.SequenceIndex < 0 {
		return errors.New("match sequence index must be >= 0")
	}
	return nil
}

// IndexSummary reports what a single index run did. Per-file read failures
// are counted as skips and listed in Errors; they never abort the run.
type IndexSummary struct {
	FilesScanned   int           `json:"files_scanned"`
	FilesIndexed   int           `json:"files_indexed"`
	FilesUnchanged int           `json:"files_unchanged"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesDeleted   int           `json:"files_deleted"`
	ChunksCreated  int           `json:"chunks_created"`
	Duration       time.Duration `json:"duration_ns"`
	Errors         []string      `json:"errors,omitempty"`
}
