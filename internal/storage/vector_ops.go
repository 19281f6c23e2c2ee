package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// candidate is one scored embedding before text hydration.
type candidate struct {
	chunkID       int64
	score         float64
	filePath      string
	sequenceIndex int
	startOffset   int
	endOffset     int
}

// SimilarityQuery linearly scans all embeddings, scores them against vector,
// and returns the top limit matches. Two passes keep memory bounded: the
// scan reads vectors and chunk coordinates only; chunk text is fetched for
// the winners afterward.
func (s *SQLiteStore) SimilarityQuery(ctx context.Context, vector []float32, limit int) ([]SimilarityMatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.chunk_id, e.vector, f.path, c.sequence_index, c.start_offset, c.end_offset
		 FROM embeddings e
		 JOIN chunks c ON c.id = e.chunk_id
		 JOIN files f ON f.id = c.file_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	defer rows.Close()

	var candidates []candidate
	for rows.Next() {
		var c candidate
		var blob []byte
		if err := rows.Scan(&c.chunkID, &blob, &c.filePath, &c.sequenceIndex, &c.startOffset, &c.endOffset); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		c.score = CosineSimilarity(vector, DeserializeVector(blob))
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	texts, err := s.fetchChunkTexts(ctx, candidates)
	if err != nil {
		return nil, err
	}

	matches := make([]SimilarityMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = SimilarityMatch{
			ChunkID:       c.chunkID,
			Score:         c.score,
			FilePath:      c.filePath,
			SequenceIndex: c.sequenceIndex,
			StartOffset:   c.startOffset,
			EndOffset:     c.endOffset,
			Content:       texts[c.chunkID],
		}
	}
	return matches, nil
}

func (s *SQLiteStore) fetchChunkTexts(ctx context.Context, candidates []candidate) (map[int64]string, error) {
	placeholders := make([]string, len(candidates))
	args := make([]interface{}, len(candidates))
	for i, c := range candidates {
		placeholders[i] = "?"
		args[i] = c.chunkID
	}
	query := fmt.Sprintf(`SELECT id, content FROM chunks WHERE id IN (%s)`,
		strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunk texts: %w", err)
	}
	defer rows.Close()

	texts := make(map[int64]string, len(candidates))
	for rows.Next() {
		var id int64
		var content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk text: %w", err)
		}
		texts[id] = content
	}
	return texts, rows.Err()
}

// sortCandidates orders by descending score, then file path, then sequence
// index, so equal scores rank deterministically.
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].filePath != candidates[j].filePath {
			return candidates[i].filePath < candidates[j].filePath
		}
		return candidates[i].sequenceIndex < candidates[j].sequenceIndex
	})
}

// SerializeVector encodes a float32 vector as a little-endian blob.
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// DeserializeVector decodes a little-endian float32 blob.
func DeserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. Mismatched dimensions or a zero-magnitude vector score
// negative infinity so they sort after every real match.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(-1)
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return math.Inf(-1)
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
