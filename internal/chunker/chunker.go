// Package chunker splits file content into fixed-size overlapping windows.
// Chunking is deterministic: the same text and parameters always yield the
// same chunks, which keeps stored chunk identities stable across runs.
package chunker

import (
	"fmt"
	"strings"

	"github.com/ragrep/ragrep/pkg/types"
)

// Chunk is a contiguous slice of a source file.
type Chunk struct {
	SequenceIndex int
	StartOffset   int
	EndOffset     int
	Text          string
}

// Chunker produces overlapping windows of at most Size bytes, with
// consecutive window starts Size-Overlap bytes apart.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunk parameters and returns a Chunker.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", types.ErrConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, chunk size), got %d", types.ErrConfig, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured window size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured window overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text into windows. Window starts advance by a constant
// stride of size-overlap; each window end is pulled back to the nearest
// preceding newline when one falls within the last overlap bytes of the
// window, so chunks tend to break on line boundaries. The pull-back never
// exceeds the overlap, so consecutive windows cover the text with no gaps.
//
// Empty text yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	if len(text) == 0 {
		return nil
	}
	stride := c.size - c.overlap
	chunks := make([]Chunk, 0, (len(text)+stride-1)/stride)
	for start := 0; start < len(text); start += stride {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else if c.overlap > 0 {
			// Only look back within the overlap region. A newline earlier
			// than that would open a gap before the next window.
			window := text[end-c.overlap : end]
			if idx := strings.LastIndexByte(window, '\n'); idx >= 0 {
				end = end - c.overlap + idx + 1
			}
		}
		chunks = append(chunks, Chunk{
			SequenceIndex: len(chunks),
			StartOffset:   start,
			EndOffset:     end,
			Text:          text[start:end],
		})
	}
	return chunks
}
