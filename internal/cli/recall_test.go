package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragrep/ragrep/pkg/types"
)

func TestEffectiveLimit(t *testing.T) {
	// An explicit flag wins over the configured default.
	assert.Equal(t, 7, effectiveLimit(7, 20))
	// Without a flag the configured default applies.
	assert.Equal(t, 20, effectiveLimit(0, 20))
	// Neither set: defer to the engine's own default.
	assert.Equal(t, 0, effectiveLimit(0, 0))
	assert.Equal(t, 0, effectiveLimit(-1, -1))
}

func TestPrintMatches(t *testing.T) {
	var buf bytes.Buffer
	printMatches(&buf, nil)
	assert.Equal(t, "no matches\n", buf.String())

	buf.Reset()
	printMatches(&buf, []types.Match{
		{
			Score:         0.9876,
			SourcePath:    "docs/auth.md",
			SequenceIndex: 2,
			StartOffset:   1600,
			EndOffset:     2100,
			ChunkText:     "sessions are signed\nand rotated hourly\n",
		},
	})
	out := buf.String()
	assert.Contains(t, out, "1. docs/auth.md#2 (score 0.9876, bytes 1600-2100)")
	assert.Contains(t, out, "   sessions are signed\n")
	assert.Contains(t, out, "   and rotated hourly\n")
}
