package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragrep/ragrep/internal/storage"
)

func TestVersionReportsBuildAndDriver(t *testing.T) {
	// Which SQLite driver is compiled in matters when debugging a store, so
	// --version names it.
	assert.Contains(t, rootCmd.Version, storage.BuildMode)
	assert.Contains(t, rootCmd.Version, storage.DriverName)
}
