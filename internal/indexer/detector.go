package indexer

import (
	"github.com/ragrep/ragrep/internal/scanner"
	"github.com/ragrep/ragrep/internal/storage"
)

// ChangeSet partitions the scanned files against the stored state.
type ChangeSet struct {
	Added     []scanner.FileInfo
	Modified  []scanner.FileInfo
	Unchanged []scanner.FileInfo
	Deleted   []string // paths present in the store but gone from disk
}

// DetectChanges diffs the scan result against the stored file records.
// In mtime mode a file is stale when its size or mtime differs from the
// record; in hash mode the content hashes decide and timestamps are
// ignored, so a touch without an edit does not trigger a re-embed.
func DetectChanges(scanned []scanner.FileInfo, stored []storage.FileRecord, useHash bool) ChangeSet {
	byPath := make(map[string]storage.FileRecord, len(stored))
	for _, rec := range stored {
		byPath[rec.Path] = rec
	}

	var cs ChangeSet
	for _, f := range scanned {
		rec, ok := byPath[f.Path]
		if !ok {
			cs.Added = append(cs.Added, f)
			continue
		}
		delete(byPath, f.Path)

		var stale bool
		if useHash {
			stale = f.Hash != rec.ContentHash
		} else {
			stale = f.Size != rec.Size || f.ModTime.UnixNano() != rec.MtimeNS
		}
		if stale {
			cs.Modified = append(cs.Modified, f)
		} else {
			cs.Unchanged = append(cs.Unchanged, f)
		}
	}

	// Whatever is left in the map exists only in the store.
	for path := range byPath {
		cs.Deleted = append(cs.Deleted, path)
	}
	return cs
}
