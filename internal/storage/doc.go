// Package storage persists the index in a single SQLite file colocated with
// the indexed root.
//
// The store holds four tables: files, chunks, embeddings, and a metadata
// key-value table recording the parameters the index was built with. Chunks
// and embeddings cascade on file deletion, so a file row going away removes
// everything derived from it.
//
// All mutations for one source file happen inside one transaction. A crash
// mid-run can lose whole files from the index but can never leave a file
// with half its chunks.
//
// Two SQLite drivers are supported via build tags: the default pure Go
// driver (modernc.org/sqlite) needs no C toolchain; building with the cgo
// tag selects github.com/mattn/go-sqlite3.
package storage
