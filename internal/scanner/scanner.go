// Package scanner walks an indexed root and enumerates the candidate files
// for indexing, applying ignore rules and size limits.
package scanner

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/ragrep/ragrep/pkg/types"
)

// IgnoreFileName is the project-local ignore file, same syntax as .gitignore.
const IgnoreFileName = ".ragrepignore"

// defaultIgnores are always excluded regardless of ignore files.
var defaultIgnores = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	"__pycache__/",
	".venv/",
	"venv/",
	"vendor/",
	"dist/",
	"build/",
	"target/",
	".idea/",
	".vscode/",
	"*.pyc",
	"*.min.js",
	"*.min.css",
	".DS_Store",
	".ragrep.db",
	".ragrep.db-wal",
	".ragrep.db-shm",
}

// FileInfo describes one candidate file found under the root. Path is
// relative to the root with forward slashes; ModTime carries full
// filesystem precision.
type FileInfo struct {
	Path    string
	AbsPath string
	Size    int64
	ModTime time.Time
	Hash    string // set only by HashAll
}

// Scanner enumerates indexable files under a root directory.
type Scanner struct {
	root        string
	maxFileSize int64
	matcher     *ignore.GitIgnore
}

// New builds a Scanner for root. Ignore rules are the built-in defaults plus
// the root's .gitignore and .ragrepignore files when present.
func New(root string, maxFileSize int64) (*Scanner, error) {
	lines := make([]string, 0, len(defaultIgnores)+32)
	lines = append(lines, defaultIgnores...)
	for _, name := range []string{".gitignore", IgnoreFileName} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	return &Scanner{
		root:        root,
		maxFileSize: maxFileSize,
		matcher:     ignore.CompileIgnoreLines(lines...),
	}, nil
}

// Scan walks the root and returns the candidate files sorted by relative
// path. Ignored directories are pruned without descending; files over the
// size limit, symlinks, and other non-regular entries are dropped.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if s.matcher.MatchesPath(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > s.maxFileSize {
			return nil
		}
		files = append(files, FileInfo{
			Path:    rel,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// HashAll fills the Hash field of every file by reading and hashing its
// content. Hashing is read-only so it fans out across a bounded worker
// group; files that cannot be read keep an empty hash and are reported to
// the caller through the returned map of path to error.
func (s *Scanner) HashAll(files []FileInfo) (map[string]error, error) {
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	failures := make([]error, len(files))
	for i := range files {
		g.Go(func() error {
			h, err := HashFile(files[i].AbsPath)
			if err != nil {
				failures[i] = err
				return nil
			}
			files[i].Hash = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	failed := make(map[string]error)
	for i, err := range failures {
		if err != nil {
			failed[files[i].Path] = err
		}
	}
	return failed, nil
}

// HashFile returns the hex SHA-256 of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReadText reads a file and reports whether it looks like text. Binary
// detection is a NUL-byte probe over the first 8 KiB, the same heuristic
// git uses.
func ReadText(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// ValidateRoot checks that path is an existing directory.
func ValidateRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", types.ErrConfig, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", types.ErrConfig, path)
	}
	return nil
}
