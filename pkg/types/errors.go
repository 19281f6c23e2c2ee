package types

import "errors"

// Error taxonomy. Callers classify failures with errors.Is; each class has a
// distinct recovery path (see the per-class notes below).
var (
	// ErrProviderUnavailable indicates the embedding provider could not be
	// reached or failed during inference. Aborts the current index or query
	// call; nothing is partially written.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrModelMismatch indicates the active embedding model or its
	// dimensionality does not match what the store was built with. The store
	// must be rebuilt with --force before it can serve this model.
	ErrModelMismatch = errors.New("embedding model does not match indexed store")

	// ErrStoreCorrupt indicates the persistence file is unreadable or its
	// schema cannot be used by this binary. Fatal; never silently replaced
	// with an empty store.
	ErrStoreCorrupt = errors.New("store file is corrupt or unreadable")

	// ErrConfig indicates invalid configuration (chunk sizing, missing root).
	// Raised before any mutation.
	ErrConfig = errors.New("invalid configuration")

	// ErrRootMismatch indicates a recall or index targeted a different root
	// than the one the store was built from. Rebuild with --force to switch
	// roots.
	ErrRootMismatch = errors.New("indexed root does not match requested path")
)
