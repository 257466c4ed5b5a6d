package workspace

import (
	"sync"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
)

// ResourceManager caches the raw bytes of non-source files (images, data
// files, font files) keyed by URI. Once inserted, bytes are served from
// memory for the rest of the session; the engine's memoization keys change
// when a watched resource changes, so staleness is handled upstream.
type ResourceManager struct {
	mu        sync.RWMutex
	resources map[string][]byte
	fsys      FS
}

// NewResourceManager creates an empty resource cache reading through fsys.
// A nil fsys means the real file system.
func NewResourceManager(fsys FS) *ResourceManager {
	if fsys == nil {
		fsys = OSFS()
	}

	return &ResourceManager{
		resources: make(map[string][]byte),
		fsys:      fsys,
	}
}

// GetOrInsert returns the resource's bytes, loading them from disk on first
// request. The load runs without the lock, so concurrent first requests may
// read twice; the first stored result wins. Failures carry the compiler's
// file-error taxonomy.
func (r *ResourceManager) GetOrInsert(uri string) ([]byte, error) {
	r.mu.RLock()
	data, ok := r.resources[uri]
	r.mu.RUnlock()

	if ok {
		return data, nil
	}

	path, err := URIToPath(uri)
	if err != nil {
		return nil, &compiler.FileError{Kind: compiler.FileOther, Path: uri, Err: err}
	}

	loaded, err := r.fsys.ReadFile(path)
	if err != nil {
		return nil, compiler.NewFileError(path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, raced := r.resources[uri]; raced {
		return existing, nil
	}

	r.resources[uri] = loaded

	return loaded, nil
}

// Invalidate drops the cached bytes for a URI, forcing a reload on next
// request. Called from the same file-watch path that staleness-marks
// sources.
func (r *ResourceManager) Invalidate(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.resources, uri)
}

// Len returns the number of cached resources.
func (r *ResourceManager) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resources)
}
