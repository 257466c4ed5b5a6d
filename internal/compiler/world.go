// Package compiler defines the vocabulary shared between the workspace and
// the incremental compile engine: file handles, source snapshots, the
// synchronous World query contract, and the engine seam itself. The engine
// is an external collaborator; this package deliberately contains no parsing
// or layout logic.
package compiler

// FileID is a stable small-integer handle for one source file. IDs are
// assigned monotonically on first registration of a path and are never
// reused or reassigned.
type FileID uint16

// DetachedID is the reserved handle for the detached placeholder source
// returned when a file cannot be resolved during a pass.
const DetachedID FileID = 0xFFFF

// Source is the compiler-facing snapshot of one file: its handle, its
// filesystem path, and the full text at snapshot time. The text is an
// immutable Go string, so a snapshot stays valid for the duration of a pass
// regardless of concurrent edits to the underlying file.
type Source struct {
	ID   FileID
	Path string
	Text string
}

// Detached returns a placeholder source that belongs to no file. It is the
// degraded result of a failed cache fill inside a running pass.
func Detached(text string) Source {
	return Source{ID: DetachedID, Path: "", Text: text}
}

// IsDetached reports whether the snapshot is the placeholder source.
func (s Source) IsDetached() bool {
	return s.ID == DetachedID
}

// World is the synchronous, memoization-compatible query contract the
// incremental engine consumes during one pass. Implementations may block
// inside any method to fill caches; they must never return partially
// cached state.
type World interface {
	// Library returns the immutable standard library value.
	Library() *Library

	// Main returns the compilation target of the current pass.
	//
	// The workspace-wide adapter has no valid answer and panics; every
	// pass must go through a per-call wrapper that carries its target.
	Main() Source

	// Resolve maps a path to a file handle, loading and caching the file
	// on first sight. Failures are FileErrors.
	Resolve(path string) (FileID, error)

	// Source returns the snapshot for a handle. The contract has no error
	// channel: if the slot cannot be filled, implementations return a
	// detached placeholder and report the failure out of band.
	Source(id FileID) Source

	// Book returns the font catalog.
	Book() *FontBook

	// Font returns the font at the given catalog index, loading it on
	// first use. The second result is false if the font is unavailable.
	Font(index int) (Font, bool)

	// File returns the raw bytes of a non-source resource.
	File(path string) ([]byte, error)
}
