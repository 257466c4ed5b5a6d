package compiler

import (
	"errors"
	"fmt"
	"io/fs"
)

// FileErrorKind classifies file and path resolution failures.
type FileErrorKind int

const (
	// FileNotFound means the path does not exist.
	FileNotFound FileErrorKind = iota
	// FilePermissionDenied means the path exists but cannot be read.
	FilePermissionDenied
	// FileOther covers every remaining I/O or decoding failure.
	FileOther
)

// String returns the kind as a short lowercase label.
func (k FileErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "not found"
	case FilePermissionDenied:
		return "permission denied"
	case FileOther:
		return "other"
	default:
		return "unknown"
	}
}

// FileError is the error type for all file I/O and path resolution failures
// crossing the World contract. Engine-reported problems are diagnostics, not
// FileErrors.
type FileError struct {
	Kind FileErrorKind
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file %s: %s: %v", e.Path, e.Kind, e.Err)
	}

	return fmt.Sprintf("file %s: %s", e.Path, e.Kind)
}

// Unwrap returns the underlying cause, if any.
func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError classifies err against the OS sentinel errors and wraps it.
// A nil err yields nil.
func NewFileError(path string, err error) *FileError {
	if err == nil {
		return nil
	}

	kind := FileOther

	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = FileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = FilePermissionDenied
	}

	return &FileError{Kind: kind, Path: path, Err: err}
}

// FileErrorKindOf returns the kind of err if it is (or wraps) a FileError,
// and FileOther otherwise.
func FileErrorKindOf(err error) FileErrorKind {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind
	}

	return FileOther
}
