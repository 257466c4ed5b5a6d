package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileError_Classification(t *testing.T) {
	t.Parallel()

	err := NewFileError("/a.typ", fs.ErrNotExist)
	assert.Equal(t, FileNotFound, err.Kind)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	err = NewFileError("/a.typ", fs.ErrPermission)
	assert.Equal(t, FilePermissionDenied, err.Kind)

	err = NewFileError("/a.typ", errors.New("disk on fire"))
	assert.Equal(t, FileOther, err.Kind)

	assert.Nil(t, NewFileError("/a.typ", nil))
}

func TestFileError_Message(t *testing.T) {
	t.Parallel()

	err := NewFileError("/a.typ", fs.ErrNotExist)
	assert.Contains(t, err.Error(), "/a.typ")
	assert.Contains(t, err.Error(), "not found")

	bare := &FileError{Kind: FilePermissionDenied, Path: "/b.typ"}
	assert.Contains(t, bare.Error(), "permission denied")
}

func TestFileErrorKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("loading: %w", NewFileError("/a.typ", fs.ErrNotExist))
	assert.Equal(t, FileNotFound, FileErrorKindOf(wrapped))

	assert.Equal(t, FileOther, FileErrorKindOf(errors.New("plain")))
}

func TestDetached(t *testing.T) {
	t.Parallel()

	src := Detached("fallback")
	assert.True(t, src.IsDetached())
	assert.Equal(t, DetachedID, src.ID)
	assert.Empty(t, src.Path)

	regular := Source{ID: 0, Path: "/a.typ", Text: ""}
	assert.False(t, regular.IsDetached())
}

func TestLibrary_Fingerprint(t *testing.T) {
	t.Parallel()

	lib := NewLibrary("std", "1.0")
	require.Equal(t, "std", lib.Name())
	require.Equal(t, "1.0", lib.Version())

	// Same inputs hash the same; any input change rehashes.
	assert.Equal(t, lib.Fingerprint(), NewLibrary("std", "1.0").Fingerprint())
	assert.NotEqual(t, lib.Fingerprint(), NewLibrary("std", "1.1").Fingerprint())
	assert.NotEqual(t, NewLibrary("ab", "c").Fingerprint(), NewLibrary("a", "bc").Fingerprint())
}

func TestFontBook(t *testing.T) {
	t.Parallel()

	book := NewFontBook([]FontInfo{{Family: "Serif", Variant: "regular"}})
	require.Equal(t, 1, book.Len())

	info, ok := book.Info(0)
	require.True(t, ok)
	assert.Equal(t, "Serif", info.Family)

	_, ok = book.Info(1)
	assert.False(t, ok)

	_, ok = book.Info(-1)
	assert.False(t, ok)
}
