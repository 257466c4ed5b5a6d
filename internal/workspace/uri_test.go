package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIToPath(t *testing.T) {
	t.Parallel()

	path, err := URIToPath("file:///home/user/doc.typ")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/doc.typ", path)

	// Percent-escapes decode.
	path, err = URIToPath("file:///home/user/my%20doc.typ")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/my doc.typ", path)

	// Bare paths pass through.
	path, err = URIToPath("/home/user/doc.typ")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/doc.typ", path)

	_, err = URIToPath("https://example.com/doc.typ")
	require.Error(t, err)
}

func TestPathToURI(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file:///home/user/doc.typ", PathToURI("/home/user/doc.typ"))
	assert.Equal(t, "file:///home/user/my%20doc.typ", PathToURI("/home/user/my doc.typ"))
}

func TestURIRoundTrip(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/a.typ", "/dir with space/b.typ", "/über/c.typ"} {
		back, err := URIToPath(PathToURI(path))
		require.NoError(t, err)
		assert.Equal(t, path, back)
	}
}
