package workspace

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/position"
)

// Source is one file's editable text plus its compiler-facing identity.
// A Source is owned by exactly one manager slot and is mutated only under
// that slot's write lock, so reads through a snapshot never observe a
// half-applied edit.
type Source struct {
	id   SourceID
	uri  string
	path string
	text string
}

// newSource builds a Source from editor-supplied text. A URI that does not
// map to a path leaves the path empty; such a source still compiles, it just
// cannot be referenced by path from other files.
func newSource(id SourceID, uri, text string) *Source {
	path, err := URIToPath(uri)
	if err != nil {
		path = ""
	}

	return &Source{id: id, uri: uri, path: path, text: text}
}

// newSourceFromFile builds a Source by loading the URI's file from disk.
// Failures carry the compiler's file-error taxonomy.
func newSourceFromFile(fsys FS, id SourceID, uri string) (*Source, error) {
	path, err := URIToPath(uri)
	if err != nil {
		return nil, &compiler.FileError{Kind: compiler.FileOther, Path: uri, Err: err}
	}

	text, err := readText(fsys, path)
	if err != nil {
		return nil, err
	}

	return &Source{id: id, uri: uri, path: path, text: text}, nil
}

// ID returns the source's handle.
func (s *Source) ID() SourceID {
	return s.id
}

// URI returns the source's document URI.
func (s *Source) URI() string {
	return s.uri
}

// Path returns the source's filesystem path, or "" if the URI has none.
func (s *Source) Path() string {
	return s.path
}

// Text returns the current text.
func (s *Source) Text() string {
	return s.text
}

// Snapshot returns the compiler-facing view of the current text. The
// returned value stays valid across later edits.
func (s *Source) Snapshot() compiler.Source {
	return compiler.Source{ID: s.id.FileID(), Path: s.path, Text: s.text}
}

// Edit splices replacement over the given editor range. The range arrives
// in code units of the negotiated encoding and is translated to byte
// offsets before the text is touched.
func (s *Source) Edit(rng protocol.Range, replacement string, enc position.Encoding) {
	start, end := position.SpanForRange(s.text, rng, enc)
	s.text = s.text[:start] + replacement + s.text[end:]
}

// Replace swaps the whole document, for clients that send full-content
// changes instead of incremental ones.
func (s *Source) Replace(text string) {
	s.text = text
}

// RangeForSpan converts a byte span reported by the engine into an editor
// range over the current text.
func (s *Source) RangeForSpan(span compiler.ByteSpan, enc position.Encoding) protocol.Range {
	return position.RangeForSpan(s.text, span.Start, span.End, enc)
}
