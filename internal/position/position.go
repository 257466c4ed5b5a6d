// Package position translates between LSP positions, which count code units
// per line in the session's negotiated encoding, and byte offsets into
// source text. All conversions clamp out-of-range input to the nearest valid
// location rather than failing.
package position

import (
	"fmt"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Encoding is the unit a Position.Character counts.
type Encoding int

const (
	// UTF16 counts UTF-16 code units, the LSP default.
	UTF16 Encoding = iota
	// UTF8 counts bytes.
	UTF8
)

// String returns the LSP capability label for the encoding.
func (e Encoding) String() string {
	if e == UTF8 {
		return "utf-8"
	}

	return "utf-16"
}

// ParseEncoding parses an LSP capability label.
func ParseEncoding(label string) (Encoding, error) {
	switch label {
	case "utf-16", "":
		return UTF16, nil
	case "utf-8":
		return UTF8, nil
	default:
		return UTF16, fmt.Errorf("unsupported position encoding %q", label)
	}
}

// units returns how many code units the rune occupies in the encoding.
func (e Encoding) units(r rune, byteSize int) int {
	if e == UTF8 {
		return byteSize
	}

	if r > 0xFFFF {
		return 2
	}

	return 1
}

// OffsetForPosition converts an LSP position to a byte offset into text.
// Positions beyond the end of a line stop at the line break; lines beyond
// the end of the text stop at the end of the text.
func OffsetForPosition(text string, pos protocol.Position, enc Encoding) int {
	offset := 0
	line := protocol.UInteger(0)

	for offset < len(text) && line < pos.Line {
		if text[offset] == '\n' {
			line++
		}
		offset++
	}

	if line < pos.Line {
		return len(text)
	}

	units := protocol.UInteger(0)

	for offset < len(text) && units < pos.Character {
		if text[offset] == '\n' {
			break
		}

		r, size := utf8.DecodeRuneInString(text[offset:])
		need := protocol.UInteger(enc.units(r, size))

		if units+need > pos.Character {
			break
		}

		units += need
		offset += size
	}

	return offset
}

// PositionForOffset converts a byte offset into text to an LSP position.
// Offsets out of range clamp to the nearest text boundary; offsets inside a
// multi-byte rune clamp to the rune's start.
func PositionForOffset(text string, offset int, enc Encoding) protocol.Position {
	if offset < 0 {
		offset = 0
	}

	if offset > len(text) {
		offset = len(text)
	}

	line := protocol.UInteger(0)
	lineStart := 0

	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	units := protocol.UInteger(0)

	for i := lineStart; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i+size > offset {
			break
		}

		units += protocol.UInteger(enc.units(r, size))
		i += size
	}

	return protocol.Position{Line: line, Character: units}
}

// SpanForRange converts an LSP range to a half-open byte span into text.
// An inverted range collapses to its start.
func SpanForRange(text string, rng protocol.Range, enc Encoding) (start, end int) {
	start = OffsetForPosition(text, rng.Start, enc)
	end = OffsetForPosition(text, rng.End, enc)

	if end < start {
		end = start
	}

	return start, end
}

// RangeForSpan converts a half-open byte span into text to an LSP range.
func RangeForSpan(text string, start, end int, enc Encoding) protocol.Range {
	if end < start {
		end = start
	}

	return protocol.Range{
		Start: PositionForOffset(text, start, enc),
		End:   PositionForOffset(text, end, enc),
	}
}
