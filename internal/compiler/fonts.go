package compiler

// FontInfo is one catalog entry: enough metadata for the engine to pick a
// face without forcing the font file into memory.
type FontInfo struct {
	// Family is the font family name.
	Family string
	// Variant distinguishes faces within a family (e.g. "bold", "italic").
	Variant string
	// Path locates the font file for lazy loading. Empty for embedded
	// fonts, which are resident from the start.
	Path string
}

// Font is a loaded font: its catalog entry plus the raw file bytes.
type Font struct {
	Info FontInfo
	Data []byte
}

// FontBook is the immutable font catalog built at startup. Indices into the
// book are the engine's font handles.
type FontBook struct {
	infos []FontInfo
}

// NewFontBook builds a catalog from the given entries.
func NewFontBook(infos []FontInfo) *FontBook {
	return &FontBook{infos: infos}
}

// Len returns the number of catalog entries.
func (b *FontBook) Len() int {
	return len(b.infos)
}

// Info returns the catalog entry at index. The second result is false if
// the index is out of range.
func (b *FontBook) Info(index int) (FontInfo, bool) {
	if index < 0 || index >= len(b.infos) {
		return FontInfo{}, false
	}

	return b.infos[index], true
}
