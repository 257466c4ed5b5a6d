package workspace

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
)

// fontExtensions are the file extensions scanned for during discovery.
var fontExtensions = map[string]bool{ //nolint:gochecknoglobals // lookup table
	".ttf": true,
	".otf": true,
	".ttc": true,
}

// fontSlot pairs one catalog entry with its lazily loaded bytes. Embedded
// fonts are resident from construction; file-backed fonts load through the
// resource cache on first use.
type fontSlot struct {
	mu     sync.Mutex
	info   compiler.FontInfo
	data   []byte
	loaded bool
}

// FontManager owns the font catalog and the lazily loaded font data. The
// catalog is immutable after Build, which is what lets the compiler treat
// catalog indices as stable handles for a whole session.
type FontManager struct {
	book  *compiler.FontBook
	slots []*fontSlot
}

// FontManagerBuilder accumulates font sources before the catalog freezes.
type FontManagerBuilder struct {
	dirs     []string
	embedded []compiler.Font
}

// NewFontManagerBuilder creates an empty builder.
func NewFontManagerBuilder() *FontManagerBuilder {
	return &FontManagerBuilder{}
}

// WithDir adds a directory to scan recursively for font files.
func (b *FontManagerBuilder) WithDir(dir string) *FontManagerBuilder {
	b.dirs = append(b.dirs, dir)

	return b
}

// WithEmbedded adds fonts whose bytes are already resident, typically from
// go:embed in the binary.
func (b *FontManagerBuilder) WithEmbedded(fonts []compiler.Font) *FontManagerBuilder {
	b.embedded = append(b.embedded, fonts...)

	return b
}

// Build scans the configured directories and freezes the catalog. Directory
// scans run concurrently; unreadable directories are skipped, not fatal —
// a missing font directory should degrade font choice, never the server.
func (b *FontManagerBuilder) Build() *FontManager {
	var (
		mu    sync.Mutex
		slots []*fontSlot
	)

	for _, font := range b.embedded {
		slots = append(slots, &fontSlot{info: font.Info, data: font.Data, loaded: true})
	}

	var group errgroup.Group

	for _, dir := range b.dirs {
		group.Go(func() error {
			found := scanFontDir(dir)

			mu.Lock()
			slots = append(slots, found...)
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	infos := make([]compiler.FontInfo, len(slots))
	for i, sl := range slots {
		infos[i] = sl.info
	}

	return &FontManager{
		book:  compiler.NewFontBook(infos),
		slots: slots,
	}
}

// scanFontDir walks one directory collecting font files.
func scanFontDir(dir string) []*fontSlot {
	var found []*fontSlot

	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}

		if entry.IsDir() || !fontExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		found = append(found, &fontSlot{info: fontInfoForPath(path)})

		return nil
	})

	return found
}

// fontInfoForPath derives catalog metadata from the file name. Full font
// parsing is the engine's business; the catalog only needs to distinguish
// faces.
func fontInfoForPath(path string) compiler.FontInfo {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	lower := strings.ToLower(base)

	variant := "regular"

	switch {
	case strings.Contains(lower, "bolditalic"), strings.Contains(lower, "bold-italic"):
		variant = "bold-italic"
	case strings.Contains(lower, "bold"):
		variant = "bold"
	case strings.Contains(lower, "italic"), strings.Contains(lower, "oblique"):
		variant = "italic"
	}

	return compiler.FontInfo{Family: base, Variant: variant, Path: path}
}

// Book returns the frozen catalog.
func (f *FontManager) Book() *compiler.FontBook {
	return f.book
}

// Font returns the font at the catalog index, loading its bytes through the
// resource cache on first use. The second result is false for an index out
// of range or a file that cannot be read.
func (f *FontManager) Font(index int, resources *ResourceManager) (compiler.Font, bool) {
	if index < 0 || index >= len(f.slots) {
		return compiler.Font{}, false
	}

	sl := f.slots[index]

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.loaded {
		data, err := resources.GetOrInsert(PathToURI(sl.info.Path))
		if err != nil {
			return compiler.Font{}, false
		}

		sl.data = data
		sl.loaded = true
	}

	return compiler.Font{Info: sl.info, Data: sl.data}, true
}
