// Package workspace tracks every file the editor session knows about: the
// URI↔id table, per-file cache state, binary resources, and fonts. It
// reconciles editor-driven edits with on-disk state and is the state the
// compiler-query bridge exposes to the engine.
package workspace

import (
	"log/slog"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/observability"
)

// libraryName is the scope name of the engine's standard library value.
const libraryName = "std"

// Options configures a Workspace. Zero values mean: real file system, no
// font directories, discard-level logging, no metrics.
type Options struct {
	// FS overrides the file-system collaborator, mainly for tests.
	FS FS
	// FontDirs are directories scanned recursively for font files.
	FontDirs []string
	// EmbeddedFonts are fonts compiled into the binary.
	EmbeddedFonts []compiler.Font
	// LibraryVersion versions the standard library value so engine
	// upgrades invalidate memoized results.
	LibraryVersion string
	// Logger receives out-of-band errors from degraded query paths.
	Logger *slog.Logger
	// Metrics receives cache and pass instrumentation.
	Metrics *observability.Metrics
}

// Workspace aggregates the session's mutable state (sources, resources)
// with its immutable compile environment (library, fonts) and the detached
// placeholder source used when resolution fails irrecoverably.
type Workspace struct {
	Sources   *SourceManager
	Resources *ResourceManager
	Fonts     *FontManager

	library  *compiler.Library
	detached compiler.Source
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New builds a Workspace from options.
func New(opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fontBuilder := NewFontManagerBuilder().WithEmbedded(opts.EmbeddedFonts)
	for _, dir := range opts.FontDirs {
		fontBuilder = fontBuilder.WithDir(dir)
	}

	return &Workspace{
		Sources:   NewSourceManager(opts.FS, opts.Metrics),
		Resources: NewResourceManager(opts.FS),
		Fonts:     fontBuilder.Build(),
		library:   compiler.NewLibrary(libraryName, opts.LibraryVersion),
		detached:  compiler.Detached(""),
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Library returns the prehashed standard library value.
func (w *Workspace) Library() *compiler.Library {
	return w.library
}

// Detached returns the placeholder source for failed resolutions.
func (w *Workspace) Detached() compiler.Source {
	return w.detached
}

// Logger returns the workspace's out-of-band error logger.
func (w *Workspace) Logger() *slog.Logger {
	return w.logger
}

// Metrics returns the workspace's instrumentation, possibly nil.
func (w *Workspace) Metrics() *observability.Metrics {
	return w.metrics
}
