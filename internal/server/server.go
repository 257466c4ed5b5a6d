// Package server wires the source cache, the world bridge, and the engine
// into a Language Server Protocol server. Protocol handling stays
// non-blocking: compile and evaluate passes run on their own bounded lane
// so the synchronous query contract can block on cache fills without
// stalling editor traffic.
package server

import (
	"log/slog"
	"runtime"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"golang.org/x/sync/semaphore"

	"github.com/Sumatoshi-tech/typlsp/internal/bridge"
	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/config"
	"github.com/Sumatoshi-tech/typlsp/internal/memo"
	"github.com/Sumatoshi-tech/typlsp/internal/observability"
	"github.com/Sumatoshi-tech/typlsp/internal/position"
	"github.com/Sumatoshi-tech/typlsp/internal/watch"
	"github.com/Sumatoshi-tech/typlsp/internal/workspace"
	"github.com/Sumatoshi-tech/typlsp/pkg/version"
)

// serverName identifies the server to clients and in logs.
const serverName = "typlsp"

// sourceExtension filters the native watcher to source files.
const sourceExtension = ".typ"

// ExportSink receives the artifact of an exporting compile pass.
type ExportSink func(src compiler.Source, doc *compiler.Document) error

// Options configures a Server. Engine is required; everything else has
// working defaults.
type Options struct {
	Config *config.Config
	Engine compiler.Engine
	Logger *slog.Logger
	// Export overrides the default write-PDF-next-to-source sink.
	Export ExportSink
	// FS overrides the file-system collaborator, mainly for tests.
	FS workspace.FS
	// EmbeddedFonts are fonts compiled into the binary, honored when the
	// config enables embedded fonts.
	EmbeddedFonts []compiler.Font
}

// Server is the LSP server over one workspace.
type Server struct {
	handler protocol.Handler

	ws      *workspace.Workspace
	adapter *bridge.WorldAdapter
	engine  compiler.Engine
	cfg     *config.Config
	enc     position.Encoding
	logger  *slog.Logger
	metrics *observability.Metrics
	export  ExportSink

	// passes bounds concurrent engine invocations so a burst of edits
	// cannot starve protocol handling.
	passes *semaphore.Weighted

	watcher *watch.Watcher
}

// New builds a Server. A nil config gets defaults; a nil engine gets the
// no-op engine.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.LoadConfig("")
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(cfg.LogLevel())
	}

	engine := opts.Engine
	if engine == nil {
		engine = compiler.NoopEngine{}
	}

	metrics := observability.NewMetrics(memo.Default())

	embedded := opts.EmbeddedFonts
	if !cfg.Fonts.Embedded {
		embedded = nil
	}

	ws := workspace.New(workspace.Options{
		FS:             opts.FS,
		FontDirs:       cfg.Fonts.Dirs,
		EmbeddedFonts:  embedded,
		LibraryVersion: version.Version,
		Logger:         logger,
		Metrics:        metrics,
	})

	exportSink := opts.Export
	if exportSink == nil {
		exportSink = writePDFBesideSource
	}

	srv := &Server{
		ws:      ws,
		adapter: bridge.NewWorldAdapter(ws),
		engine:  engine,
		cfg:     cfg,
		enc:     cfg.Encoding(),
		logger:  logger,
		metrics: metrics,
		export:  exportSink,
		passes:  semaphore.NewWeighted(int64(runtime.NumCPU())),
	}

	srv.handler = protocol.Handler{
		Initialize:                     srv.initialize,
		Initialized:                    srv.initialized,
		Shutdown:                       srv.shutdown,
		SetTrace:                       srv.setTrace,
		TextDocumentDidOpen:            srv.didOpen,
		TextDocumentDidChange:          srv.didChange,
		TextDocumentDidSave:            srv.didSave,
		TextDocumentDidClose:           srv.didClose,
		WorkspaceDidChangeWatchedFiles: srv.didChangeWatchedFiles,
	}

	return srv, nil
}

// Workspace exposes the server's workspace, mainly for tests and embedding.
func (srv *Server) Workspace() *workspace.Workspace {
	return srv.ws
}

// Run serves the protocol on stdio until the client disconnects.
func (srv *Server) Run() error {
	srv.metrics.Serve(srv.cfg.Metrics.Addr, srv.logger)

	lspServer := glspserver.NewServer(&srv.handler, serverName, false)

	return lspServer.RunStdio()
}

func (srv *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	openClose := true
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &syncKind,
	}

	srv.startWatcher(params)

	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

// startWatcher starts the native watcher over the workspace root, as a
// fallback for clients that never send didChangeWatchedFiles. Watcher
// failure degrades to client notifications only.
func (srv *Server) startWatcher(params *protocol.InitializeParams) {
	if params == nil || params.RootURI == nil {
		return
	}

	root, err := workspace.URIToPath(string(*params.RootURI))
	if err != nil {
		srv.logger.Warn("workspace root not watchable", "uri", *params.RootURI, "error", err.Error())

		return
	}

	watcher, err := watch.New(root, sourceExtension, srv.onDiskChange, srv.logger)
	if err != nil {
		srv.logger.Warn("native file watcher unavailable", "root", root, "error", err.Error())

		return
	}

	srv.watcher = watcher
}

// onDiskChange handles one debounced native watcher report.
func (srv *Server) onDiskChange(uri string) {
	srv.ws.Sources.MarkChanged(uri)
	srv.ws.Resources.Invalidate(uri)
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	if srv.watcher != nil {
		_ = srv.watcher.Close()
		srv.watcher = nil
	}

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, event := range params.Changes {
		uri := string(event.URI)

		// Open files are editor-authoritative; MarkChanged leaves them
		// alone. Deleted files staleness-mark the same way: the next
		// read fails with not-found and degrades per the bridge rules.
		srv.ws.Sources.MarkChanged(uri)
		srv.ws.Resources.Invalidate(uri)
	}

	srv.refreshOpenDiagnostics(ctx)

	return nil
}

// refreshOpenDiagnostics re-evaluates every open file, since a disk change
// in any dependency can change their diagnostics.
func (srv *Server) refreshOpenDiagnostics(ctx *glsp.Context) {
	for _, uri := range srv.ws.Sources.OpenURIs() {
		go srv.runDiagnostics(ctx, uri)
	}
}
