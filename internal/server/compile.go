package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/typlsp/internal/bridge"
	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/memo"
)

// exportFileMode is the permission set for exported documents.
const exportFileMode = 0o644

// CompileSource runs one compile pass with snap as the target. The engine
// sees a per-pass world, so concurrent passes with different targets cannot
// observe each other's main file. Memoization eviction runs after the pass,
// once this pass's world value is dead; entries a concurrent pass touched
// carry a fresh generation and survive.
func (srv *Server) CompileSource(snap compiler.Source) (*compiler.Document, map[string][]protocol.Diagnostic) {
	world := bridge.NewProjectWorld(srv.adapter, snap)

	_ = srv.passes.Acquire(context.Background(), 1)
	doc, errs := srv.engine.Compile(world)
	srv.passes.Release(1)

	diags := srv.diagnosticsByURI(snap, errs)

	memo.Evict(srv.cfg.Eviction.MaxAge)
	srv.metrics.IncCompilePass()

	return doc, diags
}

// EvalSource runs one evaluation-only pass with snap as the target, for
// diagnostics without document layout.
func (srv *Server) EvalSource(snap compiler.Source) (*compiler.Module, map[string][]protocol.Diagnostic) {
	world := bridge.NewProjectWorld(srv.adapter, snap)

	_ = srv.passes.Acquire(context.Background(), 1)
	module, errs := srv.engine.Evaluate(world)
	srv.passes.Release(1)

	diags := srv.diagnosticsByURI(snap, errs)

	memo.Evict(srv.cfg.Eviction.MaxAge)
	srv.metrics.IncEvalPass()

	return module, diags
}

// runDiagnostics evaluates the URI's file and publishes the results.
func (srv *Server) runDiagnostics(ctx *glsp.Context, uri string) {
	snap, err := srv.ws.Sources.SnapshotByURI(uri)
	if err != nil {
		srv.logger.Error("diagnostics pass skipped", "uri", uri, "error", err.Error())

		return
	}

	_, diags := srv.EvalSource(snap)

	srv.publishAll(ctx, diags)
}

// runDiagnosticsAndExport compiles the URI's file, publishes diagnostics,
// and hands a produced document to the export sink.
func (srv *Server) runDiagnosticsAndExport(ctx *glsp.Context, uri string) {
	snap, err := srv.ws.Sources.SnapshotByURI(uri)
	if err != nil {
		srv.logger.Error("compile pass skipped", "uri", uri, "error", err.Error())

		return
	}

	doc, diags := srv.CompileSource(snap)

	srv.publishAll(ctx, diags)

	if doc == nil || len(doc.PDF) == 0 {
		return
	}

	err = srv.export(snap, doc)
	if err != nil {
		srv.logger.Error("document export failed", "uri", uri, "error", err.Error())
	}
}

// writePDFBesideSource is the default export sink.
func writePDFBesideSource(src compiler.Source, doc *compiler.Document) error {
	if src.Path == "" {
		return nil
	}

	target := strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + ".pdf"

	return os.WriteFile(target, doc.PDF, exportFileMode)
}
