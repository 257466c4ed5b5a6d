package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/position"
	"github.com/Sumatoshi-tech/typlsp/internal/workspace"
)

// diagnosticSource labels published diagnostics in the editor UI.
const diagnosticSource = "typlsp"

// publishDiagnosticsMethod is the notification that replaces a URI's
// diagnostics wholesale.
const publishDiagnosticsMethod = "textDocument/publishDiagnostics"

// diagnosticsByURI converts engine-reported source errors into per-URI
// diagnostic lists. Errors on the detached placeholder have no file of
// their own and attach to the pass's target at the document start.
func (srv *Server) diagnosticsByURI(main compiler.Source, errs []compiler.SourceError) map[string][]protocol.Diagnostic {
	diags := make(map[string][]protocol.Diagnostic)

	mainURI, _ := srv.ws.Sources.URI(workspace.FromFileID(main.ID))

	for _, srcErr := range errs {
		var (
			uri  string
			text string
		)

		switch srcErr.File {
		case main.ID:
			uri, text = mainURI, main.Text
		case compiler.DetachedID:
			uri, text = mainURI, main.Text
			srcErr.Span = compiler.ByteSpan{}
		default:
			known, ok := srv.ws.Sources.URI(workspace.FromFileID(srcErr.File))
			if !ok {
				continue
			}

			snap, err := srv.ws.Sources.Snapshot(workspace.FromFileID(srcErr.File))
			if err != nil {
				continue
			}

			uri, text = known, snap.Text
		}

		diags[uri] = append(diags[uri], protocol.Diagnostic{
			Range:    position.RangeForSpan(text, srcErr.Span.Start, srcErr.Span.End, srv.enc),
			Severity: severityOf(srcErr.Severity),
			Source:   ptr(diagnosticSource),
			Message:  srcErr.Message,
		})
	}

	return diags
}

// withOpenCleared adds an empty list for every open file the pass produced
// nothing for, so publishing replaces stale squiggles instead of letting
// them outlive the errors that caused them.
func (srv *Server) withOpenCleared(diags map[string][]protocol.Diagnostic) map[string][]protocol.Diagnostic {
	for _, uri := range srv.ws.Sources.OpenURIs() {
		if _, ok := diags[uri]; !ok {
			diags[uri] = []protocol.Diagnostic{}
		}
	}

	return diags
}

// publishAll replaces diagnostics wholesale for every URI in diags.
func (srv *Server) publishAll(ctx *glsp.Context, diags map[string][]protocol.Diagnostic) {
	for uri, list := range srv.withOpenCleared(diags) {
		ctx.Notify(publishDiagnosticsMethod, &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		})
	}
}

func severityOf(sev compiler.Severity) *protocol.DiagnosticSeverity {
	value := protocol.DiagnosticSeverityError
	if sev == compiler.SeverityWarning {
		value = protocol.DiagnosticSeverityWarning
	}

	return &value
}

func ptr[T any](v T) *T {
	return &v
}
