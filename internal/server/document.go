package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/typlsp/internal/config"
	"github.com/Sumatoshi-tech/typlsp/internal/workspace"
)

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	_, err := srv.ws.Sources.Open(uri, params.TextDocument.Text)
	if err != nil {
		return err
	}

	go srv.onSourceChanged(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	err := srv.ws.Sources.MutateByURI(uri, func(src *workspace.Source) error {
		for _, raw := range params.ContentChanges {
			rng, text, ok := parseContentChange(raw)
			if !ok {
				continue
			}

			if rng != nil {
				src.Edit(*rng, text, srv.enc)
			} else {
				src.Replace(text)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	go srv.onSourceChanged(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if srv.cfg.ExportModeValue() != config.ExportOnSave {
		return nil
	}

	go srv.runDiagnosticsAndExport(ctx, string(params.TextDocument.URI))

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.ws.Sources.Close(string(params.TextDocument.URI))

	return nil
}

// onSourceChanged runs the pass the export mode calls for after an open or
// edit notification.
func (srv *Server) onSourceChanged(ctx *glsp.Context, uri string) {
	if srv.cfg.ExportModeValue() == config.ExportOnType {
		srv.runDiagnosticsAndExport(ctx, uri)

		return
	}

	srv.runDiagnostics(ctx, uri)
}

// parseContentChange accepts the shapes glsp delivers for one content
// change: the typed incremental and whole-document events, plus the raw
// map form older client/decoder combinations produce. A nil range means
// whole-document replacement.
func parseContentChange(raw any) (rng *protocol.Range, text string, ok bool) {
	switch change := raw.(type) {
	case protocol.TextDocumentContentChangeEvent:
		return change.Range, change.Text, true
	case protocol.TextDocumentContentChangeEventWhole:
		return nil, change.Text, true
	case map[string]any:
		return parseContentChangeMap(change)
	default:
		return nil, "", false
	}
}

func parseContentChangeMap(change map[string]any) (rng *protocol.Range, text string, ok bool) {
	text, ok = change["text"].(string)
	if !ok {
		return nil, "", false
	}

	rawRange, hasRange := change["range"].(map[string]any)
	if !hasRange {
		return nil, text, true
	}

	start, startOK := parsePosition(rawRange["start"])
	end, endOK := parsePosition(rawRange["end"])

	if !startOK || !endOK {
		return nil, text, true
	}

	return &protocol.Range{Start: start, End: end}, text, true
}

func parsePosition(raw any) (protocol.Position, bool) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return protocol.Position{}, false
	}

	line, lineOK := fields["line"].(float64)
	character, charOK := fields["character"].(float64)

	if !lineOK || !charOK {
		return protocol.Position{}, false
	}

	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(character),
	}, true
}
