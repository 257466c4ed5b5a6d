package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/typlsp/internal/position"
	"github.com/Sumatoshi-tech/typlsp/internal/workspace"
)

func TestParseContentChange_Typed(t *testing.T) {
	t.Parallel()

	rng := &protocol.Range{
		Start: protocol.Position{Line: 0, Character: 1},
		End:   protocol.Position{Line: 0, Character: 2},
	}

	got, text, ok := parseContentChange(protocol.TextDocumentContentChangeEvent{
		Range: rng,
		Text:  "x",
	})
	require.True(t, ok)
	assert.Equal(t, rng, got)
	assert.Equal(t, "x", text)

	got, text, ok = parseContentChange(protocol.TextDocumentContentChangeEventWhole{
		Text: "whole document",
	})
	require.True(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, "whole document", text)
}

func TestParseContentChange_Map(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"text": "x",
		"range": map[string]any{
			"start": map[string]any{"line": float64(1), "character": float64(2)},
			"end":   map[string]any{"line": float64(1), "character": float64(4)},
		},
	}

	rng, text, ok := parseContentChange(raw)
	require.True(t, ok)
	require.NotNil(t, rng)
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, rng.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 4}, rng.End)
	assert.Equal(t, "x", text)

	// No range means whole-document replacement.
	rng, text, ok = parseContentChange(map[string]any{"text": "all"})
	require.True(t, ok)
	assert.Nil(t, rng)
	assert.Equal(t, "all", text)

	// A malformed range degrades to whole-document rather than dropping
	// the client's text.
	rng, _, ok = parseContentChange(map[string]any{
		"text":  "kept",
		"range": map[string]any{"start": "bogus"},
	})
	require.True(t, ok)
	assert.Nil(t, rng)

	_, _, ok = parseContentChange(map[string]any{"version": float64(3)})
	assert.False(t, ok)

	_, _, ok = parseContentChange(42)
	assert.False(t, ok)
}

func TestApplyContentChanges(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil, &fakeEngine{}, 30)

	_, err := srv.ws.Sources.Open("file:///doc.typ", "héllo world")
	require.NoError(t, err)

	// The same splice didChange performs, without the notification plumbing.
	err = srv.ws.Sources.MutateByURI("file:///doc.typ", func(src *workspace.Source) error {
		rng, text, ok := parseContentChange(protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{
				Start: protocol.Position{Line: 0, Character: 6},
				End:   protocol.Position{Line: 0, Character: 11},
			},
			Text: "editor",
		})
		require.True(t, ok)
		require.NotNil(t, rng)

		src.Edit(*rng, text, srv.enc)

		return nil
	})
	require.NoError(t, err)

	snap, err := srv.ws.Sources.SnapshotByURI("file:///doc.typ")
	require.NoError(t, err)
	assert.Equal(t, "héllo editor", snap.Text)
}

func TestServerEncoding_FollowsConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(30)
	cfg.Position.Encoding = "utf-8"

	srv, err := New(Options{Config: cfg, FS: &mapFS{}})
	require.NoError(t, err)

	assert.Equal(t, position.UTF8, srv.enc)
}
