package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/config"
	"github.com/Sumatoshi-tech/typlsp/internal/memo"
)

type mapFS struct {
	mu    sync.Mutex
	files map[string]string
}

func (m *mapFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	text, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}

	return []byte(text), nil
}

// fakeEngine returns scripted results and records the target of every pass.
type fakeEngine struct {
	mu      sync.Mutex
	targets []compiler.FileID

	doc  *compiler.Document
	errs []compiler.SourceError

	// hook runs inside each pass with the pass's world, before results are
	// returned.
	hook func(world compiler.World)
}

func (e *fakeEngine) run(world compiler.World) []compiler.SourceError {
	e.mu.Lock()
	e.targets = append(e.targets, world.Main().ID)
	e.mu.Unlock()

	if e.hook != nil {
		e.hook(world)
	}

	return e.errs
}

func (e *fakeEngine) Compile(world compiler.World) (*compiler.Document, []compiler.SourceError) {
	return e.doc, e.run(world)
}

func (e *fakeEngine) Evaluate(world compiler.World) (*compiler.Module, []compiler.SourceError) {
	return &compiler.Module{}, e.run(world)
}

func testConfig(maxAge uint64) *config.Config {
	return &config.Config{
		Export:   config.ExportConfig{Mode: string(config.ExportNever)},
		Eviction: config.EvictionConfig{MaxAge: maxAge},
		Position: config.PositionConfig{Encoding: "utf-16"},
		Log:      config.LogConfig{Level: "error"},
	}
}

func newTestServer(t *testing.T, files map[string]string, engine compiler.Engine, maxAge uint64) *Server {
	t.Helper()

	srv, err := New(Options{
		Config: testConfig(maxAge),
		Engine: engine,
		FS:     &mapFS{files: files},
	})
	require.NoError(t, err)

	return srv
}

func TestCompileSource_TargetAndDiagnostics(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	srv := newTestServer(t, map[string]string{"/a.typ": "= Title"}, engine, 30)

	snap, err := srv.ws.Sources.SnapshotByURI("file:///a.typ")
	require.NoError(t, err)

	engine.errs = []compiler.SourceError{{
		File:     snap.ID,
		Span:     compiler.ByteSpan{Start: 2, End: 7},
		Severity: compiler.SeverityError,
		Message:  "unknown variable",
	}}

	doc, diags := srv.CompileSource(snap)
	assert.Nil(t, doc)

	require.Len(t, diags["file:///a.typ"], 1)
	diag := diags["file:///a.typ"][0]
	assert.Equal(t, "unknown variable", diag.Message)
	assert.Equal(t, protocol.UInteger(2), diag.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(7), diag.Range.End.Character)

	require.Len(t, engine.targets, 1)
	assert.Equal(t, snap.ID, engine.targets[0])
}

func TestDiagnostics_SpanDependencyErrors(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	srv := newTestServer(t, map[string]string{
		"/main.typ": "#include \"dep.typ\"",
		"/dep.typ":  "broken",
	}, engine, 30)

	main, err := srv.ws.Sources.SnapshotByURI("file:///main.typ")
	require.NoError(t, err)

	dep, err := srv.ws.Sources.SnapshotByURI("file:///dep.typ")
	require.NoError(t, err)

	engine.errs = []compiler.SourceError{
		{File: dep.ID, Span: compiler.ByteSpan{Start: 0, End: 6}, Severity: compiler.SeverityWarning, Message: "in dependency"},
		{File: compiler.DetachedID, Span: compiler.ByteSpan{Start: 3, End: 4}, Severity: compiler.SeverityError, Message: "no file"},
		{File: 99, Message: "never registered"},
	}

	_, diags := srv.CompileSource(main)

	// Dependency errors land on the dependency's URI.
	require.Len(t, diags["file:///dep.typ"], 1)
	assert.Equal(t, "in dependency", diags["file:///dep.typ"][0].Message)

	// Detached errors attach to the pass target at the document start.
	require.Len(t, diags["file:///main.typ"], 1)
	assert.Equal(t, "no file", diags["file:///main.typ"][0].Message)
	assert.Equal(t, protocol.UInteger(0), diags["file:///main.typ"][0].Range.Start.Character)
	assert.Equal(t, protocol.UInteger(0), diags["file:///main.typ"][0].Range.End.Character)

	// Errors on ids this session never issued are dropped.
	assert.Len(t, diags, 2)
}

func TestDiagnostics_StableAcrossPasses(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	srv := newTestServer(t, map[string]string{"/a.typ": "text"}, engine, 30)

	snap, err := srv.ws.Sources.SnapshotByURI("file:///a.typ")
	require.NoError(t, err)

	engine.errs = []compiler.SourceError{{
		File: snap.ID, Span: compiler.ByteSpan{Start: 0, End: 4}, Message: "same every time",
	}}

	_, first := srv.EvalSource(snap)
	_, second := srv.EvalSource(snap)

	assert.Equal(t, first, second)
}

func TestWithOpenCleared(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil, &fakeEngine{}, 30)

	_, err := srv.ws.Sources.Open("file:///a.typ", "a")
	require.NoError(t, err)

	_, err = srv.ws.Sources.Open("file:///b.typ", "b")
	require.NoError(t, err)

	diags := srv.withOpenCleared(map[string][]protocol.Diagnostic{
		"file:///a.typ": {{Message: "kept"}},
	})

	require.Len(t, diags["file:///a.typ"], 1)

	// The silent open file gets an explicit empty list so its stale
	// squiggles are replaced.
	list, ok := diags["file:///b.typ"]
	require.True(t, ok)
	assert.Empty(t, list)
}

func TestCompileSource_EvictsIdleMemoEntries(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(t, map[string]string{"/a.typ": "text"}, engine, 1)

	snap, err := srv.ws.Sources.SnapshotByURI("file:///a.typ")
	require.NoError(t, err)

	staleKey := memo.KeyString("compile_test", "idle entry", "a.typ")

	_, err = memo.GetOrCompute(staleKey, func() (any, error) { return 1, nil })
	require.NoError(t, err)

	// Each pass runs one eviction sweep; an entry nothing touches falls
	// out once it exceeds the configured age.
	for range 3 {
		srv.CompileSource(snap)
	}

	assert.False(t, memo.Default().Contains(staleKey))
}

func TestCompileSource_KeepsHotMemoEntries(t *testing.T) {
	hotKey := memo.KeyString("compile_test", "hot entry", "a.typ")
	engine := &fakeEngine{
		hook: func(compiler.World) {
			_, _ = memo.GetOrCompute(hotKey, func() (any, error) { return "hot", nil })
		},
	}
	srv := newTestServer(t, map[string]string{"/a.typ": "text"}, engine, 1000)

	snap, err := srv.ws.Sources.SnapshotByURI("file:///a.typ")
	require.NoError(t, err)

	for range 10 {
		srv.CompileSource(snap)
	}

	assert.True(t, memo.Default().Contains(hotKey))
}

func TestWritePDFBesideSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := compiler.Source{ID: 0, Path: filepath.Join(dir, "doc.typ"), Text: ""}
	doc := &compiler.Document{PDF: []byte("%PDF-1.7")}

	require.NoError(t, writePDFBesideSource(src, doc))

	written, err := os.ReadFile(filepath.Join(dir, "doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), written)

	// A source with no path (detached input) exports nowhere, silently.
	require.NoError(t, writePDFBesideSource(compiler.Source{}, doc))
}
