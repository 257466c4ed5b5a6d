// Package bridge adapts the workspace's asynchronous-friendly managers to
// the engine's synchronous World query contract. Query methods may block to
// drive cache fills to completion; that is safe because passes run on their
// own bounded execution lane, away from protocol handling.
package bridge

import (
	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/workspace"
)

// WorldAdapter presents one Workspace as a compiler.World. It is shared by
// every pass in the session and therefore has no notion of a current
// compilation target; use ProjectWorld for that.
type WorldAdapter struct {
	ws *workspace.Workspace
}

// NewWorldAdapter wraps a workspace.
func NewWorldAdapter(ws *workspace.Workspace) *WorldAdapter {
	return &WorldAdapter{ws: ws}
}

// Library implements compiler.World.
func (a *WorldAdapter) Library() *compiler.Library {
	return a.ws.Library()
}

// Main panics: one workspace serves many passes, each with a different
// target, so a workspace-wide answer would silently compile the wrong file.
// Passes must wrap the adapter in a ProjectWorld carrying their target.
func (a *WorldAdapter) Main() compiler.Source {
	panic("bridge: Main called on workspace-wide world; wrap it in a ProjectWorld")
}

// Resolve implements compiler.World. It registers the path's file on first
// sight and eagerly fills its cache: the Source query that follows has no
// error channel, so load failures must surface here.
func (a *WorldAdapter) Resolve(path string) (compiler.FileID, error) {
	uri := workspace.PathToURI(path)

	id, err := a.ws.Sources.RegisterOrLookup(uri)
	if err != nil {
		return 0, err
	}

	err = a.ws.Sources.Cache(id)
	if err != nil {
		return 0, err
	}

	return id.FileID(), nil
}

// Source implements compiler.World. A stale slot is filled synchronously;
// if the fill fails the pass receives the detached placeholder and the
// failure is reported out of band, so one unreadable file cannot abort
// compilation of unrelated files.
func (a *WorldAdapter) Source(id compiler.FileID) compiler.Source {
	snap, err := a.ws.Sources.Snapshot(workspace.FromFileID(id))
	if err != nil {
		a.ws.Logger().Error("source query degraded to detached placeholder",
			"id", uint16(id), "error", err.Error())

		return a.ws.Detached()
	}

	return snap
}

// Book implements compiler.World.
func (a *WorldAdapter) Book() *compiler.FontBook {
	return a.ws.Fonts.Book()
}

// Font implements compiler.World.
func (a *WorldAdapter) Font(index int) (compiler.Font, bool) {
	return a.ws.Fonts.Font(index, a.ws.Resources)
}

// File implements compiler.World.
func (a *WorldAdapter) File(path string) ([]byte, error) {
	return a.ws.Resources.GetOrInsert(workspace.PathToURI(path))
}

// ProjectWorld is the per-pass view of the workspace: the shared adapter
// plus the one target this pass compiles. Its Main is the only supported
// way for a pass to learn its target.
type ProjectWorld struct {
	*WorldAdapter

	main compiler.Source
}

// NewProjectWorld binds a target snapshot to the shared adapter.
func NewProjectWorld(adapter *WorldAdapter, main compiler.Source) *ProjectWorld {
	return &ProjectWorld{WorldAdapter: adapter, main: main}
}

// Main implements compiler.World for one pass.
func (p *ProjectWorld) Main() compiler.Source {
	return p.main
}
