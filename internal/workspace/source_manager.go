package workspace

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/typlsp/internal/compiler"
	"github.com/Sumatoshi-tech/typlsp/internal/observability"
)

// SourceID is the manager's stable handle for one file. IDs are assigned
// monotonically on first registration of a URI and are never reused or
// reassigned, so a handle stays valid for the life of the manager.
type SourceID uint16

// FileID converts the handle into the compiler's vocabulary.
func (id SourceID) FileID() compiler.FileID {
	return compiler.FileID(id)
}

// FromFileID converts a compiler handle back into the manager's vocabulary.
func FromFileID(id compiler.FileID) SourceID {
	return SourceID(id)
}

// maxSources bounds the id space; the top value is reserved for the
// detached placeholder.
const maxSources = int(compiler.DetachedID)

// cachedState is the sealed per-slot state machine. Exactly one of the
// three implementations holds at any time; every transition type-switches
// over all of them so an impossible combination cannot be represented.
type cachedState interface {
	sealedCachedState()
}

// stateOpen means the editor has the file open: its text is
// editor-authoritative and disk notifications do not touch it.
type stateOpen struct {
	src *Source
}

// stateClosedUnmodified means the file is not open and the last loaded text
// is still trusted.
type stateClosedUnmodified struct {
	src *Source
}

// stateClosedModified means on-disk content is presumed stale; any prior
// text has been discarded and the next read reloads.
type stateClosedModified struct {
	uri string
}

func (stateOpen) sealedCachedState()             {}
func (stateClosedUnmodified) sealedCachedState() {}
func (stateClosedModified) sealedCachedState()   {}

// cachedSource returns the slot's Source, or nil when the slot is stale.
func cachedSource(state cachedState) *Source {
	switch st := state.(type) {
	case stateOpen:
		return st.src
	case stateClosedUnmodified:
		return st.src
	case stateClosedModified:
		return nil
	default:
		panic(fmt.Sprintf("workspace: unhandled cache state %T", state))
	}
}

// slot is the fixed storage location for one SourceID. The slot pointer
// never moves once created, so callers may hold it across table growth.
type slot struct {
	mu    sync.RWMutex
	state cachedState
}

// SourceManager is the single source of truth for URI↔id mapping and per-id
// content state. The id table has its own lock, held only for brief lookups
// and inserts; each slot has an independent lock, so operations on different
// files never block each other while one file's cache fill, read, and write
// stay mutually exclusive.
type SourceManager struct {
	mu    sync.RWMutex
	ids   map[string]SourceID
	slots []*slot
	uris  []string // reverse of ids, indexed by SourceID

	fsys    FS
	metrics *observability.Metrics
}

// NewSourceManager creates an empty manager reading through fsys. A nil
// fsys means the real file system; a nil metrics records nothing.
func NewSourceManager(fsys FS, metrics *observability.Metrics) *SourceManager {
	if fsys == nil {
		fsys = OSFS()
	}

	return &SourceManager{
		ids:     make(map[string]SourceID),
		fsys:    fsys,
		metrics: metrics,
	}
}

// getSlot returns the stable slot for id. An out-of-range id cannot come
// from this manager and is a programming error.
func (m *SourceManager) getSlot(id SourceID) *slot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if int(id) >= len(m.slots) {
		panic(fmt.Sprintf("workspace: source id %d was never issued", id))
	}

	return m.slots[id]
}

// RegisterOrLookup returns the id for a URI, loading the file from disk and
// caching it as closed-unmodified on first sight. The table lock is held
// across the load so the id commits only after the content does: a failed
// load allocates nothing and a retry starts clean.
func (m *SourceManager) RegisterOrLookup(uri string) (SourceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.ids[uri]; ok {
		return id, nil
	}

	if len(m.slots) >= maxSources {
		return 0, fmt.Errorf("source table full (%d files)", maxSources)
	}

	id := SourceID(len(m.slots))

	src, err := newSourceFromFile(m.fsys, id, uri)
	if err != nil {
		return 0, err
	}

	m.metrics.IncSourceLoad()
	m.slots = append(m.slots, &slot{state: stateClosedUnmodified{src: src}})
	m.uris = append(m.uris, uri)
	m.ids[uri] = id

	return id, nil
}

// URI returns the URI the id was registered under.
func (m *SourceManager) URI(id SourceID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if int(id) >= len(m.uris) {
		return "", false
	}

	return m.uris[id], true
}

// fill reloads a stale slot from disk, promoting it to closed-unmodified.
// The caller must hold the slot's write lock. A failed reload leaves the
// slot untouched and is returned to the caller.
func (m *SourceManager) fill(sl *slot, id SourceID) error {
	stale, ok := sl.state.(stateClosedModified)
	if !ok {
		return nil
	}

	src, err := newSourceFromFile(m.fsys, id, stale.uri)
	if err != nil {
		return err
	}

	m.metrics.IncSourceReload()
	sl.state = stateClosedUnmodified{src: src}

	return nil
}

// Snapshot returns an immutable view of the source, reloading from disk
// first if the slot is stale. The snapshot stays valid after later edits.
func (m *SourceManager) Snapshot(id SourceID) (compiler.Source, error) {
	sl := m.getSlot(id)

	sl.mu.RLock()

	if src := cachedSource(sl.state); src != nil {
		snap := src.Snapshot()
		sl.mu.RUnlock()

		return snap, nil
	}

	sl.mu.RUnlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()

	err := m.fill(sl, id)
	if err != nil {
		return compiler.Source{}, err
	}

	return cachedSource(sl.state).Snapshot(), nil
}

// Mutate grants exclusive edit access to the source, with the same caching
// guarantee as Snapshot. The callback runs under the slot's write lock, so
// edits to one file are totally ordered.
func (m *SourceManager) Mutate(id SourceID, fn func(*Source) error) error {
	sl := m.getSlot(id)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	err := m.fill(sl, id)
	if err != nil {
		return err
	}

	return fn(cachedSource(sl.state))
}

// Open registers editor-supplied text for a URI, allocating an id on first
// sight. It is idempotent and unconditional: whatever the slot held before,
// the editor's content wins.
func (m *SourceManager) Open(uri, text string) (SourceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.ids[uri]; ok {
		sl := m.slots[id]

		sl.mu.Lock()

		if _, wasOpen := sl.state.(stateOpen); !wasOpen {
			m.metrics.AddOpenSources(1)
		}

		sl.state = stateOpen{src: newSource(id, uri, text)}
		sl.mu.Unlock()

		return id, nil
	}

	if len(m.slots) >= maxSources {
		return 0, fmt.Errorf("source table full (%d files)", maxSources)
	}

	id := SourceID(len(m.slots))
	m.slots = append(m.slots, &slot{state: stateOpen{src: newSource(id, uri, text)}})
	m.uris = append(m.uris, uri)
	m.ids[uri] = id
	m.metrics.AddOpenSources(1)

	return id, nil
}

// Close marks the URI's slot as modified-on-disk, discarding cached text.
// Policy: close is treated as "must reverify against disk" — the editor may
// close without saving, so text from the open era cannot be trusted. An
// unknown URI is a no-op.
func (m *SourceManager) Close(uri string) {
	sl, ok := m.lookupSlot(uri)
	if !ok {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	switch sl.state.(type) {
	case stateOpen:
		m.metrics.AddOpenSources(-1)
		sl.state = stateClosedModified{uri: uri}
	case stateClosedUnmodified:
		sl.state = stateClosedModified{uri: uri}
	case stateClosedModified:
		// Already stale.
	default:
		panic(fmt.Sprintf("workspace: unhandled cache state %T", sl.state))
	}
}

// MarkChanged records a file-watch signal for the URI. Open files are
// editor-authoritative and are not affected; a trusted closed slot becomes
// stale. An unknown URI is a no-op.
func (m *SourceManager) MarkChanged(uri string) {
	sl, ok := m.lookupSlot(uri)
	if !ok {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	switch sl.state.(type) {
	case stateOpen:
		// Editor wins over the file system while open.
	case stateClosedUnmodified:
		sl.state = stateClosedModified{uri: uri}
	case stateClosedModified:
		// Already stale.
	default:
		panic(fmt.Sprintf("workspace: unhandled cache state %T", sl.state))
	}
}

// Cache ensures the slot holds content, reloading if stale. Idempotent;
// concurrent callers on the same stale slot converge to exactly one disk
// read under the slot's write lock.
func (m *SourceManager) Cache(id SourceID) error {
	sl := m.getSlot(id)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	return m.fill(sl, id)
}

// OpenURIs returns the URIs currently open in the editor, sorted for
// deterministic diagnostic-refresh bookkeeping.
func (m *SourceManager) OpenURIs() []string {
	m.mu.RLock()

	type pair struct {
		uri string
		sl  *slot
	}

	pairs := make([]pair, 0, len(m.ids))
	for uri, id := range m.ids {
		pairs = append(pairs, pair{uri: uri, sl: m.slots[id]})
	}

	m.mu.RUnlock()

	open := make([]string, 0, len(pairs))

	for _, p := range pairs {
		p.sl.mu.RLock()
		_, isOpen := p.sl.state.(stateOpen)
		p.sl.mu.RUnlock()

		if isOpen {
			open = append(open, p.uri)
		}
	}

	sort.Strings(open)

	return open
}

// Count returns the number of registered files.
func (m *SourceManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.slots)
}

// lookupSlot resolves a URI to its slot without allocating.
func (m *SourceManager) lookupSlot(uri string) (*slot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.ids[uri]
	if !ok {
		return nil, false
	}

	return m.slots[id], true
}

// SnapshotByURI is RegisterOrLookup followed by Snapshot.
func (m *SourceManager) SnapshotByURI(uri string) (compiler.Source, error) {
	id, err := m.RegisterOrLookup(uri)
	if err != nil {
		return compiler.Source{}, err
	}

	return m.Snapshot(id)
}

// MutateByURI is RegisterOrLookup followed by Mutate.
func (m *SourceManager) MutateByURI(uri string, fn func(*Source) error) error {
	id, err := m.RegisterOrLookup(uri)
	if err != nil {
		return err
	}

	return m.Mutate(id, fn)
}
