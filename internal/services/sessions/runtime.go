package sessions

import (
	"sync"

	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/ledger"
	"github.com/remixlab/remix-api/internal/services/visualizer"
)

// runtime holds the session-local state that never touches the database:
// decoded PCM buffers, the resource ledger, and the visualizer graph.
// It exists from first upload until the session is deleted.
type runtime struct {
	mu sync.Mutex

	// pubMu serializes upload staging against worker result
	// publication, so the generation guard and the writes it protects
	// happen as one step. Lock ordering: pubMu before mu.
	pubMu sync.Mutex

	generation uint64

	sourceBuf *engine.Buffer
	remixBuf  *engine.Buffer
	features  *engine.Features

	sourcePath string
	remixPath  string

	rendering bool

	ledger *ledger.Ledger
	viz    *visualizer.Visualizer
}

func newRuntime() *runtime {
	return &runtime{ledger: ledger.New()}
}

// registry is the in-memory index of live session runtimes
type registry struct {
	mu sync.Mutex
	m  map[string]*runtime
}

func newRegistry() *registry {
	return &registry{m: make(map[string]*runtime)}
}

func (r *registry) getOrCreate(id string) *runtime {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.m[id]
	if !ok {
		rt = newRuntime()
		r.m[id] = rt
	}
	return rt
}

func (r *registry) get(id string) (*runtime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.m[id]
	return rt, ok
}

func (r *registry) remove(id string) (*runtime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.m[id]
	delete(r.m, id)
	return rt, ok
}
