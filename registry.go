package swarmclient

import (
	"sync"

	"github.com/gorilla/websocket"
)

// registeredConn is one live streaming connection held in the registry.
// close asks the owning stream to cancel and waits for its teardown, so
// the graceful close handshake always runs on the goroutine that owns the
// connection's reader.
type registeredConn struct {
	conn  *websocket.Conn
	close func()
}

// connRegistry tracks open streaming connections keyed by the session id
// they were opened with, so bulk shutdown can find and close them. Inserts,
// removals, and snapshots happen from arbitrary concurrent streams.
type connRegistry struct {
	mu    sync.Mutex
	conns map[string]*registeredConn
}

func newConnRegistry() *connRegistry {
	return &connRegistry{conns: make(map[string]*registeredConn)}
}

func (r *connRegistry) add(sessionID string, entry *registeredConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sessionID] = entry
}

// remove drops the entry for sessionID, but only if it still refers to
// entry. A later stream on the same session may have replaced it; that
// stream's registration must not be clobbered by our teardown.
func (r *connRegistry) remove(sessionID string, entry *registeredConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[sessionID] == entry {
		delete(r.conns, sessionID)
	}
}

// drain returns all registered connections and clears the registry.
func (r *connRegistry) drain() map[string]*registeredConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.conns
	r.conns = make(map[string]*registeredConn)
	return out
}

func (r *connRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
