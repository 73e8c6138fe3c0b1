package swarmclient

import (
	"context"
	"sync"
	"sync/atomic"
)

// sessionState is the immutable snapshot stored in the manager. A stale id
// is kept around after invalidation for diagnostics but is never sent on
// the wire while valid is false.
type sessionState struct {
	id    string
	valid bool
}

// sessionManager owns the single cached session token. Reads of a valid
// token are lock-free; creation is single-flight behind a mutex with a
// double-check so concurrent callers racing into the slow path never
// trigger duplicate creation calls.
//
// The creation func is injected at construction so the manager does not
// depend on the transport that itself depends on the manager.
type sessionManager struct {
	create func(ctx context.Context) (string, error)

	mu  sync.Mutex
	cur atomic.Pointer[sessionState]
}

func newSessionManager(create func(ctx context.Context) (string, error)) *sessionManager {
	return &sessionManager{create: create}
}

// GetOrCreate returns the cached token if it is still marked valid,
// otherwise creates a new one. The creation call itself is never retried
// here; callers layer recovery on top via Invalidate + GetOrCreate.
func (m *sessionManager) GetOrCreate(ctx context.Context) (string, error) {
	if s := m.cur.Load(); s != nil && s.valid {
		return s.id, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have finished creation while we waited.
	if s := m.cur.Load(); s != nil && s.valid {
		return s.id, nil
	}
	return m.createLocked(ctx)
}

// Refresh unconditionally discards the cached token and creates a new one,
// even if the current one is still marked valid.
func (m *sessionManager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.cur.Load(); s != nil {
		m.cur.Store(&sessionState{id: s.id})
	}
	return m.createLocked(ctx)
}

func (m *sessionManager) createLocked(ctx context.Context) (string, error) {
	id, err := m.create(ctx)
	if err != nil {
		return "", &SessionError{Message: "session creation failed", Err: err}
	}
	if id == "" {
		return "", &SessionError{Message: "server returned no session id"}
	}
	m.cur.Store(&sessionState{id: id, valid: true})
	return id, nil
}

// Invalidate marks the cached token as unusable without clearing its value.
// It never blocks and is safe to call from any goroutine; the next
// GetOrCreate performs a fresh creation.
func (m *sessionManager) Invalidate() {
	if s := m.cur.Load(); s != nil && s.valid {
		m.cur.Store(&sessionState{id: s.id})
	}
}

// SessionID returns the cached token if valid, else "". It never triggers
// creation and may be stale the instant after reading.
func (m *sessionManager) SessionID() string {
	if s := m.cur.Load(); s != nil && s.valid {
		return s.id
	}
	return ""
}
