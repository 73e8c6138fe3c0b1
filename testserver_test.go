package swarmclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-process stand-in for the server's HTTP API. It records
// every call and payload per endpoint and hands out sequential session ids
// unless a test overrides the session endpoint.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	calls       map[string]int
	payloads    map[string][]map[string]any
	handlers    map[string]func(call int, payload map[string]any) (int, any)
	nextSession int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		t:        t,
		calls:    make(map[string]int),
		payloads: make(map[string][]map[string]any),
		handlers: make(map[string]func(int, map[string]any) (int, any)),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/API/")

	var payload map[string]any
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}

	f.mu.Lock()
	f.calls[endpoint]++
	call := f.calls[endpoint]
	f.payloads[endpoint] = append(f.payloads[endpoint], payload)
	h := f.handlers[endpoint]
	var status int
	var resp any
	if h == nil && endpoint == sessionEndpoint {
		f.nextSession++
		status, resp = http.StatusOK, map[string]any{"session_id": fmt.Sprintf("session-%d", f.nextSession)}
	}
	f.mu.Unlock()

	if h != nil {
		status, resp = h(call, payload)
	} else if resp == nil {
		status, resp = http.StatusOK, map[string]any{"success": true}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// handle overrides the response for one endpoint. The handler receives the
// 1-based call number and the decoded request payload.
func (f *fakeAPI) handle(endpoint string, h func(call int, payload map[string]any) (int, any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[endpoint] = h
}

func (f *fakeAPI) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeAPI) lastPayload(endpoint string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.payloads[endpoint]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// client builds a Client pointed at the fake server with timeouts suited
// to tests.
func (f *fakeAPI) client(t *testing.T) *Client {
	c, err := New(Options{
		BaseURL:           f.srv.URL,
		HTTPTimeout:       5 * time.Second,
		MaxRetryAttempts:  2,
		RetryBackoff:      10 * time.Millisecond,
		KeepAliveInterval: time.Second,
		CloseTimeout:      200 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}
