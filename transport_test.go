package swarmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendInjectsSessionID(t *testing.T) {
	f := newFakeAPI(t)
	c := f.client(t)

	var out struct {
		Success bool `json:"success"`
	}
	err := c.Send(context.Background(), "ListModels", map[string]any{"path": ""}, &out)
	require.NoError(t, err)

	payload := f.lastPayload("ListModels")
	assert.Equal(t, c.SessionID(), payload[sessionField])
	assert.Equal(t, "", payload["path"])

	// The creation call itself must not carry a session id.
	created := f.lastPayload(sessionEndpoint)
	_, hasSession := created[sessionField]
	assert.False(t, hasSession)
}

func TestSendDoesNotMutateCallerPayload(t *testing.T) {
	f := newFakeAPI(t)
	c := f.client(t)

	payload := map[string]any{"path": "x"}
	require.NoError(t, c.Send(context.Background(), "ListModels", payload, nil))

	_, leaked := payload[sessionField]
	assert.False(t, leaked, "caller payload must stay untouched")
}

func TestSendRecoversFromRejectedSessionOnce(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("GetCurrentStatus", func(call int, payload map[string]any) (int, any) {
		if call == 1 {
			return http.StatusOK, map[string]any{"error_id": errInvalidSession, "error": "session gone"}
		}
		return http.StatusOK, map[string]any{"status": map[string]any{"waiting_gens": 2}}
	})
	c := f.client(t)

	status, err := c.GetCurrentStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, status.WaitingGens)

	assert.Equal(t, 2, f.callCount("GetCurrentStatus"), "one original call plus one retry")
	assert.Equal(t, 2, f.callCount(sessionEndpoint), "rejection must force a fresh session")
	assert.Equal(t, "session-2", c.SessionID())
}

func TestSendFailsAfterSecondRejection(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("GetCurrentStatus", func(call int, payload map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"error_id": errInvalidSession}
	})
	c := f.client(t)

	_, err := c.GetCurrentStatus(context.Background())
	var sessErr *SessionError
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, 2, f.callCount("GetCurrentStatus"), "never more than one retry")
}

func TestSendMapsStructuredErrors(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("SelectModel", func(call int, payload map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"error_id": "model_not_found", "error": "no such model"}
	})
	c := f.client(t)

	err := c.SelectModel(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "model_not_found", apiErr.ID)
	assert.Equal(t, "no such model", apiErr.Message)
	assert.Equal(t, 1, f.callCount(sessionEndpoint), "non-session errors must not invalidate the session")
	assert.NotEmpty(t, c.SessionID())
}

func TestSendMapsFailingHTTPStatus(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("ShutdownServer", func(call int, payload map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{"unrelated": true}
	})
	c := f.client(t)

	err := c.ShutdownServer(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Empty(t, apiErr.ID)
}

func TestSendMapsUndecodableBodyToProtocolError(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("GetCurrentStatus", func(call int, payload map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"status": "not-an-object"}
	})
	c := f.client(t)

	_, err := c.GetCurrentStatus(context.Background())
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "GetCurrentStatus", protoErr.Endpoint)
}

func TestBlankSessionFromServerIsFatal(t *testing.T) {
	f := newFakeAPI(t)
	f.handle(sessionEndpoint, func(call int, payload map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"session_id": "   "}
	})
	c := f.client(t)

	err := c.Send(context.Background(), "ListModels", nil, nil)
	var sessErr *SessionError
	require.ErrorAs(t, err, &sessErr)
}

func TestSendAttachesAuthorizationHeader(t *testing.T) {
	seen := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == apiPrefix+sessionEndpoint {
			_, _ = w.Write([]byte(`{"session_id": "auth-session"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, Authorization: "Bearer secret"})
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), "ListModels", nil, nil))

	assert.Equal(t, "Bearer secret", <-seen) // session creation
	assert.Equal(t, "Bearer secret", <-seen) // the call itself
}
