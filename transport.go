package swarmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// sessionEndpoint is the one call that must not carry a session id:
	// creating a session cannot require one.
	sessionEndpoint = "GetNewSession"

	// sessionField is the JSON field every authenticated payload carries.
	sessionField = "session_id"

	// errInvalidSession is the server's error id for a rejected or expired
	// session. It is the only recoverable error identifier.
	errInvalidSession = "invalid_session_id"
)

// injectSession returns a copy of payload with the session token merged in.
// The caller's map is never mutated.
func injectSession(payload map[string]any, token string) map[string]any {
	merged := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged[sessionField] = token
	return merged
}

// Send performs one request/response exchange against /API/<endpoint>,
// injecting the current session token and decoding the response into out
// (out may be nil to discard the body).
//
// If the server rejects the session, the session is invalidated and the
// whole exchange is retried exactly once with a fresh token; a second
// rejection surfaces as *SessionError. Other structured errors and failing
// HTTP statuses surface as *APIError, undecodable success bodies as
// *ProtocolError.
func (c *Client) Send(ctx context.Context, endpoint string, payload map[string]any, out any) error {
	return c.send(ctx, endpoint, payload, out, true)
}

func (c *Client) send(ctx context.Context, endpoint string, payload map[string]any, out any, retry bool) error {
	body := payload
	if body == nil {
		body = map[string]any{}
	}
	if endpoint != sessionEndpoint {
		token, err := c.sessions.GetOrCreate(ctx)
		if err != nil {
			return err
		}
		body = injectSession(body, token)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(endpoint), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Authorization != "" {
		req.Header.Set("Authorization", c.opts.Authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", endpoint, err)
	}

	// The error envelope is checked before the HTTP status: the server
	// reports structured failures on 200 responses as well.
	var env struct {
		ErrorID string `json:"error_id"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if env.ErrorID == errInvalidSession {
			c.sessions.Invalidate()
			if retry && endpoint != sessionEndpoint {
				c.log.Debug().Str("endpoint", endpoint).Msg("session rejected, retrying with a fresh session")
				return c.send(ctx, endpoint, payload, out, false)
			}
			return &SessionError{Message: "server rejected a freshly created session on " + endpoint}
		}
		if env.ErrorID != "" || env.Error != "" {
			return &APIError{ID: env.ErrorID, Message: env.Error, Status: resp.StatusCode}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &ProtocolError{Endpoint: endpoint, Err: fmt.Errorf("empty response body")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProtocolError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// createSession obtains a new session token from the server. It is the
// creation func wired into the session manager; going through send with
// the session endpoint skips token injection, so there is no recursion.
func (c *Client) createSession(ctx context.Context) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.send(ctx, sessionEndpoint, nil, &resp, false); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.SessionID), nil
}
