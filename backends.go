package swarmclient

import (
	"context"
	"errors"
)

// Backend describes one generation backend instance on the server.
type Backend struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Status   string         `json:"status"`
	Title    string         `json:"title,omitempty"`
	Enabled  bool           `json:"enabled"`
	Settings map[string]any `json:"settings,omitempty"`
}

// BackendType describes one backend implementation the server can launch.
type BackendType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListBackends returns all backend instances keyed by their id.
func (c *Client) ListBackends(ctx context.Context) (map[string]Backend, error) {
	var resp map[string]Backend
	if err := c.Send(ctx, "ListBackends", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListBackendTypes returns the backend implementations available on the
// server.
func (c *Client) ListBackendTypes(ctx context.Context) ([]BackendType, error) {
	var resp struct {
		List []BackendType `json:"list"`
	}
	if err := c.Send(ctx, "ListBackendTypes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.List, nil
}

// AddNewBackend creates a backend instance of the given type with default
// settings and returns it.
func (c *Client) AddNewBackend(ctx context.Context, typeID string) (*Backend, error) {
	if typeID == "" {
		return nil, errors.New("backend type id is required")
	}
	var resp Backend
	if err := c.Send(ctx, "AddNewBackend", map[string]any{"type_id": typeID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EditBackend updates a backend's title and settings and returns the new
// state.
func (c *Client) EditBackend(ctx context.Context, id, title string, settings map[string]any) (*Backend, error) {
	if id == "" {
		return nil, errors.New("backend id is required")
	}
	payload := map[string]any{
		"backend_id":   id,
		"title":        title,
		"raw_inp_dict": settings,
	}
	var resp Backend
	if err := c.Send(ctx, "EditBackend", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteBackend shuts down and removes a backend instance.
func (c *Client) DeleteBackend(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("backend id is required")
	}
	return c.Send(ctx, "DeleteBackend", map[string]any{"backend_id": id}, nil)
}

// ToggleBackend enables or disables a backend without removing it.
func (c *Client) ToggleBackend(ctx context.Context, id string, enabled bool) error {
	if id == "" {
		return errors.New("backend id is required")
	}
	return c.Send(ctx, "ToggleBackend", map[string]any{"backend_id": id, "enabled": enabled}, nil)
}

// RestartBackends restarts every errored or stopped backend and reports
// how many were restarted.
func (c *Client) RestartBackends(ctx context.Context) (int, error) {
	var resp struct {
		CountRestarted int `json:"count_restarted"`
	}
	if err := c.Send(ctx, "RestartBackends", nil, &resp); err != nil {
		return 0, err
	}
	return resp.CountRestarted, nil
}

// FreeBackendMemory asks all backends to release cached model memory.
// When systemRAM is true, system memory caches are dropped as well as VRAM.
func (c *Client) FreeBackendMemory(ctx context.Context, systemRAM bool) error {
	return c.Send(ctx, "FreeBackendMemory", map[string]any{"system_ram": systemRAM}, nil)
}
