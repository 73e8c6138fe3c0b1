package swarmclient

import "context"

// ConnectedUser is one user currently holding a session on the server.
type ConnectedUser struct {
	ID                string  `json:"id"`
	LastActiveSeconds float64 `json:"last_active_seconds"`
	ActiveSessions    int     `json:"active_sessions"`
}

// ListConnectedUsers returns the users with recently active sessions.
func (c *Client) ListConnectedUsers(ctx context.Context) ([]ConnectedUser, error) {
	var resp struct {
		Users []ConnectedUser `json:"users"`
	}
	if err := c.Send(ctx, "ListConnectedUsers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// GetCurrentStatus returns the server's generation queue snapshot.
func (c *Client) GetCurrentStatus(ctx context.Context) (*ServerStatus, error) {
	var resp struct {
		Status *ServerStatus `json:"status"`
	}
	if err := c.Send(ctx, "GetCurrentStatus", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == nil {
		resp.Status = &ServerStatus{}
	}
	return resp.Status, nil
}

// MemoryInfo is a used/total pair in bytes.
type MemoryInfo struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

// GPUInfo describes one GPU visible to the server.
type GPUInfo struct {
	Name        string `json:"name"`
	Temperature int    `json:"temperature"`
	Utilization int    `json:"utilization_gpu"`
	MemoryTotal uint64 `json:"total_memory"`
	MemoryUsed  uint64 `json:"used_memory"`
}

// ServerResourceInfo is the server's hardware utilization snapshot.
type ServerResourceInfo struct {
	CPUUsage float64            `json:"cpu_usage"`
	RAM      MemoryInfo         `json:"ram"`
	GPUs     map[string]GPUInfo `json:"gpus"`
}

// GetServerResourceInfo returns CPU, RAM, and GPU utilization.
func (c *Client) GetServerResourceInfo(ctx context.Context) (*ServerResourceInfo, error) {
	var resp ServerResourceInfo
	if err := c.Send(ctx, "GetServerResourceInfo", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// T2IParam is the server-side metadata of one generation parameter.
type T2IParam struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Min         float64  `json:"min,omitempty"`
	Max         float64  `json:"max,omitempty"`
	Values      []string `json:"values,omitempty"`
}

// ListT2IParams returns the generation parameters the server accepts,
// useful for populating Text2ImageParams.Extra.
func (c *Client) ListT2IParams(ctx context.Context) ([]T2IParam, error) {
	var resp struct {
		List []T2IParam `json:"list"`
	}
	if err := c.Send(ctx, "ListT2IParams", nil, &resp); err != nil {
		return nil, err
	}
	return resp.List, nil
}

// ShutdownServer asks the server to stop. The call returns once the server
// has acknowledged, not once it has exited.
func (c *Client) ShutdownServer(ctx context.Context) error {
	return c.Send(ctx, "ShutdownServer", nil, nil)
}

// UpdateAndRestart asks the server to pull updates and restart itself.
func (c *Client) UpdateAndRestart(ctx context.Context) error {
	return c.Send(ctx, "UpdateAndRestart", nil, nil)
}
