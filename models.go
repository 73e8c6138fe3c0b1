package swarmclient

import (
	"context"
	"errors"
)

// ModelInfo describes one model known to the server.
type ModelInfo struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Description  string `json:"description,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	Class        string `json:"class,omitempty"`
	Resolution   string `json:"standard_resolution,omitempty"`
	PreviewImage string `json:"preview_image,omitempty"`
	Loaded       bool   `json:"loaded,omitempty"`
}

// ModelList is one level of the server's model folder tree.
type ModelList struct {
	Folders []string    `json:"folders"`
	Files   []ModelInfo `json:"files"`
}

// ListModels lists models under path, descending depth folder levels.
// Path "" and depth 1 list the top level.
func (c *Client) ListModels(ctx context.Context, path string, depth int) (*ModelList, error) {
	if depth <= 0 {
		depth = 1
	}
	var resp ModelList
	err := c.Send(ctx, "ListModels", map[string]any{"path": path, "depth": depth}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DescribeModel returns the full metadata of one model.
func (c *Client) DescribeModel(ctx context.Context, name string) (*ModelInfo, error) {
	if name == "" {
		return nil, errors.New("model name is required")
	}
	var resp struct {
		Model *ModelInfo `json:"model"`
	}
	if err := c.Send(ctx, "DescribeModel", map[string]any{"modelName": name}, &resp); err != nil {
		return nil, err
	}
	if resp.Model == nil {
		return nil, &ProtocolError{Endpoint: "DescribeModel", Err: errors.New("response carried no model")}
	}
	return resp.Model, nil
}

// SelectModel makes name the session's current model, loading it on a
// backend if necessary.
func (c *Client) SelectModel(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("model name is required")
	}
	return c.Send(ctx, "SelectModel", map[string]any{"model": name}, nil)
}

// ModelMetadata is the editable subset of a model's metadata.
type ModelMetadata struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Description  string `json:"description,omitempty"`
	Resolution   string `json:"standard_resolution,omitempty"`
	PreviewImage string `json:"preview_image,omitempty"`
}

// EditModelMetadata updates the stored metadata of one model. Empty fields
// are left untouched on the server.
func (c *Client) EditModelMetadata(ctx context.Context, name string, meta ModelMetadata) error {
	if name == "" {
		return errors.New("model name is required")
	}
	payload := map[string]any{"model": name}
	if meta.Title != "" {
		payload["title"] = meta.Title
	}
	if meta.Author != "" {
		payload["author"] = meta.Author
	}
	if meta.Description != "" {
		payload["description"] = meta.Description
	}
	if meta.Resolution != "" {
		payload["standard_resolution"] = meta.Resolution
	}
	if meta.PreviewImage != "" {
		payload["preview_image"] = meta.PreviewImage
	}
	return c.Send(ctx, "EditModelMetadata", payload, nil)
}
