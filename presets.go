package swarmclient

import (
	"context"
	"errors"
	"net/http"
)

// Preset is a named bundle of generation parameters.
type Preset struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ParamMap    map[string]any `json:"param_map"`
}

// ListPresets returns the user's presets.
func (c *Client) ListPresets(ctx context.Context) ([]Preset, error) {
	var resp struct {
		Presets []Preset `json:"presets"`
	}
	if err := c.Send(ctx, "ListPresets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Presets, nil
}

// AddNewPreset stores a new preset. The server rejects duplicate titles.
func (c *Client) AddNewPreset(ctx context.Context, p Preset) error {
	return c.sendPreset(ctx, "AddNewPreset", p, false)
}

// EditPreset overwrites an existing preset of the same title.
func (c *Client) EditPreset(ctx context.Context, p Preset) error {
	return c.sendPreset(ctx, "AddNewPreset", p, true)
}

func (c *Client) sendPreset(ctx context.Context, endpoint string, p Preset, isEdit bool) error {
	if p.Title == "" {
		return errors.New("preset title is required")
	}
	payload := map[string]any{
		"title":       p.Title,
		"description": p.Description,
		"param_map":   p.ParamMap,
		"is_edit":     isEdit,
	}
	var resp struct {
		Success    bool   `json:"success"`
		PresetFail string `json:"preset_fail"`
	}
	if err := c.Send(ctx, endpoint, payload, &resp); err != nil {
		return err
	}
	// Preset rejections come back on a 200 without the error envelope.
	if resp.PresetFail != "" {
		return &APIError{ID: "preset_fail", Message: resp.PresetFail, Status: http.StatusOK}
	}
	return nil
}

// DeletePreset removes the preset with the given title.
func (c *Client) DeletePreset(ctx context.Context, title string) error {
	if title == "" {
		return errors.New("preset title is required")
	}
	return c.Send(ctx, "DeletePreset", map[string]any{"preset": title}, nil)
}

// DuplicatePreset copies a preset under a generated title.
func (c *Client) DuplicatePreset(ctx context.Context, title string) error {
	if title == "" {
		return errors.New("preset title is required")
	}
	return c.Send(ctx, "DuplicatePreset", map[string]any{"preset": title}, nil)
}
