package swarmclient

import (
	"context"
	"errors"
	"fmt"
)

// Text2ImageParams describes one text-to-image generation request.
type Text2ImageParams struct {
	// Prompt is the positive prompt text. Required.
	Prompt string
	// NegativePrompt lists concepts to steer away from.
	NegativePrompt string
	// Model selects the model by name; empty uses the server's current one.
	Model string
	// Images is the number of images to generate. Defaults to 1.
	Images int
	// Width and Height are the output dimensions in pixels. Required.
	Width  int
	Height int
	// Steps is the sampler step count; zero uses the server default.
	Steps int
	// CFGScale is the classifier-free guidance scale; zero uses the
	// server default.
	CFGScale float64
	// Seed fixes the generation seed; zero lets the server pick one.
	Seed int64
	// Extra carries additional raw parameters merged into the payload as-is
	// (loras, samplers, init images, anything not modeled above).
	Extra map[string]any
}

// Validate checks the parameters locally. It is always run before any
// network traffic, so malformed requests never reach the transport.
func (p *Text2ImageParams) Validate() error {
	if p == nil {
		return errors.New("generation parameters are required")
	}
	if p.Prompt == "" {
		return errors.New("prompt is required")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Images < 0 {
		return fmt.Errorf("image count must not be negative, got %d", p.Images)
	}
	return nil
}

func (p *Text2ImageParams) payload() map[string]any {
	images := p.Images
	if images == 0 {
		images = 1
	}
	m := map[string]any{
		"prompt": p.Prompt,
		"images": images,
		"width":  p.Width,
		"height": p.Height,
	}
	if p.NegativePrompt != "" {
		m["negativeprompt"] = p.NegativePrompt
	}
	if p.Model != "" {
		m["model"] = p.Model
	}
	if p.Steps > 0 {
		m["steps"] = p.Steps
	}
	if p.CFGScale > 0 {
		m["cfgscale"] = p.CFGScale
	}
	if p.Seed != 0 {
		m["seed"] = p.Seed
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return m
}

// GenerateText2Image runs one generation over plain HTTP and returns the
// image references once the whole batch has finished. For progress and
// per-image delivery use GenerateText2ImageStream.
func (c *Client) GenerateText2Image(ctx context.Context, params *Text2ImageParams) ([]string, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var resp struct {
		Images []string `json:"images"`
	}
	if err := c.Send(ctx, "GenerateText2Image", params.payload(), &resp); err != nil {
		return nil, err
	}
	return resp.Images, nil
}

// GenerateText2ImageStream runs one generation over the streaming API,
// yielding status, progress, image, and discard updates in server order.
//
// The stream ends when the server closes it. Callers that want to stop
// early (for example once the expected number of images has arrived and a
// status update reports no waiting or live generations) simply cancel the
// context or Close the stream; both terminate it cleanly.
func (c *Client) GenerateText2ImageStream(ctx context.Context, params *Text2ImageParams) (*Stream[GenUpdate], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return StreamCall(ctx, c, "GenerateText2ImageWS", params.payload(), decodeGenUpdate)
}

// Interrupt stops all generations belonging to this client's session.
func (c *Client) Interrupt(ctx context.Context) error {
	return c.Send(ctx, "InterruptAll", map[string]any{"other_sessions": false}, nil)
}

// InterruptAll stops all generations on the server, including those of
// other sessions.
func (c *Client) InterruptAll(ctx context.Context) error {
	return c.Send(ctx, "InterruptAll", map[string]any{"other_sessions": true}, nil)
}
