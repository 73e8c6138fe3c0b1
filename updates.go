package swarmclient

import "encoding/json"

// UpdateKind discriminates the variants of a GenUpdate.
type UpdateKind int

const (
	// UpdateStatus carries the server's current queue/backend counts.
	UpdateStatus UpdateKind = iota
	// UpdateProgress carries per-image generation progress.
	UpdateProgress
	// UpdateImage carries one finished image.
	UpdateImage
	// UpdateDiscard lists batch indices the server discarded.
	UpdateDiscard
	// UpdateError carries a server-reported generation error.
	UpdateError
	// UpdateKeepAlive is a liveness signal with no payload.
	UpdateKeepAlive
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateStatus:
		return "status"
	case UpdateProgress:
		return "progress"
	case UpdateImage:
		return "image"
	case UpdateDiscard:
		return "discard"
	case UpdateError:
		return "error"
	case UpdateKeepAlive:
		return "keep_alive"
	default:
		return "unknown"
	}
}

// ServerStatus is the server's generation queue snapshot.
type ServerStatus struct {
	WaitingGens     int `json:"waiting_gens"`
	LoadingModels   int `json:"loading_models"`
	WaitingBackends int `json:"waiting_backends"`
	LiveGens        int `json:"live_gens"`
}

// GenProgress reports progress on one image of a batch.
type GenProgress struct {
	BatchIndex int     `json:"batch_index"`
	Overall    float64 `json:"overall_percent"`
	Current    float64 `json:"current_percent"`
	// Preview is an optional low-resolution preview, as a data URI.
	Preview string `json:"preview,omitempty"`
}

// GeneratedImage is one finished image from a generation call.
type GeneratedImage struct {
	// Image is the image reference: a server-relative path or a data URI.
	Image      string `json:"image"`
	BatchIndex int    `json:"batch_index"`
	// Metadata is the server's JSON metadata blob for the image, if any.
	Metadata string `json:"metadata,omitempty"`
}

// GenUpdate is one server-pushed message on a generation stream. Kind
// selects the variant; only the matching field is populated.
type GenUpdate struct {
	Kind           UpdateKind
	Status         *ServerStatus
	Progress       *GenProgress
	Image          *GeneratedImage
	DiscardIndices []int
	Error          string
}

// decodeGenUpdate interprets one frame of a generation stream by its
// top-level key set. Frames with no recognized key are skipped rather than
// treated as errors, so newer servers can add message shapes freely.
func decodeGenUpdate(raw json.RawMessage) (GenUpdate, bool, error) {
	var probe struct {
		Status         *ServerStatus `json:"status"`
		GenProgress    *GenProgress  `json:"gen_progress"`
		Image          *string       `json:"image"`
		BatchIndex     int           `json:"batch_index"`
		Metadata       string        `json:"metadata"`
		DiscardIndices []int         `json:"discard_indices"`
		Error          *string       `json:"error"`
		KeepAlive      *bool         `json:"keep_alive"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return GenUpdate{}, false, err
	}

	switch {
	case probe.Error != nil:
		return GenUpdate{Kind: UpdateError, Error: *probe.Error}, true, nil
	case probe.Image != nil:
		return GenUpdate{Kind: UpdateImage, Image: &GeneratedImage{
			Image:      *probe.Image,
			BatchIndex: probe.BatchIndex,
			Metadata:   probe.Metadata,
		}}, true, nil
	case probe.GenProgress != nil:
		return GenUpdate{Kind: UpdateProgress, Progress: probe.GenProgress}, true, nil
	case probe.DiscardIndices != nil:
		return GenUpdate{Kind: UpdateDiscard, DiscardIndices: probe.DiscardIndices}, true, nil
	case probe.Status != nil:
		return GenUpdate{Kind: UpdateStatus, Status: probe.Status}, true, nil
	case probe.KeepAlive != nil:
		return GenUpdate{Kind: UpdateKeepAlive}, true, nil
	default:
		return GenUpdate{}, false, nil
	}
}
