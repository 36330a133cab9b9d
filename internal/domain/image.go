package domain

import (
	"encoding/json"
	"time"
)

// OriginSubdir is the storage namespace of uploaded images
const OriginSubdir = "origin"

// ResourceRef identifies an uploaded or generated image on a backend
type ResourceRef struct {
	UUID   string `json:"uuid"`
	Type   string `json:"type"`
	Subdir string `json:"subdir,omitempty"`
}

// GeneratedImage is the raw payload returned by a backend generate call
type GeneratedImage struct {
	ResourceRef
	Raw map[string]any
}

// GenerationResult is a generated image together with its display URL
type GenerationResult struct {
	ResourceRef
	URL     string
	Model   ModelDescriptor
	Backend string
	Raw     map[string]any
}

// MarshalJSON renders the backend payload with the computed url merged in
func (r GenerationResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Raw)+3)
	for k, v := range r.Raw {
		out[k] = v
	}
	if _, ok := out["uuid"]; !ok {
		out["uuid"] = r.UUID
	}
	if _, ok := out["type"]; !ok {
		out["type"] = r.Type
	}
	out["url"] = r.URL
	return json.Marshal(out)
}

// Generation is a stored generation result
type Generation struct {
	ID           int64
	ModelName    string
	ModelVersion string
	Backend      string
	UUID         string
	Type         string
	Subdir       string
	URL          string
	CreatedAt    time.Time
}

// NewGeneration converts a dispatch result into a record for storage
func NewGeneration(r *GenerationResult) *Generation {
	return &Generation{
		ModelName:    r.Model.Name,
		ModelVersion: r.Model.Version,
		Backend:      r.Backend,
		UUID:         r.UUID,
		Type:         r.Type,
		Subdir:       r.Subdir,
		URL:          r.URL,
	}
}
