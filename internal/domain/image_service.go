package domain

import (
	"context"
	"io"
	"time"
)

// RealFakeClassification is the classification type used for detection
const RealFakeClassification = "real_fake"

// ClassifyRequest represents the parameters for image classification
type ClassifyRequest struct {
	Type  string      `json:"type"`
	Image ResourceRef `json:"image"`
	Model ModelRef    `json:"model"`
}

// ClassificationResult represents the response of a classification
type ClassificationResult struct {
	Class string  `json:"class"`
	Real  float64 `json:"real"`
	Fake  float64 `json:"fake"`
	Error string  `json:"error,omitempty"`
}

// Detection is a classification with human readable summary lines
type Detection struct {
	Image  ResourceRef
	Result ClassificationResult
	Info   []string
}

// StatsEntry is a stats record posted to a backend
type StatsEntry struct {
	Image ResourceRef `json:"image"`
	Model ModelRef    `json:"model"`
	Stats []any       `json:"stats"`
}

// StatsRecord is a single stats record returned by a backend
type StatsRecord map[string]any

// ImageGenerator generates images on a backend and resolves their URLs
type ImageGenerator interface {
	// Generate asks the backend to generate an image with the given model
	Generate(ctx context.Context, model ModelDescriptor) (*GeneratedImage, error)

	// URL returns the display URL of a resource stored on the backend
	URL(ref ResourceRef) string
}

// ImageService defines the full set of operations of a backend
type ImageService interface {
	ImageGenerator

	Upload(ctx context.Context, filename string, r io.Reader) (*ResourceRef, error)
	Classify(ctx context.Context, req ClassifyRequest) (*ClassificationResult, error)
	Detect(ctx context.Context, image ResourceRef) (*Detection, error)
	PostStats(ctx context.Context, entry StatsEntry) (map[string]any, error)
	GetStats(ctx context.Context) ([]StatsRecord, error)
}

// Severity of a user notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a message shown to the user
type Notification struct {
	Severity Severity
	Title    string
	Text     string
	Lifespan time.Duration
}

// Notifier receives user notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
