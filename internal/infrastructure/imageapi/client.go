package imageapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/basel-ax/fakedetect/internal/domain"
	"github.com/basel-ax/fakedetect/internal/infrastructure/metrics"
)

const (
	imagePath  = "/image"
	imageField = "image"
	userAgent  = "fakedetect/1.0"
)

// Client represents an image API client bound to one backend
type Client struct {
	baseURL    string
	endpoint   string
	timeout    time.Duration
	detector   domain.ModelDescriptor
	root       zerolog.Logger
	log        zerolog.Logger
	httpClient *resty.Client
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets a client side timeout; zero keeps the transport default
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithDetector sets the model used by Detect
func WithDetector(m domain.ModelDescriptor) Option {
	return func(c *Client) { c.detector = m }
}

// WithLogger sets the client logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.root = log }
}

// NewClient creates a new image API client for the backend at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{root: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.bind(baseURL)
	return c
}

// WithBaseURL returns a copy of the client bound to another backend.
// Every other setting is carried over unchanged.
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	clone.bind(baseURL)
	return &clone
}

func (c *Client) bind(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.endpoint = c.baseURL + imagePath
	c.log = c.root.With().Str("component", "image-api").Str("backend_url", c.baseURL).Logger()
	c.httpClient = resty.New().
		SetHeader("User-Agent", userAgent).
		SetTimeout(c.timeout)
}

// BaseURL returns the backend base URL the client is bound to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the image endpoint every request is rooted at
func (c *Client) Endpoint() string {
	return c.endpoint
}

// URL returns the display URL of a resource stored on this backend
func (c *Client) URL(ref domain.ResourceRef) string {
	subdir := ref.Subdir
	if subdir == "" {
		subdir = domain.OriginSubdir
	}
	return fmt.Sprintf("%s/%s/%s%s", c.endpoint, subdir, ref.UUID, ref.Type)
}

// Upload stores a single image on the backend
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*domain.ResourceRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	contentType := mimetype.Detect(data).String()

	req := c.httpClient.R().
		SetMultipartField(imageField, filename, contentType, bytes.NewReader(data))

	body, err := c.send(ctx, "upload", req, http.MethodPost, c.endpoint)
	if err != nil {
		return nil, err
	}

	var result struct {
		domain.ResourceRef
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.Error != "" {
		return nil, &domain.APIError{StatusCode: http.StatusOK, Message: result.Error}
	}

	c.log.Debug().Str("uuid", result.UUID).Str("content_type", contentType).Msg("image uploaded")
	return &result.ResourceRef, nil
}

// Classify runs a classification on the backend
func (c *Client) Classify(ctx context.Context, req domain.ClassifyRequest) (*domain.ClassificationResult, error) {
	body, err := c.send(ctx, "classify", c.httpClient.R().SetBody(req), http.MethodPost, c.endpoint+"/classify")
	if err != nil {
		return nil, err
	}

	var result domain.ClassificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}
	if result.Error != "" {
		return nil, &domain.APIError{StatusCode: http.StatusOK, Message: result.Error}
	}
	return &result, nil
}

// Detect classifies an image as real or fake and summarizes the outcome
func (c *Client) Detect(ctx context.Context, image domain.ResourceRef) (*domain.Detection, error) {
	result, err := c.Classify(ctx, domain.ClassifyRequest{
		Type:  domain.RealFakeClassification,
		Image: image,
		Model: c.detector.Ref(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.Detection{
		Image:  image,
		Result: *result,
		Info:   DetectionInfo(*result),
	}, nil
}

// DetectionInfo renders the summary lines of a real/fake classification
func DetectionInfo(result domain.ClassificationResult) []string {
	return []string{
		fmt.Sprintf("I think this is a %s photo.", result.Class),
		fmt.Sprintf("real: %.4f fake: %.4f", result.Real, result.Fake),
	}
}

// Generate asks the backend to generate an image with the given model
func (c *Client) Generate(ctx context.Context, model domain.ModelDescriptor) (*domain.GeneratedImage, error) {
	payload := map[string]any{"model": model.Ref()}

	body, err := c.send(ctx, "generate", c.httpClient.R().SetBody(payload), http.MethodPost, c.endpoint+"/generate")
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}
	if msg, ok := raw["error"].(string); ok && msg != "" {
		return nil, &domain.APIError{StatusCode: http.StatusOK, Message: msg}
	}

	var ref domain.ResourceRef
	if err := json.Unmarshal(body, &ref); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	return &domain.GeneratedImage{ResourceRef: ref, Raw: raw}, nil
}

// PostStats records a stats entry on the backend
func (c *Client) PostStats(ctx context.Context, entry domain.StatsEntry) (map[string]any, error) {
	if entry.Stats == nil {
		entry.Stats = []any{}
	}

	body, err := c.send(ctx, "post_stats", c.httpClient.R().SetBody(entry), http.MethodPost, c.endpoint+"/stats")
	if err != nil {
		return nil, err
	}

	var ack map[string]any
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	return ack, nil
}

// GetStats lists the stats recorded on the backend
func (c *Client) GetStats(ctx context.Context) ([]domain.StatsRecord, error) {
	body, err := c.send(ctx, "get_stats", c.httpClient.R(), http.MethodGet, c.endpoint+"/stats")
	if err != nil {
		return nil, err
	}

	var records []domain.StatsRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}
	return records, nil
}

func (c *Client) send(ctx context.Context, op string, req *resty.Request, method, url string) ([]byte, error) {
	start := time.Now()
	resp, err := req.SetContext(ctx).Execute(method, url)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		c.log.Error().Err(err).Str("operation", op).Msg("backend request failed")
		return nil, fmt.Errorf("failed to send %s request: %w", op, err)
	}

	status := resp.StatusCode()
	metrics.BackendRequestDuration.WithLabelValues(op, strconv.Itoa(status)).Observe(time.Since(start).Seconds())

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.log.Error().
			Str("operation", op).
			Int("status", status).
			Str("body", resp.String()).
			Msg("backend returned error")
		return nil, &domain.APIError{StatusCode: status, Message: resp.String()}
	}
	return resp.Body(), nil
}

var _ domain.ImageService = (*Client)(nil)
