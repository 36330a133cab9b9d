package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/basel-ax/fakedetect/internal/domain"
	"github.com/basel-ax/fakedetect/internal/infrastructure/metrics"
)

// NoModelNotification is emitted when no selected model has a usable backend
var NoModelNotification = domain.Notification{
	Severity: domain.SeverityWarning,
	Title:    "Model Not Selected",
	Text:     "Please enable at least one model for image generation",
	Lifespan: 5000 * time.Millisecond,
}

// BindFunc builds a client bound to a backend base URL
type BindFunc func(baseURL string) domain.ImageGenerator

// Dispatcher routes image generation to the backend serving each model
type Dispatcher struct {
	client   domain.ImageGenerator
	bind     BindFunc
	backends domain.BackendRegistry
	models   domain.ModelResolver
	notifier domain.Notifier
	selector Selector
	log      zerolog.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithSelector replaces the uniform random selector
func WithSelector(s Selector) DispatcherOption {
	return func(d *Dispatcher) { d.selector = s }
}

// WithLogger sets the dispatcher logger
func WithLogger(log zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = log.With().Str("component", "dispatcher").Logger() }
}

// NewDispatcher creates a dispatcher around the default client
func NewDispatcher(
	client domain.ImageGenerator,
	bind BindFunc,
	backends domain.BackendRegistry,
	models domain.ModelResolver,
	notifier domain.Notifier,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		client:   client,
		bind:     bind,
		backends: backends,
		models:   models,
		notifier: notifier,
		selector: NewRandomSelector(nil),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsValidModel reports whether a model can be dispatched: it needs no
// backend, or its backend has a binding with a non-empty base URL.
func (d *Dispatcher) IsValidModel(m domain.ModelDescriptor) bool {
	backend := d.models.Model(m).Backend
	if backend == "" {
		return true
	}
	b, ok := d.backends.Backend(backend)
	return ok && strings.TrimSpace(b.BaseURL) != ""
}

// FilterValid returns the models that pass IsValidModel, in input order
func (d *Dispatcher) FilterValid(models []domain.ModelDescriptor) []domain.ModelDescriptor {
	valid := make([]domain.ModelDescriptor, 0, len(models))
	for _, m := range models {
		if d.IsValidModel(m) {
			valid = append(valid, m)
		}
	}
	return valid
}

// ForModel returns the client serving a model: the default client when the
// model needs no backend, otherwise a new client bound to its backend.
func (d *Dispatcher) ForModel(m domain.ModelDescriptor) (domain.ImageGenerator, error) {
	backend := d.models.Model(m).Backend
	if backend == "" {
		return d.client, nil
	}
	b, ok := d.backends.Backend(backend)
	if !ok || strings.TrimSpace(b.BaseURL) == "" {
		return nil, &domain.MissingBackendError{Backend: backend}
	}
	return d.bind(b.BaseURL), nil
}

// GenerateImage generates an image with one of the given models. It returns
// (nil, nil) after notifying the user when none of them is usable.
func (d *Dispatcher) GenerateImage(ctx context.Context, models []domain.ModelDescriptor) (*domain.GenerationResult, error) {
	log := d.log.With().Str("dispatch_id", uuid.NewString()).Logger()

	valid := d.FilterValid(models)
	if len(valid) == 0 {
		log.Warn().Int("candidates", len(models)).Msg("no model with a usable backend")
		metrics.DispatchTotal.WithLabelValues("", metrics.OutcomeNoValidModel).Inc()
		d.notifier.Notify(ctx, NoModelNotification)
		return nil, nil
	}

	model := d.selector.Select(valid)
	backend := d.models.Model(model).Backend
	log.Debug().
		Int("candidates", len(models)).
		Int("valid", len(valid)).
		Str("model", model.String()).
		Str("backend", backend).
		Msg("model selected")

	client, err := d.ForModel(model)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues(model.Name, metrics.OutcomeMissingBackend).Inc()
		log.Error().Err(err).Str("model", model.String()).Msg("no client for model")
		return nil, err
	}

	image, err := client.Generate(ctx, model)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues(model.Name, metrics.OutcomeTransportError).Inc()
		return nil, fmt.Errorf("failed to generate image with %s: %w", model, err)
	}

	ref := image.ResourceRef
	ref.Subdir = model.Name

	metrics.DispatchTotal.WithLabelValues(model.Name, metrics.OutcomeGenerated).Inc()
	log.Info().Str("model", model.String()).Str("uuid", ref.UUID).Msg("image generated")

	return &domain.GenerationResult{
		ResourceRef: ref,
		URL:         client.URL(ref),
		Model:       model,
		Backend:     backend,
		Raw:         image.Raw,
	}, nil
}
