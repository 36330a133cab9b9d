package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/basel-ax/fakedetect/internal/domain"
	"github.com/basel-ax/fakedetect/internal/infrastructure/metrics"
	"github.com/basel-ax/fakedetect/internal/repository"
)

// ImageDispatcher generates an image with one of a set of models
type ImageDispatcher interface {
	GenerateImage(ctx context.Context, models []domain.ModelDescriptor) (*domain.GenerationResult, error)
}

// GenerationScheduler periodically dispatches generation for a model set
type GenerationScheduler struct {
	dispatcher ImageDispatcher
	repo       repository.GenerationRepository
	models     []domain.ModelDescriptor
	log        zerolog.Logger
	running    sync.Mutex
}

// NewGenerationScheduler creates a scheduler. repo may be nil, in which case
// results are only logged.
func NewGenerationScheduler(dispatcher ImageDispatcher, repo repository.GenerationRepository, models []domain.ModelDescriptor, log zerolog.Logger) *GenerationScheduler {
	return &GenerationScheduler{
		dispatcher: dispatcher,
		repo:       repo,
		models:     models,
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Start runs RunOnce on the cron spec (seconds field enabled) until ctx is
// cancelled.
func (s *GenerationScheduler) Start(ctx context.Context, spec string) error {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled generation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule generation %q: %w", spec, err)
	}

	c.Start()
	s.log.Info().Str("schedule", spec).Int("models", len(s.models)).Msg("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

// RunOnce dispatches a single generation and stores the result. A run that
// starts while another is in flight is skipped and returns (nil, nil).
func (s *GenerationScheduler) RunOnce(ctx context.Context) (*domain.GenerationResult, error) {
	if !s.running.TryLock() {
		s.log.Warn().Msg("previous generation still running, skipping")
		metrics.ScheduledRunsTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}
	defer s.running.Unlock()

	result, err := s.dispatcher.GenerateImage(ctx, s.models)
	if err != nil {
		metrics.ScheduledRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if result == nil {
		metrics.ScheduledRunsTotal.WithLabelValues("no_model").Inc()
		return nil, nil
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, domain.NewGeneration(result)); err != nil {
			metrics.ScheduledRunsTotal.WithLabelValues("failed").Inc()
			return result, fmt.Errorf("failed to save generation %s: %w", result.UUID, err)
		}
	}

	metrics.ScheduledRunsTotal.WithLabelValues("generated").Inc()
	s.log.Info().
		Str("model", result.Model.String()).
		Str("url", result.URL).
		Msg("scheduled generation completed")
	return result, nil
}
