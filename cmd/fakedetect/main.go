package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/basel-ax/fakedetect/internal/config"
	"github.com/basel-ax/fakedetect/internal/domain"
	"github.com/basel-ax/fakedetect/internal/infrastructure/imageapi"
	"github.com/basel-ax/fakedetect/internal/infrastructure/logger"
	"github.com/basel-ax/fakedetect/internal/infrastructure/notify"
	"github.com/basel-ax/fakedetect/internal/infrastructure/registry"
	"github.com/basel-ax/fakedetect/internal/repository"
	"github.com/basel-ax/fakedetect/internal/service"
)

// app holds the wired components shared by every command
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	registry   *registry.Registry
	client     *imageapi.Client
	notices    *notify.Queue
	dispatcher *service.Dispatcher
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	reg, err := registry.LoadFile(cfg.BackendsFile)
	if err != nil {
		return nil, err
	}

	client := imageapi.NewClient(cfg.BackendBaseURL,
		imageapi.WithTimeout(cfg.HTTPTimeout),
		imageapi.WithDetector(cfg.DetectorModel()),
		imageapi.WithLogger(log),
	)
	notices := notify.NewQueue(log)

	dispatcher := service.NewDispatcher(
		client,
		func(baseURL string) domain.ImageGenerator { return client.WithBaseURL(baseURL) },
		reg,
		reg,
		notices,
		service.WithLogger(log),
	)

	log.Debug().
		Str("backend_url", cfg.BackendBaseURL).
		Int("models", len(reg.Models())).
		Msg("configuration loaded")

	return &app{
		cfg:        cfg,
		log:        log,
		registry:   reg,
		client:     client,
		notices:    notices,
		dispatcher: dispatcher,
	}, nil
}

// openRepository connects to postgres and makes sure the schema exists
func (a *app) openRepository(ctx context.Context) (*repository.PostgresGenerationRepository, func(), error) {
	if a.cfg.DB.URL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", a.cfg.DB.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(a.cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(a.cfg.DB.ConnMaxLifetime)

	repo := repository.NewPostgresGenerationRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

// selectedModels returns the models given on the command line, or the
// enabled catalog models when none were given
func (a *app) selectedModels(args []string) ([]domain.ModelDescriptor, error) {
	if len(args) == 0 {
		return a.registry.Enabled(), nil
	}
	models := make([]domain.ModelDescriptor, 0, len(args))
	for _, s := range args {
		m, err := domain.ParseModelDescriptor(s)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func newRootCmd() *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "fakedetect",
		Short:         "Generate and detect fake images across model backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			return err
		},
	}

	get := func() *app { return a }
	root.AddCommand(
		newDetectCmd(get),
		newGenerateCmd(get),
		newModelsCmd(get),
		newStatsCmd(get),
		newHistoryCmd(get),
		newScheduleCmd(get),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
