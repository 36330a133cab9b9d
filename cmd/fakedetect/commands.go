package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/basel-ax/fakedetect/internal/domain"
	"github.com/basel-ax/fakedetect/internal/service"
)

func newDetectCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE",
		Short: "Upload an image and classify it as real or fake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			uploaded, err := a.client.Upload(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("failed to upload image: %w", err)
			}
			detection, err := a.client.Detect(cmd.Context(), *uploaded)
			if err != nil {
				return fmt.Errorf("failed to detect image: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.client.URL(*uploaded))
			for _, line := range detection.Info {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newGenerateCmd(get func() *app) *cobra.Command {
	var (
		models []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an image with one of the selected models",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			selected, err := a.selectedModels(models)
			if err != nil {
				return err
			}

			result, err := a.dispatcher.GenerateImage(cmd.Context(), selected)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result == nil {
				printNotifications(out, a.notices.Drain())
				return nil
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintf(out, "%s\t%s\n", result.Model, result.URL)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&models, "model", "m", nil, "model as name[:version][@backend], repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the generation payload as JSON")
	return cmd
}

func newModelsCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List catalog models and whether they can be dispatched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			var rows [][]string
			for _, m := range a.registry.Models() {
				backendURL := a.cfg.BackendBaseURL
				if m.Backend != "" {
					b, _ := a.registry.Backend(m.Backend)
					backendURL = b.BaseURL
				}
				rows = append(rows, []string{
					m.Name,
					m.Version,
					m.Label,
					m.Backend,
					backendURL,
					strconv.FormatBool(m.Enabled),
					strconv.FormatBool(a.dispatcher.IsValidModel(m.Descriptor())),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"NAME", "VERSION", "LABEL", "BACKEND", "URL", "ENABLED", "VALID"}, rows)
			return nil
		},
	}
}

func newStatsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the stats recorded on the default backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := get().client.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			printStats(cmd.OutOrStdout(), records)
			return nil
		},
	}

	var (
		image    domain.ResourceRef
		model    string
		verdicts []string
	)
	post := &cobra.Command{
		Use:   "post",
		Short: "Record a stats entry for an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseModelDescriptor(model)
			if err != nil {
				return err
			}
			entry := domain.StatsEntry{Image: image, Model: m.Ref()}
			for _, v := range verdicts {
				entry.Stats = append(entry.Stats, v)
			}

			ack, err := get().client.PostStats(cmd.Context(), entry)
			if err != nil {
				return fmt.Errorf("failed to post stats: %w", err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(ack)
		},
	}
	post.Flags().StringVar(&image.UUID, "uuid", "", "image uuid")
	post.Flags().StringVar(&image.Type, "type", ".png", "image file extension")
	post.Flags().StringVar(&model, "model", "", "model as name[:version]")
	post.Flags().StringArrayVar(&verdicts, "stat", nil, "stats value, repeatable")
	_ = post.MarkFlagRequired("uuid")
	_ = post.MarkFlagRequired("model")

	cmd.AddCommand(post)
	return cmd
}

func newHistoryCmd(get func() *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently generated images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := get().openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			generations, err := repo.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(generations))
			for _, g := range generations {
				rows = append(rows, []string{
					strconv.FormatInt(g.ID, 10),
					g.CreatedAt.Format(time.RFC3339),
					g.ModelName + ":" + g.ModelVersion,
					g.Backend,
					g.URL,
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "CREATED", "MODEL", "BACKEND", "URL"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of generations to show")
	return cmd
}

func newScheduleCmd(get func() *app) *cobra.Command {
	var withoutDB bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate images on the GENERATE_SCHEDULE cron spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()

			models, err := a.cfg.Models()
			if err != nil {
				return err
			}
			if len(models) == 0 {
				models = a.registry.Enabled()
			}

			var scheduler *service.GenerationScheduler
			if withoutDB {
				scheduler = service.NewGenerationScheduler(a.dispatcher, nil, models, a.log)
			} else {
				repo, closeDB, err := a.openRepository(ctx)
				if err != nil {
					return err
				}
				defer closeDB()
				scheduler = service.NewGenerationScheduler(a.dispatcher, repo, models, a.log)
			}

			srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: metricsHandler()}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Error().Err(err).Msg("metrics server failed")
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			go drainNotifications(ctx, a)
			return scheduler.Start(ctx, a.cfg.GenerateSchedule)
		},
	}
	cmd.Flags().BoolVar(&withoutDB, "no-db", false, "do not store generations")
	return cmd
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// drainNotifications keeps the queue from growing in long running mode;
// every notification is already logged when pushed
func drainNotifications(ctx context.Context, a *app) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.notices.Drain()
		}
	}
}

func printNotifications(w io.Writer, notes []domain.Notification) {
	for _, n := range notes {
		fmt.Fprintf(w, "[%s] %s: %s\n", n.Severity, n.Title, n.Text)
	}
}

func printStats(w io.Writer, records []domain.StatsRecord) {
	keys := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(header))
		for i, k := range header {
			if v, ok := r[k]; ok {
				row[i] = formatValue(v)
			}
		}
		rows = append(rows, row)
	}
	renderTable(w, header, rows)
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetTablePadding("    ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
