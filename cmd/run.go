package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pracownik123GWW/CbosaEmailSender/internal/runner"
)

// newRunCmd creates the 'run' subcommand: the full search, download,
// analyze, persist and archive pipeline. With --schedule it keeps running
// on a cron schedule until interrupted.
func newRunCmd() *cobra.Command {
	var (
		flags       searchFlags
		schedule    string
		skipArchive bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Executes a full retrieval run",
		Long: `Searches CBOSA, downloads the matching judgment documents, summarizes
RTF judgments when an OpenAI key is configured, persists the outcome when a
database is configured and bundles the documents into a zip archive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			r, err := a.buildRunner()
			if err != nil {
				return err
			}

			quota := flags.maxResults
			if quota <= 0 {
				quota = a.cfg.Retrieval.MaxResults
			}
			opts := runner.Options{
				Query:       flags.query(),
				MaxResults:  quota,
				OutputDir:   a.cfg.Retrieval.OutputDir,
				SkipArchive: skipArchive,
			}

			if schedule == "" {
				return runOnce(cmd, r, opts)
			}
			return runScheduled(cmd.Context(), a.logger, schedule, func(ctx context.Context) {
				if _, err := r.Run(ctx, opts); err != nil {
					a.logger.Error("Scheduled run failed", zap.Error(err))
				}
			})
		},
	}
	registerSearchFlags(cmd, &flags)
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression; repeat the run on this schedule until interrupted")
	cmd.Flags().BoolVar(&skipArchive, "skip-archive", false, "leave downloaded documents unbundled")
	return cmd
}

func runOnce(cmd *cobra.Command, r *runner.Runner, opts runner.Options) error {
	report, err := r.Run(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("retrieval run: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// runScheduled blocks until SIGINT/SIGTERM, firing job on the cron
// schedule. The job receives the signal-scoped context so an in-flight run
// stops promptly on shutdown.
func runScheduled(ctx context.Context, logger *zap.Logger, schedule string, job func(context.Context)) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { job(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	logger.Info("Scheduler started", zap.String("schedule", schedule))

	<-ctx.Done()
	logger.Info("Scheduler stopping")
	<-c.Stop().Done()
	return nil
}
