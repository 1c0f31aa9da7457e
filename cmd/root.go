// Package cmd defines and implements the CLI commands for the cbosa executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pracownik123GWW/CbosaEmailSender/internal/analyzer"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/cbosa"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/config"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/logging"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/runner"
	"github.com/pracownik123GWW/CbosaEmailSender/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the app in the command context.
type appKeyType struct{}

// app bundles the services a subcommand needs. Built once in the root
// command's PersistentPreRunE and torn down in PersistentPostRun.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	client *cbosa.Client
	store  *store.Store
}

// newApp is a variable so tests can substitute a mock factory.
var newApp = func(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewWithOptions(logging.Options{
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		client: cbosa.New(cfg.EngineConfig(), logger),
	}
	if cfg.DB.DSN != "" {
		st, err := store.New(ctx, store.Config{DSN: cfg.DB.DSN, MaxConns: cfg.DB.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		a.store = st
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// buildRunner assembles the pipeline from the configured services. The
// analyzer stage is enabled only when an OpenAI key is present.
func (a *app) buildRunner() (*runner.Runner, error) {
	var an runner.JudgmentAnalyzer
	if a.cfg.OpenAI.APIKey != "" {
		built, err := analyzer.New(analyzer.Config{
			APIKey:              a.cfg.OpenAI.APIKey,
			Model:               a.cfg.OpenAI.Model,
			MaxCompletionTokens: a.cfg.OpenAI.MaxCompletionTokens,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		an = built
	}
	var st runner.RunStore
	if a.store != nil {
		st = a.store
	}
	return runner.New(a.client, an, st, a.logger), nil
}

func resolveApp(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKeyType{}).(*app)
	if !ok || a == nil {
		return nil, fmt.Errorf("application services are not initialized")
	}
	return a, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cbosa",
		Short: "Retrieves administrative court judgments from the CBOSA portal.",
		Long: `cbosa searches the Polish Central Database of Administrative Court
Judgments (orzeczenia.nsa.gov.pl), downloads the matching judgment documents
and optionally summarizes, persists and archives them.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKeyType{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKeyType{}).(*app); ok && a != nil {
				a.close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default uses built-in defaults and CBOSA_* env vars)")

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
