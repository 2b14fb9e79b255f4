package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/config"
	logpkg "github.com/kailas-cloud/searchbridge/internal/logger"
)

// globals holds what every command shares once the config is loaded.
type globals struct {
	env string
	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "searchbridge",
		Short:         "Keeps a search index in sync with domain records and serves queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return g.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&g.env, "env", config.GetEnv(),
		"configuration environment (reads config/<env>.yaml)")

	root.AddCommand(
		newServeCmd(g),
		newConfigureCmd(g),
		newReindexCmd(g),
		newReconcileCmd(g),
		newVersionCmd(),
	)
	root.SetErrPrefix("searchbridge:")
	root.SetOut(os.Stdout)
	return root
}

func (g *globals) load() error {
	cfg, err := config.Load(g.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logpkg.NewLogger(g.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	g.cfg, g.log = cfg, log
	return nil
}

// run builds the application, runs fn with a context cancelled on SIGINT/SIGTERM
// and releases every connection afterwards.
func (g *globals) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, g.log)

	a, err := buildApp(ctx, g.cfg, g.log)
	if err != nil {
		g.log.Error("Failed to build application", zap.Error(err))
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		g.log.Error("Command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	return nil
}
