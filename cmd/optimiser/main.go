// Command optimiser serves the credit card optimiser over HTTP and Telegram,
// runs database migrations and scores purchases offline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/config"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
)

const serviceName = "credit-card-optimiser"

// env is filled by the root command before any subcommand runs.
type env struct {
	configFile string
	cfg        *config.Config
	logger     *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "optimiser",
		Short:         "Pick the credit card that earns the most for a purchase",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(viper.New(), e.configFile)
			if err != nil {
				return err
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.LogLevel = level
			}
			e.cfg = cfg
			e.logger = observability.NewLogger(cfg.LogLevel)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&e.configFile, "config", "", "optional YAML/JSON config file")
	root.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(e),
		newTelegramCmd(e),
		newMigrateCmd(e),
		newScoreCmd(e),
	)
	return root
}
