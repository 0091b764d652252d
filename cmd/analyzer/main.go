package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/site-auditor/pkg/config"
	"github.com/user/site-auditor/pkg/logger"
)

var (
	cfg      *config.Config
	log      *zap.Logger
	logLevel string
	asJSON   bool
)

var rootCmd = &cobra.Command{
	Use:           "analyzer",
	Short:         "Score websites on technical, security and UX health",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel == "" {
			logLevel = cfg.LogLevel
		}
		log, err = logger.New(logLevel)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(checkCmd, siteCmd, runCmd)
}

// signalContext is cancelled on SIGINT/SIGTERM. A site already in progress
// still finishes.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("error: ")+err.Error())
		os.Exit(1)
	}
}
