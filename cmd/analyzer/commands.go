package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/user/site-auditor/internal/app"
	"github.com/user/site-auditor/internal/usecase"
	"github.com/user/site-auditor/pkg/metrics"
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Analyze one URL without touching the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		analyzer := app.NewAnalyzer(cfg, metrics.New(prometheus.NewRegistry()), log)
		result, err := analyzer.Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), result, asJSON)
	},
}

var siteCmd = &cobra.Command{
	Use:   "site <id>",
	Short: "Analyze one stored site and save its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid site id %q", args[0])
		}

		ctx, cancel := signalContext()
		defer cancel()

		application, err := app.New(ctx, cfg, prometheus.NewRegistry(), log)
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.Controller.RunSite(ctx, id)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), result, asJSON)
	},
}

var runAll bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze every pending site in batches",
	Long: `Claim unanalyzed sites in batches, run every check and store the results.
With --all previous results are deleted and every site is analyzed again.
Ctrl+C stops the run after the site in progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		application, err := app.New(ctx, cfg, prometheus.NewRegistry(), log)
		if err != nil {
			return err
		}
		defer application.Close()

		ctrl := application.Controller
		start := ctrl.RunPending
		if runAll {
			start = ctrl.RunAll
		}
		if err := start(ctx); err != nil {
			if errors.Is(err, usecase.ErrRunInProgress) {
				return fmt.Errorf("%w, try again once it finishes", err)
			}
			return err
		}
		if summary := ctrl.Wait(); summary != nil {
			printSummary(cmd.OutOrStdout(), summary)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "clear previous results and analyze every site")
}
