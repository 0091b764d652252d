package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/user/site-auditor/internal/entity"
	"github.com/user/site-auditor/internal/scoring"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

// formatScore colors a score by how much needs fixing: lower is healthier.
func formatScore(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score < 1.5:
		return colorSuccess(s)
	case score < 3:
		return colorWarn(s)
	default:
		return colorError(s)
	}
}

func printResult(out io.Writer, result *entity.AnalysisResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	techs := "none detected"
	if len(result.Technologies) > 0 {
		techs = strings.Join(result.Technologies, ", ")
	}

	fmt.Fprintf(out, "%s %s\n", colorInfo("URL:"), result.URL)
	fmt.Fprintf(out, "%s %s\n", colorInfo("Technologies:"), techs)
	fmt.Fprintf(out, "%s %s / %.0f\n", colorInfo("Score:"), formatScore(result.Score), scoring.MaxScore)

	triggered := scoring.Triggered(result.Checks)
	if len(triggered) == 0 {
		fmt.Fprintln(out, colorSuccess("No issues found"))
		return nil
	}
	fmt.Fprintln(out, colorInfo("Issues:"))
	for _, name := range triggered {
		fmt.Fprintf(out, "  - %s\n", colorWarn(name))
	}
	return nil
}

func printSummary(out io.Writer, s *entity.RunSummary) {
	fmt.Fprintf(out, "%s %s\n", colorInfo("Run:"), s.State)
	fmt.Fprintf(out, "  batches:   %d\n", s.Batches)
	fmt.Fprintf(out, "  processed: %s\n", colorSuccess(s.Processed))
	fmt.Fprintf(out, "  skipped:   %s\n", colorWarn(s.Skipped))
	fmt.Fprintf(out, "  failed:    %s\n", colorError(s.Failed))
}
