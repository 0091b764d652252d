package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/user/site-auditor/internal/entity"
)

func disableColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})
}

func TestFormatScore(t *testing.T) {
	disableColor(t)

	tests := []struct {
		score float64
		want  string
	}{
		{0, "0.00"},
		{1.14, "1.14"},
		{2.5, "2.50"},
		{4.71, "4.71"},
	}
	for _, tt := range tests {
		if got := formatScore(tt.score); got != tt.want {
			t.Errorf("formatScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestPrintResult_Text(t *testing.T) {
	disableColor(t)

	var c entity.Checks
	c.SSLIssue = entity.Flag(true)
	c.HeadersMissing = entity.Flag(true)
	result := &entity.AnalysisResult{
		URL:          "https://example.com",
		Technologies: []string{"WordPress", "PHP"},
		Checks:       c,
		Score:        1.43,
	}

	var buf bytes.Buffer
	if err := printResult(&buf, result, false); err != nil {
		t.Fatalf("printResult() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"URL: https://example.com",
		"Technologies: WordPress, PHP",
		"Score: 1.43 / 5",
		"- sslIssue",
		"- headersMissing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintResult_NoIssues(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	result := &entity.AnalysisResult{URL: "https://example.com", Technologies: []string{}}
	if err := printResult(&buf, result, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "none detected") || !strings.Contains(buf.String(), "No issues found") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestPrintResult_JSON(t *testing.T) {
	var c entity.Checks
	c.MissingSPF = entity.Flag(true)
	result := &entity.AnalysisResult{URL: "https://example.com", Technologies: []string{}, Checks: c, Score: 0.29}

	var buf bytes.Buffer
	if err := printResult(&buf, result, true); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	checks, ok := decoded["checks"].(map[string]interface{})
	if !ok || checks["mxMissingSPF"] != true {
		t.Errorf("expected flattened checks with mxMissingSPF, got %v", decoded["checks"])
	}
}

func TestPrintSummary(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	printSummary(&buf, &entity.RunSummary{Batches: 2, Processed: 2, Skipped: 1, State: entity.StateDone})
	out := buf.String()
	if !strings.Contains(out, "Run: done") || !strings.Contains(out, "processed: 2") || !strings.Contains(out, "skipped:   1") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}
