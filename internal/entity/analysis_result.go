package entity

import (
	"encoding/json"
	"time"
)

// AnalysisResult is the output of one pipeline run for one URL.
type AnalysisResult struct {
	URL          string   `json:"url"`
	Technologies []string `json:"technologies"`
	Checks       Checks   `json:"checks"`
	Score        float64  `json:"score"`
}

// SiteReport is a site joined with its latest analysis, if any.
// It mirrors the rows served to the control panel and the export.
type SiteReport struct {
	ID           int64           `json:"id"`
	Site         string          `json:"site"`
	URL          string          `json:"url"`
	Score        *float64        `json:"score"`
	Technologies *string         `json:"technologies"`
	Details      json.RawMessage `json:"details"`
	AnalyzedAt   *time.Time      `json:"analyzed_at,omitempty"`
}
