package xlsx

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/user/site-auditor/internal/entity"
)

func TestExporter_Export(t *testing.T) {
	score := 1.14
	techs := "WordPress, PHP"
	at := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	reports := []*entity.SiteReport{
		{
			ID:           1,
			Site:         "example.com",
			URL:          "https://example.com",
			Score:        &score,
			Technologies: &techs,
			Details:      json.RawMessage(`{"sslIssue":true}`),
			AnalyzedAt:   &at,
		},
		{ID: 2, Site: "pending.example", URL: "https://pending.example"},
	}

	var buf bytes.Buffer
	if err := NewExporter().Export(&buf, reports); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	if rows[0][0] != "Sitio" || rows[0][5] != "Fecha Análisis" {
		t.Errorf("unexpected header row %v", rows[0])
	}

	first := rows[1]
	if first[0] != "example.com" || first[1] != "https://example.com" {
		t.Errorf("unexpected site columns %v", first)
	}
	if first[2] != "1.14" {
		t.Errorf("expected score 1.14, got %q", first[2])
	}
	if first[3] != techs {
		t.Errorf("expected technologies %q, got %q", techs, first[3])
	}
	if first[4] != `{"sslIssue":true}` {
		t.Errorf("unexpected details %q", first[4])
	}
	if first[5] != "2025-03-04 10:30:00" {
		t.Errorf("unexpected date %q", first[5])
	}

	if rows[2][0] != "pending.example" {
		t.Errorf("unexpected second row %v", rows[2])
	}
}

func TestExporter_ContentType(t *testing.T) {
	want := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if got := NewExporter().ContentType(); got != want {
		t.Errorf("ContentType() = %q, want %q", got, want)
	}
}
