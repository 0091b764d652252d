// Package xlsx renders analysis reports as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/user/site-auditor/internal/entity"
)

const (
	// SheetName is the worksheet holding the results.
	SheetName = "Resultados"
	// FileName is the suggested download name.
	FileName = "resultados_analizados.xlsx"
)

type column struct {
	header string
	width  float64
}

var columns = []column{
	{"Sitio", 30},
	{"URL", 40},
	{"Puntuación", 15},
	{"Tecnologías", 30},
	{"Detalles", 50},
	{"Fecha Análisis", 25},
}

// Exporter writes reports into a single-sheet workbook.
type Exporter struct{}

// NewExporter creates a new Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// ContentType is the MIME type of the produced document.
func (e *Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is the suggested download name.
func (e *Exporter) FileName() string {
	return FileName
}

// Export writes one header row and one row per report.
func (e *Exporter) Export(w io.Writer, reports []*entity.SiteReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, col.width); err != nil {
			return fmt.Errorf("set width of %s: %w", name, err)
		}
		if err := f.SetCellValue(SheetName, name+"1", col.header); err != nil {
			return fmt.Errorf("write header %s: %w", col.header, err)
		}
	}

	for i, rep := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, rowValues(rep)); err != nil {
			return fmt.Errorf("write row for site %d: %w", rep.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowValues(rep *entity.SiteReport) *[]interface{} {
	var score interface{}
	if rep.Score != nil {
		score = *rep.Score
	}
	var techs string
	if rep.Technologies != nil {
		techs = *rep.Technologies
	}
	var analyzedAt string
	if rep.AnalyzedAt != nil {
		analyzedAt = rep.AnalyzedAt.Format(time.DateTime)
	}
	row := []interface{}{rep.Site, rep.URL, score, techs, string(rep.Details), analyzedAt}
	return &row
}
