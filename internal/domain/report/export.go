package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Resumo"
	districtSheet = "Por bairro"
)

var (
	summaryHeader  = []string{"Tipo", "Data de referência", "Total de ocorrências", "Gerado em"}
	districtHeader = []string{"Bairro", "Ocorrências"}
)

type statRow struct {
	label string
	value float64
}

// sortedStats orders statistics by value descending, then by label.
func sortedStats(stats map[string]float64) []statRow {
	rows := make([]statRow, 0, len(stats))
	for k, v := range stats {
		rows = append(rows, statRow{label: k, value: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].value != rows[j].value {
			return rows[i].value > rows[j].value
		}
		return rows[i].label < rows[j].label
	})
	return rows
}

// BuildWorkbook writes r as a two-sheet workbook: a summary row and one row
// per statistics entry.
func BuildWorkbook(r *Report) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(districtSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, summarySheet, summaryHeader, headerStyle, []float64{15, 20, 22, 22}); err != nil {
		f.Close()
		return nil, err
	}
	var total interface{} = ""
	if r.TotalIncidents != nil {
		total = *r.TotalIncidents
	}
	summary := []interface{}{r.Type, r.ReferenceDate.Format(), total, r.GeneratedAt.Format("02/01/2006 15:04:05")}
	for col, v := range summary {
		if err := setCellValue(f, summarySheet, col+1, 2, v); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set summary cell: %w", err)
		}
	}

	if err := writeHeader(f, districtSheet, districtHeader, headerStyle, []float64{30, 15}); err != nil {
		f.Close()
		return nil, err
	}
	for i, row := range sortedStats(r.Statistics) {
		if err := setCellValue(f, districtSheet, 1, i+2, row.label); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set cell value at row %d: %w", i+2, err)
		}
		if err := setCellValue(f, districtSheet, 2, i+2, row.value); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set cell value at row %d: %w", i+2, err)
		}
	}

	// File must stay open until WriteTo returns.
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int, widths []float64) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setCellValue(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
