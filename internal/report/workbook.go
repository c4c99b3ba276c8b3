package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	adherenceSheet = "Adherence"
	summarySheet   = "Summary"
)

// AdherenceHeader column titles of the adherence sheet
var AdherenceHeader = []string{
	"Date",
	"Time Slot",
	"Medication",
	"Dosage",
	"Taken",
	"Taken At",
}

// SummaryHeader column titles of the summary sheet
var SummaryHeader = []string{
	"Medication",
	"Expected",
	"Taken",
	"Adherence",
}

// WriteWorkbook renders rows as an .xlsx with an "Adherence" sheet and a per-medication "Summary" sheet.
// loc formats Taken At (nil means UTC).
func WriteWorkbook(rows []AdherenceRow, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()

	index, err := f.NewSheet(adherenceSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	missedStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create missed style: %w", err)
	}

	if err := writeHeader(f, adherenceSheet, AdherenceHeader, []float64{12, 12, 28, 16, 8, 20}, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range rows {
		row := i + 2
		takenAt := ""
		if r.TakenAt != nil {
			takenAt = r.TakenAt.In(loc).Format("2006-01-02 15:04:05")
		}
		taken := "No"
		if r.Taken {
			taken = "Yes"
		}
		values := []interface{}{r.Date, string(r.TimeSlot), r.MedicationName, r.Dosage, taken, takenAt}
		if err := setRow(f, adherenceSheet, row, values); err != nil {
			f.Close()
			return nil, err
		}
		if !r.Taken {
			cell, _ := excelize.CoordinatesToCellName(5, row)
			if err := f.SetCellStyle(adherenceSheet, cell, cell, missedStyle); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell style: %w", err)
			}
		}
	}

	if err := writeHeader(f, summarySheet, SummaryHeader, []float64{28, 10, 10, 12}, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	for i, s := range Summarize(rows) {
		values := []interface{}{s.MedicationName, s.Expected, s.Taken, fmt.Sprintf("%.0f%%", s.Rate()*100)}
		if err := setRow(f, summarySheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}

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

// writeHeader styled header row, column widths and frozen first row
func writeHeader(f *excelize.File, sheet string, headers []string, widths []float64, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
