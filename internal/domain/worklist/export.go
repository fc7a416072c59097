package worklist

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// exportHeader is the column layout of the worklist export.
var exportHeader = []string{
	"Patient ID",
	"Triage Level",
	"Source",
	"Reason",
	"Trend",
	"Department",
	"SpO2 (%)",
	"Temp (°C)",
	"Heart Rate (BPM)",
	"Pain (/10)",
	"Top Factors",
	"Clinical Synthesis",
	"Recommended Action",
	"Routed To",
	"Created At",
}

const exportSheet = "Triage Board"

// Export renders the board rows into an XLSX workbook, in board order.
func Export(entries []*Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, e := range entries {
		reason := ""
		if e.RuleReason != nil {
			reason = *e.RuleReason
		}
		row := []any{
			e.PatientID,
			e.Level,
			string(e.Source),
			reason,
			e.Trend.Label,
			e.Department,
			e.Record.OxygenSaturation,
			e.Record.BodyTemperature,
			e.Record.HeartRate,
			e.Record.PainLevel,
			e.FactorSummary,
			e.Narrative.Synthesis,
			e.Narrative.RecommendedAction,
			e.Narrative.Department,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, start, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename names the download with the row count for quick sanity
// checks on the receiving end.
func ExportFilename(entries int) string {
	return "triage_board_" + strconv.Itoa(entries) + "_patients.xlsx"
}
