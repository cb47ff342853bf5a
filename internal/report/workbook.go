package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/floudata/pucp-time-series/internal/models"
)

// Sheet names of the exported workbook
const (
	SheetSummary   = "Summary"
	SheetBeats     = "Beats"
	SheetDiagnoses = "Diagnoses"
)

var (
	beatsHeader     = []string{"Beat", "Sample", "Time (s)", "RR (s)", "Heart Rate (bpm)"}
	diagnosesHeader = []string{"SNOMED CT", "Full Name", "Acronym"}
)

// Verdict human-readable heart-rate range verdict
func Verdict(c models.Classification) string {
	switch c {
	case models.ClassificationNormal:
		return "within range"
	case models.ClassificationBradycardia, models.ClassificationTachycardia:
		return "out of range"
	default:
		return "undetermined"
	}
}

// WriteWorkbook exports the record details and one analysis result as XLSX
func WriteWorkbook(w io.Writer, details *models.RecordDetails, result *models.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes Summary so it stays first
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetBeats, SheetDiagnoses} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummary(f, details, result, headerStyle); err != nil {
		return err
	}
	if err := writeBeats(f, result, headerStyle); err != nil {
		return err
	}
	if err := writeDiagnoses(f, details, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, details *models.RecordDetails, result *models.AnalysisResult, style int) error {
	var age interface{} = "Unknown"
	if details.Metadata.Age != nil {
		age = *details.Metadata.Age
	}
	sex := details.Metadata.Sex
	if sex == "" {
		sex = "Unknown"
	}
	var meanHR interface{} = ""
	if result.MeanHeartRate != nil {
		meanHR = *result.MeanHeartRate
	}

	rows := [][]interface{}{
		{"Field", "Value"},
		{"Record", details.RecordID},
		{"Duration (s)", details.DurationSeconds},
		{"Sampling Rate (Hz)", details.SamplingRate},
		{"Channels", details.ChannelCount},
		{"Samples per Channel", details.SampleCount},
		{"Units", details.Units},
		{"Age", age},
		{"Sex", sex},
		{"Diagnoses", details.DiagnosisSummary},
		{"Lead", result.LeadName},
		{"Beats", len(result.Beats)},
		{"Mean Heart Rate (bpm)", meanHR},
		{"Min Heart Rate (bpm)", result.Summary.MinHeartRate},
		{"Max Heart Rate (bpm)", result.Summary.MaxHeartRate},
		{"SDNN (ms)", result.Summary.SDNN},
		{"RMSSD (ms)", result.Summary.RMSSD},
		{"Classification", string(result.Classification)},
		{"Heart Rate", Verdict(result.Classification)},
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "B", 24)
}

func writeBeats(f *excelize.File, result *models.AnalysisResult, style int) error {
	rows := make([][]interface{}, 0, len(result.Beats)+1)
	rows = append(rows, stringsRow(beatsHeader))
	fs := result.SamplingRate
	for i, b := range result.Beats {
		row := []interface{}{i + 1, b, float64(b) / fs, "", ""}
		if i > 0 && i-1 < len(result.RRIntervals) {
			row[3] = result.RRIntervals[i-1]
			row[4] = result.HeartRateSeries[i-1]
		}
		rows = append(rows, row)
	}
	if err := writeRows(f, SheetBeats, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetBeats, "A1", "E1", style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return freezeHeader(f, SheetBeats)
}

func writeDiagnoses(f *excelize.File, details *models.RecordDetails, style int) error {
	rows := make([][]interface{}, 0, len(details.Diagnoses)+1)
	rows = append(rows, stringsRow(diagnosesHeader))
	for _, d := range details.Diagnoses {
		rows = append(rows, []interface{}{d.Code, d.FullName, d.Acronym})
	}
	if err := writeRows(f, SheetDiagnoses, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetDiagnoses, "A1", "C1", style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return f.SetColWidth(SheetDiagnoses, "B", "B", 40)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func freezeHeader(f *excelize.File, sheet string) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func stringsRow(header []string) []interface{} {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}
