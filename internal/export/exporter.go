// Package export serializes a session's accepted records to a durable report
// file under the configured backup directory, one file per session table.
package export

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"presenz/pkg/types"
)

// Supported report formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Exporter writes attendance reports.
type Exporter struct {
	backupDir string
	format    string
}

// NewExporter creates an exporter for the given backup directory and format.
func NewExporter(backupDir, format string) (*Exporter, error) {
	if format != FormatJSON && format != FormatXLSX {
		return nil, fmt.Errorf("%w: unsupported export format %q", types.ErrInvalidArgument, format)
	}
	return &Exporter{backupDir: backupDir, format: format}, nil
}

// reportRecord is the serialized shape of one record: name, roll and
// timestamp verbatim from the store.
type reportRecord struct {
	Name      string `json:"name"`
	Roll      string `json:"roll"`
	Timestamp string `json:"timestamp"`
}

// Export writes one report file named after the session table and returns its
// path.
func (e *Exporter) Export(table string, records []*types.AttendanceRecord) (string, error) {
	if err := os.MkdirAll(e.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(e.backupDir, table+"."+e.format)

	var err error
	switch e.format {
	case FormatJSON:
		err = e.writeJSON(path, records)
	case FormatXLSX:
		err = e.writeXLSX(path, records)
	}
	if err != nil {
		return "", err
	}

	log.Printf("Exported %d records to %s", len(records), path)
	return path, nil
}

func (e *Exporter) writeJSON(path string, records []*types.AttendanceRecord) error {
	structured := make([]reportRecord, 0, len(records))
	for _, r := range records {
		structured = append(structured, reportRecord{
			Name:      r.Name,
			Roll:      r.Roll,
			Timestamp: r.Timestamp.Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(structured, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (e *Exporter) writeXLSX(path string, records []*types.AttendanceRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Attendance"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"Name", "Roll", "Timestamp"}
	for i, h := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for idx, r := range records {
		row := idx + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Name); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Roll); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Timestamp.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 30); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "C", 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
