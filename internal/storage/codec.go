// Package storage serializes the persisted collections and run state to
// their artifact files and owns the stage/verify/promote commit protocol
// that keeps the local and remote copies consistent.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ciamek94/scraper/internal/models"
	"github.com/xuri/excelize/v2"
)

// Fixed artifact file names, identical locally and on the remote.
const (
	FileAcceptedJSON = "accepted.json"
	FileAcceptedXLSX = "accepted.xlsx"
	FileRejectedJSON = "rejected.json"
	FileRejectedXLSX = "rejected.xlsx"
	FileRunState     = "state.json"
)

// ArtifactNames returns every artifact a commit covers, in commit order.
func ArtifactNames() []string {
	return []string{FileAcceptedJSON, FileAcceptedXLSX, FileRejectedJSON, FileRejectedXLSX, FileRunState}
}

// xlsxHeader is the fixed column order of the spreadsheet artifacts.
var xlsxHeader = []string{
	"Title", "Price", "Negotiable", "Location/Date", "Description",
	"Link", "NormLink", "Image", "SearchName", "Notified", "MissingCount", "Timestamp",
}

// WriteRecordsJSON serializes a collection to an indented JSON document.
func WriteRecordsJSON(path string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadRecordsJSON loads a collection. A missing file yields an empty
// collection, matching a first-ever run. Unknown fields are discarded on
// load rather than carried forward.
func ReadRecordsJSON(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// WriteRecordsXLSX serializes a collection to a single-sheet spreadsheet
// with a header row and columns sized to their content.
func WriteRecordsXLSX(path string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	widths := make([]int, len(xlsxHeader))
	for i, h := range xlsxHeader {
		widths[i] = len(h)
	}

	for i, rec := range records {
		row := []any{
			rec.Title, rec.Price, rec.Negotiable, rec.LocationDate, rec.Description,
			rec.Link, rec.NormLink, rec.Image, rec.SearchName, rec.Notified,
			rec.MissingCount, rec.Timestamp,
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		for col, v := range row {
			if l := len(fmt.Sprint(v)); l > widths[col] {
				widths[col] = l
			}
		}
	}

	for col, w := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", col+1, err)
		}
		if w > 80 {
			w = 80
		}
		if err := f.SetColWidth(sheet, name, name, float64(w+2)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	// Write via an os.Create'd handle rather than SaveAs: the staged
	// artifact carries a non-.xlsx suffix, which SaveAs would reject.
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// WriteRunState serializes the run-state document.
func WriteRunState(path string, state models.RunState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadRunState loads the previous run's state. A missing file yields nil,
// marking a first-ever run.
func ReadRunState(path string) (*models.RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var state models.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &state, nil
}
