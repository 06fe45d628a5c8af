// backend/services/export_service.go
package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/leadscout/adscraper/backend/models"
)

// ExportLeadsCSV writes the flat tabular projection of leads to w, one row
// per lead, header first.
func ExportLeadsCSV(w io.Writer, leads []models.Lead) error {
	rows := make([]models.LeadExportRow, 0, len(leads))
	for i := range leads {
		rows = append(rows, leads[i].ExportRow())
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal leads to CSV: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write CSV data: %w", err)
	}
	return nil
}

// WriteLeadsCSVFile exports leads to a dated file under dir and returns the
// file's path.
func WriteLeadsCSVFile(dir string, leads []models.Lead) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("leads_%s.csv", time.Now().UTC().Format("2006-01-02")))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer file.Close()

	if err := ExportLeadsCSV(file, leads); err != nil {
		return "", err
	}
	log.Printf("Service: exported %d leads to %s\n", len(leads), path)
	return path, nil
}
