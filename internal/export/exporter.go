// Package export writes the visible part of a table page to CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// Write writes rows in the given format
func Write(w io.Writer, format Format, cols []columns.ColumnDefinition, rows []models.ViewRow) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, cols, rows)
	case FormatJSON:
		return WriteJSON(w, cols, rows)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
}

// ToFile creates path and writes rows into it
func ToFile(path string, format Format, cols []columns.ColumnDefinition, rows []models.ViewRow) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(file, format, cols, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes a header of column labels and one line per row. Link cells
// are written as their label and absent cells as empty fields.
func WriteCSV(w io.Writer, cols []columns.ColumnDefinition, rows []models.ViewRow) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, len(cols))
		for i, c := range cols {
			record[i] = row.Cell(c.ID).String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

type jsonLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// WriteJSON writes one object per row keyed by column id. Text cells become
// strings, link cells {label, url} and absent cells null.
func WriteJSON(w io.Writer, cols []columns.ColumnDefinition, rows []models.ViewRow) error {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]interface{}, len(cols))
		for _, c := range cols {
			cell := row.Cell(c.ID)
			switch cell.Kind {
			case models.DisplayText:
				obj[c.ID] = cell.Text
			case models.DisplayLink:
				obj[c.ID] = jsonLink{Label: cell.Text, URL: cell.Target}
			default:
				obj[c.ID] = nil
			}
		}
		out = append(out, obj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
