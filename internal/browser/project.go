package browser

import (
	"log/slog"

	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Record is a raw record the projector can flatten
type Record interface {
	Fields() models.Fields
}

// Project turns records into view rows with one cell per column. A column
// without a render function, or one whose render panics, gets an absent cell.
func Project[R Record](records []R, cols []columns.ColumnDefinition, logger *slog.Logger) []models.ViewRow {
	rows := make([]models.ViewRow, 0, len(records))
	for _, rec := range records {
		fields := rec.Fields()
		row := models.ViewRow{Cells: make(map[string]models.DisplayValue, len(cols)), Fields: fields}
		row.ID, _ = fields.String(models.FieldID)
		for _, c := range cols {
			row.Cells[c.ID] = renderCell(c, fields, logger)
		}
		rows = append(rows, row)
	}
	return rows
}

func renderCell(c columns.ColumnDefinition, fields models.Fields, logger *slog.Logger) (v models.DisplayValue) {
	if c.Render == nil {
		return models.Absent()
	}
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Warn("cell render panicked", "column", c.ID, "panic", r)
			}
			v = models.Absent()
		}
	}()
	return c.Render(fields)
}
