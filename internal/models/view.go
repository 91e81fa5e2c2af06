package models

// DisplayKind tags a DisplayValue
type DisplayKind int

const (
	DisplayAbsent DisplayKind = iota
	DisplayText
	DisplayLink
)

// DisplayValue is a rendered cell: absent, plain text or a link
type DisplayValue struct {
	Kind   DisplayKind
	Text   string
	Target string
}

// Absent is the explicit marker for a cell without a value
func Absent() DisplayValue {
	return DisplayValue{Kind: DisplayAbsent}
}

// Text creates a text cell
func Text(s string) DisplayValue {
	return DisplayValue{Kind: DisplayText, Text: s}
}

// Link creates a link cell with a label
func Link(target, label string) DisplayValue {
	return DisplayValue{Kind: DisplayLink, Target: target, Text: label}
}

// IsAbsent reports whether the cell carries no value
func (d DisplayValue) IsAbsent() bool {
	return d.Kind == DisplayAbsent
}

// String returns the visible label of the cell; empty for absent cells
func (d DisplayValue) String() string {
	if d.Kind == DisplayAbsent {
		return ""
	}
	return d.Text
}

// ViewRow is the display projection of one record. Cells holds an entry for
// every column of the schema.
type ViewRow struct {
	ID    string
	Cells map[string]DisplayValue

	// Fields is the flattened record the cells were rendered from
	Fields Fields
}

// Cell returns the cell for a column, absent when missing
func (r ViewRow) Cell(columnID string) DisplayValue {
	if v, ok := r.Cells[columnID]; ok {
		return v
	}
	return Absent()
}
