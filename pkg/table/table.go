// Package table defines the typed, columnar result of one conversion and
// the non-fatal warnings attached to it.
package table

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"

	"github.com/licorflow/licorflow/pkg/registry"
)

// WarningKind classifies a non-fatal conversion anomaly.
type WarningKind uint8

const (
	// WarnCoercion marks a cell whose raw token could not be coerced to the
	// column's declared type; the cell is null in the output.
	WarnCoercion WarningKind = iota
	// WarnObsOrder marks a non-monotonic observation index within a data block.
	WarnObsOrder
	// WarnShortLine marks a data line with fewer fields than the active layout.
	WarnShortLine
)

func (k WarningKind) String() string {
	switch k {
	case WarnCoercion:
		return "coercion"
	case WarnObsOrder:
		return "obs_order"
	case WarnShortLine:
		return "short_line"
	default:
		return "unknown"
	}
}

// Warning records one non-fatal anomaly. Warnings accumulate on the Table
// instead of interrupting conversion.
type Warning struct {
	Kind    WarningKind
	Line    int
	Obs     int64
	Column  string
	Value   string
	Message string
}

func (w Warning) String() string {
	s := fmt.Sprintf("%s (line %d", w.Kind, w.Line)
	if w.Obs > 0 {
		s += fmt.Sprintf(", obs %d", w.Obs)
	}
	if w.Column != "" {
		s += fmt.Sprintf(", column %s", w.Column)
	}
	s += ")"
	if w.Message != "" {
		s += ": " + w.Message
	}
	return s
}

// Table is one fully converted log: an Arrow record batch plus the schema it
// was built against, the instrument header, and accumulated warnings.
// The caller owns the Table once returned; the engine retains nothing.
type Table struct {
	// Schema the rows were typed against.
	Schema *registry.Schema

	// Record holds the columnar data. One row per distinct observation,
	// in first-seen observation order.
	Record arrow.Record

	// Metadata is the instrument identity parsed from the header.
	Metadata registry.Metadata

	// Header holds the raw header key-value pairs.
	Header map[string]string

	// Remarks holds the free-text remark lines in file order.
	Remarks []string

	// Warnings accumulated during tokenizing and row building.
	Warnings []Warning

	// SourcePath is the input file the table was converted from.
	SourcePath string
}

// NumRows returns the number of observations.
func (t *Table) NumRows() int64 {
	if t.Record == nil {
		return 0
	}
	return t.Record.NumRows()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int64 {
	if t.Record == nil {
		return 0
	}
	return t.Record.NumCols()
}

// ArrowSchema returns the Arrow schema of the underlying record.
func (t *Table) ArrowSchema() *arrow.Schema {
	if t.Record == nil {
		return nil
	}
	return t.Record.Schema()
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t.Record == nil {
		return -1
	}
	for i, f := range t.Record.Schema().Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Release frees the underlying Arrow memory. The Table must not be used
// afterwards.
func (t *Table) Release() {
	if t.Record != nil {
		t.Record.Release()
		t.Record = nil
	}
}
