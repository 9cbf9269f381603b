// Package builder applies a registry schema to tokenized raw records,
// producing the typed, columnar table. Coercion failures null the cell and
// record a warning; they never discard an otherwise valid observation.
package builder

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/licorflow/licorflow/internal/pool"
	"github.com/licorflow/licorflow/pkg/registry"
	"github.com/licorflow/licorflow/pkg/table"
	"github.com/licorflow/licorflow/pkg/tokenizer"
)

// nullTokens are raw values the instrument writes for missing readings.
var nullTokens = map[string]bool{
	"":     true,
	"-":    true,
	"none": true,
	"None": true,
	"NA":   true,
	"N/A":  true,
	"nan":  true,
	"NaN":  true,
}

// Builder assembles Arrow record batches from raw records. Safe for
// concurrent use.
type Builder struct {
	alloc memory.Allocator
}

// New creates a Builder using the default allocator.
func New() *Builder {
	return &Builder{alloc: memory.DefaultAllocator}
}

// Build coerces every raw record against the schema. The result has one row
// per distinct observation in first-seen order, and exactly the schema's
// columns: layout columns the schema does not declare are dropped, schema
// columns the record never saw are null.
func (b *Builder) Build(schema *registry.Schema, doc *tokenizer.Document) (*table.Table, error) {
	arrowSchema := b.arrowSchema(schema)
	builders := b.createBuilders(schema)
	defer func() {
		for _, bld := range builders {
			bld.Release()
		}
	}()

	var warnings []table.Warning

	for _, rec := range doc.Records {
		for i, col := range schema.Columns {
			field, present := rec.Fields[col.Name]
			if !present || nullTokens[field.Value] {
				builders[i].AppendNull()
				continue
			}
			if w := appendValue(builders[i], &col, field.Value); w != nil {
				w.Line = rec.Line
				w.Obs = rec.Obs
				warnings = append(warnings, *w)
			}
		}
	}

	cols := make([]arrow.Array, len(builders))
	for i, bld := range builders {
		cols[i] = bld.NewArray()
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	record := array.NewRecord(arrowSchema, cols, int64(len(doc.Records)))

	return &table.Table{
		Schema:   schema,
		Record:   record,
		Warnings: warnings,
	}, nil
}

// arrowSchema maps the registry schema to Arrow, carrying units and labels
// as field metadata.
func (b *Builder) arrowSchema(schema *registry.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Columns))
	for i, col := range schema.Columns {
		meta := arrow.NewMetadata(
			[]string{"label", "units", "section"},
			[]string{col.Label, col.Units, col.Section.String()},
		)
		fields[i] = arrow.Field{
			Name:     col.Name,
			Type:     arrowType(col.Type),
			Nullable: col.Name != "obs",
			Metadata: meta,
		}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t registry.ValueType) arrow.DataType {
	switch t {
	case registry.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case registry.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case registry.TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	default:
		return arrow.BinaryTypes.String
	}
}

func (b *Builder) createBuilders(schema *registry.Schema) []array.Builder {
	builders := make([]array.Builder, len(schema.Columns))
	for i, col := range schema.Columns {
		switch col.Type {
		case registry.TypeFloat:
			builders[i] = array.NewFloat64Builder(b.alloc)
		case registry.TypeInt:
			builders[i] = array.NewInt64Builder(b.alloc)
		case registry.TypeTimestamp:
			builders[i] = array.NewTimestampBuilder(b.alloc, &arrow.TimestampType{Unit: arrow.Microsecond})
		default:
			builders[i] = array.NewStringBuilder(b.alloc)
		}
	}
	return builders
}

// appendValue coerces one token into its column builder. On failure the
// cell is appended as null and a coercion warning is returned.
func appendValue(bld array.Builder, col *registry.ColumnDef, value string) *table.Warning {
	switch col.Type {
	case registry.TypeFloat:
		v, err := pool.ParseFloat64([]byte(value))
		if err != nil {
			bld.AppendNull()
			return coercionWarning(col, value, "not a number")
		}
		bld.(*array.Float64Builder).Append(v)

	case registry.TypeInt:
		v, err := pool.ParseInt64([]byte(value))
		if err != nil {
			bld.AppendNull()
			return coercionWarning(col, value, "not an integer")
		}
		bld.(*array.Int64Builder).Append(v)

	case registry.TypeTimestamp:
		t, err := pool.ParseTimestamp([]byte(value))
		if err != nil {
			bld.AppendNull()
			return coercionWarning(col, value, "no known timestamp layout matches")
		}
		bld.(*array.TimestampBuilder).Append(arrow.Timestamp(t.UnixMicro()))

	default:
		bld.(*array.StringBuilder).Append(value)
	}
	return nil
}

func coercionWarning(col *registry.ColumnDef, value, reason string) *table.Warning {
	return &table.Warning{
		Kind:    table.WarnCoercion,
		Column:  col.Name,
		Value:   value,
		Message: fmt.Sprintf("cannot coerce %q to %s: %s", value, col.Type, reason),
	}
}
