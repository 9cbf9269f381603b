// Package convert is the public entry point of the conversion engine. It
// validates the (device, config) selection against the schema registry,
// drives the tokenizer and row builder, and returns the finished table.
// Writing the table anywhere is the output adapter's job, not this
// package's.
package convert

import (
	"context"
	"io"
	"os"

	"github.com/licorflow/licorflow/pkg/builder"
	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/registry"
	"github.com/licorflow/licorflow/pkg/table"
	"github.com/licorflow/licorflow/pkg/tokenizer"
)

// Converter converts log files. The zero value is not usable; call New.
// A single Converter is safe for concurrent use across files.
type Converter struct {
	tok *tokenizer.Tokenizer
	bld *builder.Builder

	// OpenFile opens the input path. Overridable so callers can verify that
	// selection errors are detected before any file access.
	OpenFile func(path string) (io.ReadCloser, error)
}

// New creates a Converter.
func New() *Converter {
	return &Converter{
		tok:      tokenizer.New(),
		bld:      builder.New(),
		OpenFile: defaultOpen,
	}
}

func defaultOpen(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Convert parses one log file into a typed table.
//
// Failure order is fixed: the registry lookup runs before the file is
// touched, the file open before any parsing. Fatal tokenizer errors
// propagate unchanged; coercion and ordering anomalies come back as
// warnings on the table.
func (c *Converter) Convert(ctx context.Context, path, device, config string) (*table.Table, error) {
	schema, err := registry.Lookup(device, config)
	if err != nil {
		return nil, err
	}

	f, err := c.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(path)
		}
		return nil, errors.IO(err, path)
	}
	defer f.Close()

	doc, err := c.tok.Tokenize(ctx, f)
	if err != nil {
		return nil, err
	}

	if err := registry.ValidateHeader(device, doc.Header); err != nil {
		return nil, err
	}

	if err := validateLayouts(schema, doc); err != nil {
		return nil, err
	}

	tbl, err := c.bld.Build(schema, doc)
	if err != nil {
		return nil, err
	}

	tbl.Metadata = registry.ParseMetadata(doc.Header)
	tbl.Header = doc.Header
	tbl.SourcePath = path
	for _, rm := range doc.Remarks {
		tbl.Remarks = append(tbl.Remarks, rm.Text)
	}
	tbl.Warnings = append(tbl.Warnings, structuralWarnings(doc)...)

	return tbl, nil
}

// Convert is a convenience wrapper over a fresh Converter.
func Convert(ctx context.Context, path, device, config string) (*table.Table, error) {
	return New().Convert(ctx, path, device, config)
}

// validateLayouts checks that every required schema column was declared by
// at least one data block layout. A log missing a required variable was
// recorded under a different configuration than the one requested.
func validateLayouts(schema *registry.Schema, doc *tokenizer.Document) error {
	declared := make(map[string]bool)
	for _, l := range doc.Layouts {
		for _, name := range l.Names {
			declared[name] = true
		}
	}
	for _, name := range schema.Required() {
		if !declared[name] {
			return errors.MissingVariable(name, schema.Config)
		}
	}
	return nil
}

// structuralWarnings lifts the tokenizer's non-fatal anomalies into table
// warnings.
func structuralWarnings(doc *tokenizer.Document) []table.Warning {
	var out []table.Warning
	for _, a := range doc.ObsOrderBreaks {
		out = append(out, table.Warning{
			Kind:    table.WarnObsOrder,
			Line:    a.Line,
			Obs:     a.Obs,
			Message: a.Message,
		})
	}
	for _, a := range doc.ShortLines {
		out = append(out, table.Warning{
			Kind:    table.WarnShortLine,
			Line:    a.Line,
			Obs:     a.Obs,
			Message: a.Message,
		})
	}
	return out
}
