// Package sink writes finished tables to output files. Every format lives
// behind the same one-shot interface so the conversion engine never knows
// which serialization it is feeding.
package sink

import (
	"context"
	"strings"
	"time"

	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/table"
)

// Kind identifies an output format.
type Kind string

const (
	KindParquet  Kind = "parquet"
	KindArrowIPC Kind = "arrow"
	KindCSV      Kind = "csv"
	KindTable    Kind = "table"
)

// Options control how a table is serialized.
type Options struct {
	// Compression names the parquet codec: snappy, gzip, zstd, lz4,
	// brotli or none. Empty means snappy. Other formats ignore it.
	Compression string

	// Metadata is carried into the output's schema-level metadata where
	// the format supports it.
	Metadata map[string]string
}

// Result reports what a completed write produced.
type Result struct {
	Path     string
	Rows     int64
	Bytes    int64
	Duration time.Duration
}

// Sink serializes one table to one file.
type Sink interface {
	Write(ctx context.Context, tbl *table.Table, path string, opts Options) (*Result, error)
}

// For returns the sink for a format kind. Unknown kinds are rejected here,
// before any conversion work happens.
func For(kind Kind) (Sink, error) {
	switch kind {
	case KindParquet:
		return &ParquetSink{}, nil
	case KindArrowIPC:
		return &ArrowIPCSink{}, nil
	case KindCSV:
		return &CSVSink{}, nil
	case KindTable:
		return &TableSink{}, nil
	default:
		return nil, errors.UnsupportedOutput(string(kind))
	}
}

// TableSink keeps the table in memory instead of serializing it. The path
// is ignored; callers retrieve the table from the sink after Write.
type TableSink struct {
	Table *table.Table
}

func (s *TableSink) Write(ctx context.Context, tbl *table.Table, path string, opts Options) (*Result, error) {
	s.Table = tbl
	return &Result{Rows: tbl.NumRows()}, nil
}

// ParseKind normalizes a user-supplied format name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parquet":
		return KindParquet, nil
	case "arrow", "ipc", "feather":
		return KindArrowIPC, nil
	case "csv":
		return KindCSV, nil
	case "table":
		return KindTable, nil
	default:
		return "", errors.UnsupportedOutput(s)
	}
}

// Extension returns the conventional file extension for a kind.
func (k Kind) Extension() string {
	switch k {
	case KindArrowIPC:
		return ".arrow"
	case KindCSV:
		return ".csv"
	case KindTable:
		return ""
	default:
		return ".parquet"
	}
}

// Write is a convenience that resolves the sink and writes in one call.
func Write(ctx context.Context, tbl *table.Table, kind Kind, path string, opts Options) (*Result, error) {
	s, err := For(kind)
	if err != nil {
		return nil, err
	}
	return s.Write(ctx, tbl, path, opts)
}
