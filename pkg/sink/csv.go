package sink

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v14/arrow/csv"

	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/table"
)

// CSVSink writes a table as headered CSV. Lineage metadata has nowhere to
// live in this format; use parquet or arrow when provenance matters.
type CSVSink struct{}

func (s *CSVSink) Write(ctx context.Context, tbl *table.Table, path string, opts Options) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating output directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating output file").
			WithContext("path", path)
	}

	w := csv.NewWriter(f, tbl.ArrowSchema(),
		csv.WithHeader(true),
		csv.WithNullWriter(""),
	)

	if err := w.Write(tbl.Record); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "writing csv rows").
			WithContext("path", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "flushing csv output")
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "closing output file")
	}

	var bytes int64
	if info, err := os.Stat(path); err == nil {
		bytes = info.Size()
	}

	return &Result{
		Path:     path,
		Rows:     tbl.NumRows(),
		Bytes:    bytes,
		Duration: time.Since(start),
	}, nil
}
