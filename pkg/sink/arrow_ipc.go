package sink

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v14/arrow/ipc"

	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/table"
)

// ArrowIPCSink writes a table as an Arrow IPC stream, suitable for
// zero-copy hand-off to other Arrow consumers.
type ArrowIPCSink struct{}

func (s *ArrowIPCSink) Write(ctx context.Context, tbl *table.Table, path string, opts Options) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating output directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating output file").
			WithContext("path", path)
	}

	schema := schemaWithLineage(tbl, opts)
	w := ipc.NewWriter(f, ipc.WithSchema(schema))

	if err := w.Write(tbl.Record); err != nil {
		w.Close()
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "writing arrow stream").
			WithContext("path", path)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "finalizing arrow stream")
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
