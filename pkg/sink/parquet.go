package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/licorflow/licorflow/pkg/errors"
	"github.com/licorflow/licorflow/pkg/table"
)

// Version is stamped into output metadata.
const Version = "1.0.0"

// ParquetSink writes a table to a Parquet file. Writes go to a temp file
// first and are renamed into place on success, so a crash mid-write never
// leaves a truncated output behind.
type ParquetSink struct{}

func (s *ParquetSink) Write(ctx context.Context, tbl *table.Table, path string, opts Options) (*Result, error) {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating output directory")
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	f, err := os.Create(tempPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating temp file").
			WithContext("path", tempPath)
	}

	schema := schemaWithLineage(tbl, opts)

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(parquetCodec(opts.Compression)),
		parquet.WithCreatedBy("licorflow "+Version),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	w, err := pqarrow.NewFileWriter(schema, f, writerProps, arrowProps)
	if err != nil {
		f.Close()
		os.Remove(tempPath)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "creating parquet writer")
	}

	if err := w.Write(tbl.Record); err != nil {
		w.Close()
		os.Remove(tempPath)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "writing parquet data").
			WithContext("path", path)
	}

	// Closing the writer closes the underlying file.
	if err := w.Close(); err != nil {
		os.Remove(tempPath)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "finalizing parquet file")
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "moving output into place").
			WithContext("path", path)
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

// schemaWithLineage rebuilds the record schema with provenance metadata:
// where the table came from, which schema produced it, and when.
func schemaWithLineage(tbl *table.Table, opts Options) *arrow.Schema {
	keys := []string{
		"licorflow.version",
		"licorflow.created_at",
	}
	values := []string{
		Version,
		time.Now().UTC().Format(time.RFC3339),
	}
	if tbl.SourcePath != "" {
		keys = append(keys, "licorflow.source_file")
		values = append(values, tbl.SourcePath)
	}
	if tbl.Schema != nil {
		keys = append(keys, "licorflow.device", "licorflow.config")
		values = append(values, tbl.Schema.Device, tbl.Schema.Config)
	}
	if n := len(tbl.Warnings); n > 0 {
		keys = append(keys, "licorflow.warnings")
		values = append(values, fmt.Sprintf("%d", n))
	}
	for k, v := range opts.Metadata {
		keys = append(keys, "licorflow.user."+k)
		values = append(values, v)
	}

	meta := arrow.NewMetadata(keys, values)
	return arrow.NewSchema(tbl.ArrowSchema().Fields(), &meta)
}

func parquetCodec(name string) compress.Compression {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	case "lz4":
		return compress.Codecs.Lz4
	case "brotli":
		return compress.Codecs.Brotli
	default:
		return compress.Codecs.Uncompressed
	}
}
