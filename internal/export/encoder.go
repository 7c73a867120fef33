// Package export serializes clickstream tables into columnar files and
// writes them, with a metadata sidecar, to object storage.
package export

import (
	"context"
	"fmt"
	"strings"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/internal/table"
)

// Supported formats.
const (
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
)

// Supported compression codecs.
const (
	CompressionSnappy = "snappy"
	CompressionZstd   = "zstd"
	CompressionGzip   = "gzip"
	CompressionNone   = "none"
)

// Encoder writes a table to a local file in one format.
type Encoder interface {
	// Format returns the format name, e.g. "parquet".
	Format() string

	// Extension returns the file extension without the dot.
	Extension() string

	// Compression returns the codec applied to the data.
	Compression() string

	// Encode writes tbl to path and returns the file size in bytes.
	Encode(ctx context.Context, tbl *table.Table, path string) (int64, error)
}

// NewEncoder returns the encoder for format using the given codec.
func NewEncoder(format, compression string) (Encoder, error) {
	compression = strings.ToLower(compression)
	switch strings.ToLower(format) {
	case FormatParquet:
		return NewParquetEncoder(compression)
	case FormatSQLite:
		return NewSQLiteEncoder(compression)
	default:
		return nil, clickerr.NewExportError(clickerr.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported export format %q (must be parquet or sqlite)", format), nil)
	}
}
