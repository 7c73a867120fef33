package export

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/internal/table"
	"github.com/arkilian/clickgen/pkg/types"
)

// DefaultRowGroupSize is the number of rows per Parquet row group.
const DefaultRowGroupSize = 64 * 1024

var parquetCodecs = map[string]compress.Compression{
	CompressionSnappy: compress.Codecs.Snappy,
	CompressionZstd:   compress.Codecs.Zstd,
	CompressionGzip:   compress.Codecs.Gzip,
	CompressionNone:   compress.Codecs.Uncompressed,
}

// DetailsType is the struct column holding event_details. Only the member
// matching the row's event type is non-null.
var DetailsType = arrow.StructOf(
	arrow.Field{Name: "scroll_depth", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	arrow.Field{Name: "element_id", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "form_id", Type: arrow.BinaryTypes.String, Nullable: true},
)

// ArrowSchema is the Arrow schema of the exported table.
var ArrowSchema = arrow.NewSchema([]arrow.Field{
	{Name: "timestamp", Type: arrow.BinaryTypes.String},
	{Name: "user_id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "session_id", Type: arrow.BinaryTypes.String},
	{Name: "page_url", Type: arrow.BinaryTypes.String},
	{Name: "referrer_url", Type: arrow.BinaryTypes.String},
	{Name: "event_type", Type: arrow.BinaryTypes.String},
	{Name: "event_details", Type: DetailsType},
}, nil)

// ParquetEncoder writes tables as Parquet files through Arrow.
type ParquetEncoder struct {
	compression  string
	codec        compress.Compression
	rowGroupSize int
	alloc        memory.Allocator
}

// NewParquetEncoder creates a Parquet encoder with the named codec.
func NewParquetEncoder(compression string) (*ParquetEncoder, error) {
	if compression == "" {
		compression = CompressionSnappy
	}
	codec, ok := parquetCodecs[compression]
	if !ok {
		return nil, clickerr.NewExportError(clickerr.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported parquet compression %q", compression), nil)
	}
	return &ParquetEncoder{
		compression:  compression,
		codec:        codec,
		rowGroupSize: DefaultRowGroupSize,
		alloc:        memory.DefaultAllocator,
	}, nil
}

func (p *ParquetEncoder) Format() string      { return FormatParquet }
func (p *ParquetEncoder) Extension() string   { return "parquet" }
func (p *ParquetEncoder) Compression() string { return p.compression }

// Encode writes tbl to path as a single Parquet file.
func (p *ParquetEncoder) Encode(ctx context.Context, tbl *table.Table, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, encodeErr("failed to create parquet file", err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(p.codec),
		parquet.WithMaxRowGroupLength(int64(p.rowGroupSize)),
		parquet.WithAllocator(p.alloc),
	)
	w, err := pqarrow.NewFileWriter(ArrowSchema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return 0, encodeErr("failed to create parquet writer", err)
	}

	rows := tbl.Rows()
	for start := 0; start < len(rows); start += p.rowGroupSize {
		if err := ctx.Err(); err != nil {
			w.Close()
			return 0, err
		}
		end := start + p.rowGroupSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := p.writeBatch(w, rows[start:end]); err != nil {
			w.Close()
			return 0, err
		}
	}

	if err := w.Close(); err != nil {
		return 0, encodeErr("failed to finalize parquet file", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, encodeErr("failed to stat parquet file", err)
	}
	return info.Size(), nil
}

func (p *ParquetEncoder) writeBatch(w *pqarrow.FileWriter, rows []types.Event) error {
	b := array.NewRecordBuilder(p.alloc, ArrowSchema)
	defer b.Release()

	ts := b.Field(0).(*array.StringBuilder)
	userID := b.Field(1).(*array.Int64Builder)
	sessionID := b.Field(2).(*array.StringBuilder)
	pageURL := b.Field(3).(*array.StringBuilder)
	referrer := b.Field(4).(*array.StringBuilder)
	eventType := b.Field(5).(*array.StringBuilder)
	details := b.Field(6).(*array.StructBuilder)
	scrollDepth := details.FieldBuilder(0).(*array.Int64Builder)
	elementID := details.FieldBuilder(1).(*array.StringBuilder)
	formID := details.FieldBuilder(2).(*array.StringBuilder)

	b.Reserve(len(rows))
	for _, e := range rows {
		ts.Append(e.FormattedTimestamp())
		userID.Append(e.UserID)
		sessionID.Append(e.SessionID)
		pageURL.Append(e.PageURL)
		referrer.Append(e.ReferrerURL)
		eventType.Append(string(e.EventType))

		details.Append(true)
		if e.Details.Kind == types.EventPageView {
			scrollDepth.Append(int64(e.Details.ScrollDepth))
		} else {
			scrollDepth.AppendNull()
		}
		if e.Details.Kind == types.EventClick {
			elementID.Append(e.Details.ElementID)
		} else {
			elementID.AppendNull()
		}
		if e.Details.Kind == types.EventFormSubmit {
			formID.Append(e.Details.FormID)
		} else {
			formID.AppendNull()
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	if err := w.Write(rec); err != nil {
		return encodeErr("failed to write parquet row group", err)
	}
	return nil
}

func encodeErr(message string, cause error) error {
	return clickerr.NewExportError(clickerr.CodeEncodeFailed, message, cause)
}
