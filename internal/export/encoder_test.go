package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/pkg/types"
)

func TestNewEncoder(t *testing.T) {
	enc, err := NewEncoder("Parquet", "")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, enc.Format())
	assert.Equal(t, CompressionSnappy, enc.Compression())

	enc, err = NewEncoder("sqlite", "none")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", enc.Extension())

	_, err = NewEncoder("csv", "")
	require.Error(t, err)
	assert.Equal(t, clickerr.CodeUnsupportedFormat, clickerr.GetCode(err))

	_, err = NewEncoder("parquet", "lzma")
	require.Error(t, err)

	_, err = NewEncoder("sqlite", "zstd")
	require.Error(t, err)
}

func TestParquetEncoder_RoundTrip(t *testing.T) {
	for _, codec := range []string{CompressionSnappy, CompressionZstd, CompressionGzip, CompressionNone} {
		t.Run(codec, func(t *testing.T) {
			enc, err := NewParquetEncoder(codec)
			require.NoError(t, err)

			tbl := sampleTable(25)
			path := filepath.Join(t.TempDir(), "out.parquet")
			size, err := enc.Encode(context.Background(), tbl, path)
			require.NoError(t, err)
			assert.Greater(t, size, int64(0))

			rdr, err := file.OpenParquetFile(path, false)
			require.NoError(t, err)
			defer rdr.Close()

			assert.Equal(t, int64(25), rdr.NumRows())
			chunk, err := rdr.MetaData().RowGroup(0).ColumnChunk(0)
			require.NoError(t, err)
			assert.Equal(t, parquetCodecs[codec], chunk.Compression())

			fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
			require.NoError(t, err)
			got, err := fr.ReadTable(context.Background())
			require.NoError(t, err)
			defer got.Release()

			require.Equal(t, int64(25), got.NumRows())
			require.Equal(t, int64(7), got.NumCols())
			assert.Equal(t, "timestamp", got.Schema().Field(0).Name)
			assert.Equal(t, "event_details", got.Schema().Field(6).Name)

			ts := got.Column(0).Data().Chunk(0).(*array.String)
			assert.Equal(t, tbl.Row(0).FormattedTimestamp(), ts.Value(0))
			users := got.Column(1).Data().Chunk(0).(*array.Int64)
			assert.Equal(t, tbl.Row(24).UserID, users.Value(24))
		})
	}
}

func TestParquetEncoder_DetailsNulls(t *testing.T) {
	enc, err := NewParquetEncoder(CompressionSnappy)
	require.NoError(t, err)

	tbl := sampleTable(3)
	path := filepath.Join(t.TempDir(), "out.parquet")
	_, err = enc.Encode(context.Background(), tbl, path)
	require.NoError(t, err)

	rdr, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer rdr.Close()
	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	got, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	defer got.Release()

	details := got.Column(6).Data().Chunk(0).(*array.Struct)
	scroll := details.Field(0).(*array.Int64)
	element := details.Field(1).(*array.String)
	form := details.Field(2).(*array.String)

	// row 0 page_view, row 1 click, row 2 form_submit
	assert.False(t, scroll.IsNull(0))
	assert.True(t, element.IsNull(0))
	assert.True(t, form.IsNull(0))

	assert.True(t, scroll.IsNull(1))
	assert.Equal(t, "button_2", element.Value(1))

	assert.True(t, scroll.IsNull(2))
	assert.Equal(t, "form_3", form.Value(2))
}

func TestParquetEncoder_CanceledContext(t *testing.T) {
	enc, err := NewParquetEncoder(CompressionSnappy)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = enc.Encode(ctx, sampleTable(5), filepath.Join(t.TempDir(), "out.parquet"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParquetCodecNames(t *testing.T) {
	assert.Equal(t, compress.Codecs.Snappy, parquetCodecs[CompressionSnappy])
	assert.Equal(t, compress.Codecs.Uncompressed, parquetCodecs[CompressionNone])
}

func TestSQLiteEncoder_RoundTrip(t *testing.T) {
	for _, codec := range []string{CompressionSnappy, CompressionNone} {
		t.Run(codec, func(t *testing.T) {
			enc, err := NewSQLiteEncoder(codec)
			require.NoError(t, err)

			tbl := sampleTable(12)
			path := filepath.Join(t.TempDir(), "out.sqlite")
			size, err := enc.Encode(context.Background(), tbl, path)
			require.NoError(t, err)
			assert.Greater(t, size, int64(0))

			db, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			defer db.Close()

			var count int
			require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+SQLiteTable).Scan(&count))
			assert.Equal(t, 12, count)

			rows, err := db.Query("SELECT timestamp, user_id, event_type, event_details FROM " + SQLiteTable + " ORDER BY row_id")
			require.NoError(t, err)
			defer rows.Close()

			i := 0
			for rows.Next() {
				var (
					ts        string
					userID    int64
					eventType string
					blob      []byte
				)
				require.NoError(t, rows.Scan(&ts, &userID, &eventType, &blob))

				want := tbl.Row(i)
				assert.Equal(t, want.FormattedTimestamp(), ts)
				assert.Equal(t, want.UserID, userID)
				assert.Equal(t, string(want.EventType), eventType)

				raw, err := DecodeDetails(blob, codec)
				require.NoError(t, err)
				var details types.EventDetails
				require.NoError(t, json.Unmarshal(raw, &details))
				assert.Equal(t, want.Details, details)
				i++
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, 12, i)
		})
	}
}
