package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/internal/table"
)

// SQLiteTable is the table name inside exported SQLite files.
const SQLiteTable = "clickstream"

// SQLiteEncoder writes tables as single-file SQLite databases. The
// event_details column holds JSON, snappy-compressed unless compression is
// "none".
type SQLiteEncoder struct {
	compression string
}

// NewSQLiteEncoder creates a SQLite encoder. Only snappy and none are supported.
func NewSQLiteEncoder(compression string) (*SQLiteEncoder, error) {
	if compression == "" {
		compression = CompressionSnappy
	}
	if compression != CompressionSnappy && compression != CompressionNone {
		return nil, clickerr.NewExportError(clickerr.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported sqlite compression %q (must be snappy or none)", compression), nil)
	}
	return &SQLiteEncoder{compression: compression}, nil
}

func (s *SQLiteEncoder) Format() string      { return FormatSQLite }
func (s *SQLiteEncoder) Extension() string   { return "sqlite" }
func (s *SQLiteEncoder) Compression() string { return s.compression }

// Encode writes tbl to a new SQLite database at path.
func (s *SQLiteEncoder) Encode(ctx context.Context, tbl *table.Table, path string) (int64, error) {
	_ = os.Remove(path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0, encodeErr("failed to create SQLite database", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return 0, encodeErr("failed to set journal mode", err)
	}

	// row_id keeps generation order
	createTableSQL := `
		CREATE TABLE ` + SQLiteTable + ` (
			row_id INTEGER PRIMARY KEY,
			timestamp TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			page_url TEXT NOT NULL,
			referrer_url TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_details BLOB NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return 0, encodeErr("failed to create clickstream table", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, encodeErr("failed to begin transaction", err)
	}

	insertSQL := `INSERT INTO ` + SQLiteTable + ` (row_id, timestamp, user_id, session_id, page_url, referrer_url, event_type, event_details) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		tx.Rollback()
		return 0, encodeErr("failed to prepare insert statement", err)
	}

	for i, e := range tbl.Rows() {
		detailsJSON, err := json.Marshal(e.Details)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return 0, encodeErr("failed to marshal event details", err)
		}
		if s.compression == CompressionSnappy {
			detailsJSON = snappy.Encode(nil, detailsJSON)
		}

		if _, err := stmt.ExecContext(ctx, i, e.FormattedTimestamp(), e.UserID, e.SessionID,
			e.PageURL, e.ReferrerURL, string(e.EventType), detailsJSON); err != nil {
			stmt.Close()
			tx.Rollback()
			return 0, encodeErr("failed to insert row", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return 0, encodeErr("failed to commit rows", err)
	}

	indexes := []string{
		"CREATE INDEX idx_clickstream_user_time ON " + SQLiteTable + "(user_id, timestamp)",
		"CREATE INDEX idx_clickstream_session ON " + SQLiteTable + "(session_id)",
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return 0, encodeErr("failed to create index", err)
		}
	}

	// Checkpoint WAL and switch to DELETE mode so the file is self-contained
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return 0, encodeErr("failed to checkpoint WAL", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		return 0, encodeErr("failed to set journal mode to DELETE", err)
	}
	if err := db.Close(); err != nil {
		return 0, encodeErr("failed to close database", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, encodeErr("failed to stat SQLite file", err)
	}
	return info.Size(), nil
}

// DecodeDetails reverses the event_details encoding of a SQLite export.
func DecodeDetails(blob []byte, compression string) ([]byte, error) {
	if compression == CompressionSnappy {
		return snappy.Decode(nil, blob)
	}
	return blob, nil
}
