package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/arkilian/clickgen/internal/bloom"
	"github.com/arkilian/clickgen/internal/table"
	"github.com/arkilian/clickgen/pkg/types"
)

// sessionFilterFPR is the target false positive rate of the session filter.
const sessionFilterFPR = 0.01

// Sidecar is the .meta.json document uploaded next to each data file.
type Sidecar struct {
	DataObject    string            `json:"data_object"`
	Format        string            `json:"format"`
	Compression   string            `json:"compression"`
	SchemaVersion int               `json:"schema_version"`
	Columns       []types.ColumnDef `json:"columns"`
	SizeBytes     int64             `json:"size_bytes"`
	Stats         FileStats         `json:"stats"`
	SessionFilter *bloom.Encoded    `json:"session_filter,omitempty"`
	Seed          *uint64           `json:"seed,omitempty"`
	CreatedAt     int64             `json:"created_at"`
}

// FileStats holds file-level statistics.
type FileStats struct {
	RowCount      int64            `json:"row_count"`
	SessionCount  int64            `json:"session_count"`
	MinUserID     *int64           `json:"min_user_id,omitempty"`
	MaxUserID     *int64           `json:"max_user_id,omitempty"`
	MinTimestamp  *string          `json:"min_timestamp,omitempty"`
	MaxTimestamp  *string          `json:"max_timestamp,omitempty"`
	EventTypeRows map[string]int64 `json:"event_type_rows"`
}

// BuildSidecar computes statistics and the session filter for tbl.
func BuildSidecar(tbl *table.Table, enc Encoder, dataObject string, sizeBytes int64, seed *uint64, createdAt time.Time) *Sidecar {
	stats := NewStatsTracker()
	for _, e := range tbl.Rows() {
		stats.Update(e)
	}
	fileStats := stats.Stats()

	var filter *bloom.Encoded
	if fileStats.SessionCount > 0 {
		f := bloom.New(int(fileStats.SessionCount), sessionFilterFPR)
		seen := make(map[string]struct{}, fileStats.SessionCount)
		for _, e := range tbl.Rows() {
			if _, ok := seen[e.SessionID]; ok {
				continue
			}
			seen[e.SessionID] = struct{}{}
			f.Add(e.SessionID)
		}
		filter = f.Encode()
	}

	schema := tbl.Schema()
	return &Sidecar{
		DataObject:    dataObject,
		Format:        enc.Format(),
		Compression:   enc.Compression(),
		SchemaVersion: schema.Version,
		Columns:       schema.Columns,
		SizeBytes:     sizeBytes,
		Stats:         fileStats,
		SessionFilter: filter,
		Seed:          seed,
		CreatedAt:     createdAt.Unix(),
	}
}

// MightContainSession reports whether the data file may hold sessionID.
func (s *Sidecar) MightContainSession(sessionID string) (bool, error) {
	if s.SessionFilter == nil {
		return false, nil
	}
	f, err := bloom.Decode(s.SessionFilter)
	if err != nil {
		return false, err
	}
	return f.Contains(sessionID), nil
}

// WriteToFile writes the sidecar as indented JSON.
func (s *Sidecar) WriteToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: failed to marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("metadata: failed to write sidecar file: %w", err)
	}
	return nil
}

// ReadSidecar reads a sidecar from a JSON file.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to read sidecar file: %w", err)
	}
	var sidecar Sidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("metadata: failed to unmarshal sidecar: %w", err)
	}
	return &sidecar, nil
}
