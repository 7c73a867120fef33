package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/internal/storage"
	"github.com/arkilian/clickgen/internal/table"
)

// Options controls where and how an Exporter writes.
type Options struct {
	// Prefix is prepended to every object key (may be empty)
	Prefix string

	// WorkDir holds temporary files while encoding
	WorkDir string

	// Sidecar enables the .meta.json upload
	Sidecar bool

	// Seed is recorded in the sidecar when the run was seeded
	Seed *uint64
}

// Result describes a completed export.
type Result struct {
	URI        string
	ObjectKey  string
	SidecarKey string
	Rows       int
	SizeBytes  int64

	// Replaced is set when an object already existed at ObjectKey, i.e. a
	// second run within the same minute
	Replaced bool
}

// Exporter encodes a table and uploads it to object storage.
type Exporter struct {
	store   storage.ObjectStorage
	encoder Encoder
	opts    Options
}

// NewExporter creates an exporter writing through store with encoder.
func NewExporter(store storage.ObjectStorage, encoder Encoder, opts Options) *Exporter {
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Exporter{store: store, encoder: encoder, opts: opts}
}

// Target returns the URI the data file for export instant now is written to.
func (x *Exporter) Target(now time.Time) string {
	return x.store.URI(ObjectKey(x.opts.Prefix, now, x.encoder.Extension()))
}

// Export encodes tbl and uploads it, then the sidecar when enabled. The
// object key is derived from now, the export-time wall clock.
func (x *Exporter) Export(ctx context.Context, tbl *table.Table, now time.Time) (*Result, error) {
	key := ObjectKey(x.opts.Prefix, now, x.encoder.Extension())
	uri := x.store.URI(key)
	details := map[string]interface{}{"uri": uri}

	if err := os.MkdirAll(x.opts.WorkDir, 0755); err != nil {
		return nil, clickerr.NewExportError(clickerr.CodeEncodeFailed,
			"failed to create work directory", err).WithDetails(details)
	}

	localPath := filepath.Join(x.opts.WorkDir, fmt.Sprintf("%s-%s.%s", BaseName, uuid.NewString()[:8], x.encoder.Extension()))
	defer os.Remove(localPath)

	size, err := x.encoder.Encode(ctx, tbl, localPath)
	if err != nil {
		return nil, clickerr.NewExportError(clickerr.CodeEncodeFailed,
			fmt.Sprintf("failed to encode %s", x.encoder.Format()), err).WithDetails(details)
	}

	replaced, err := x.store.Exists(ctx, key)
	if err != nil {
		return nil, clickerr.NewStorageError(clickerr.CodeUploadFailed,
			fmt.Sprintf("failed to check %s", uri), err).WithDetails(details)
	}

	if err := x.store.Upload(ctx, localPath, key); err != nil {
		return nil, clickerr.NewStorageError(clickerr.CodeUploadFailed,
			fmt.Sprintf("failed to upload %s", uri), err).WithDetails(details)
	}

	result := &Result{
		URI:       uri,
		ObjectKey: key,
		Rows:      tbl.Len(),
		SizeBytes: size,
		Replaced:  replaced,
	}

	if x.opts.Sidecar {
		sidecar := BuildSidecar(tbl, x.encoder, key, size, x.opts.Seed, now)
		sidecarPath := localPath + ".meta.json"
		defer os.Remove(sidecarPath)
		if err := sidecar.WriteToFile(sidecarPath); err != nil {
			return nil, clickerr.NewExportError(clickerr.CodeEncodeFailed,
				"failed to write sidecar", err).WithDetails(details)
		}
		sidecarKey := SidecarKey(key)
		if err := x.store.Upload(ctx, sidecarPath, sidecarKey); err != nil {
			// A data object is never left behind without its sidecar.
			if delErr := x.store.Delete(ctx, key); delErr != nil {
				details["cleanup_error"] = delErr.Error()
			}
			return nil, clickerr.NewStorageError(clickerr.CodeUploadFailed,
				fmt.Sprintf("failed to upload %s", x.store.URI(sidecarKey)), err).WithDetails(details)
		}
		result.SidecarKey = sidecarKey
	}

	return result, nil
}
