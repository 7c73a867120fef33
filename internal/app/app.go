// Package app runs one clickstream generation: simulate, preview, export.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/arkilian/clickgen/internal/config"
	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/internal/export"
	"github.com/arkilian/clickgen/internal/observability"
	"github.com/arkilian/clickgen/internal/simulate"
	"github.com/arkilian/clickgen/internal/storage"
	"github.com/arkilian/clickgen/internal/table"
	"github.com/arkilian/clickgen/pkg/types"
)

// App holds the collaborators of a generation run.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	stdout  io.Writer
	clock   func() time.Time
	source  simulate.Source
	store   storage.ObjectStorage
	metrics *observability.RunMetrics
	dryRun  bool
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithStdout sets where the preview and summary lines are printed.
func WithStdout(w io.Writer) Option {
	return func(a *App) { a.stdout = w }
}

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

// WithSource overrides the randomness source.
func WithSource(src simulate.Source) Option {
	return func(a *App) { a.source = src }
}

// WithStorage overrides the storage backend built from the configuration.
func WithStorage(store storage.ObjectStorage) Option {
	return func(a *App) { a.store = store }
}

// WithDryRun skips the export step.
func WithDryRun(dryRun bool) Option {
	return func(a *App) { a.dryRun = dryRun }
}

// New creates an App for cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		cfg:     cfg,
		log:     slog.Default(),
		stdout:  os.Stdout,
		clock:   time.Now,
		metrics: observability.NewRunMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.source == nil {
		if seed := cfg.Simulation.Seed; seed != nil {
			a.source = simulate.NewRandSource(*seed)
		} else {
			a.source = simulate.NewEntropySource()
		}
	}
	return a, nil
}

// Metrics returns the run metrics.
func (a *App) Metrics() *observability.RunMetrics {
	return a.metrics
}

// Run generates the configured events, prints a preview and the row count,
// the duration since started, and exports the table. Export failures are
// reported on stdout and in the log but do not fail the run; only
// generation errors are returned.
func (a *App) Run(ctx context.Context, started time.Time) error {
	counts := a.cfg.Counts()
	a.log.Info("generating clickstream",
		"users", counts.Users,
		"sessions_per_user", counts.SessionsPerUser,
		"events_per_session", counts.EventsPerSession)

	sim := simulate.NewSimulator(a.source,
		simulate.WithClock(a.clock),
		simulate.WithLookback(a.cfg.Simulation.Lookback.Std()))

	genStart := time.Now()
	events := make([]types.Event, 0, counts.Total())
	err := sim.Visit(counts, func(e types.Event) error {
		a.metrics.ObserveEvent(e.EventType)
		events = append(events, e)
		return nil
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	a.metrics.ObserveGeneration(time.Since(genStart))

	tbl := table.FromEvents(events)
	if err := tbl.WritePreview(a.stdout, a.cfg.Export.PreviewRows); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	fmt.Fprintf(a.stdout, "rows : %d\n", tbl.Len())
	fmt.Fprintf(a.stdout, "Duration: %.1f seconds\n", a.clock().Sub(started).Seconds())

	if a.dryRun {
		a.log.Info("dry run, skipping export", "rows", tbl.Len())
	} else {
		a.export(ctx, tbl)
	}

	a.writeMetrics()
	return nil
}

// export writes tbl to storage and reports the outcome.
func (a *App) export(ctx context.Context, tbl *table.Table) {
	now := a.clock()

	enc, err := export.NewEncoder(a.cfg.Export.Format, a.cfg.Export.Compression)
	if err != nil {
		a.reportExportFailure(a.target(now, a.cfg.Export.Format), err)
		return
	}

	target := a.target(now, enc.Extension())
	if a.store == nil {
		if a.store, err = a.initStorage(ctx); err != nil {
			a.reportExportFailure(target, clickerr.NewStorageError(clickerr.CodeUploadFailed,
				fmt.Sprintf("failed to initialize storage for %s", target), err))
			return
		}
	}

	x := export.NewExporter(a.store, enc, export.Options{
		Prefix:  a.cfg.Export.Prefix,
		WorkDir: a.cfg.Export.WorkDir,
		Sidecar: a.cfg.Export.Sidecar,
		Seed:    a.cfg.Simulation.Seed,
	})
	res, err := x.Export(ctx, tbl, now)
	if err != nil {
		a.reportExportFailure(target, err)
		return
	}

	if res.Replaced {
		a.log.Warn("replaced existing object", "uri", res.URI)
	}
	a.metrics.ObserveExport(res.SizeBytes, nil)
	a.log.Info("export complete", "uri", res.URI, "bytes", res.SizeBytes, "rows", res.Rows)
	fmt.Fprintf(a.stdout, "Data written to %s\n", res.URI)
}

func (a *App) reportExportFailure(uri string, err error) {
	a.metrics.ObserveExport(0, err)
	a.log.Error("export failed", "uri", uri, "error", err)
	fmt.Fprintf(a.stdout, "Error writing to storage: %v\n", err)
}

// target returns the URI of the data object for export instant now. It does
// not need a connected backend.
func (a *App) target(now time.Time, ext string) string {
	key := export.ObjectKey(a.cfg.Export.Prefix, now, ext)
	if a.store != nil {
		return a.store.URI(key)
	}
	switch a.cfg.Storage.Type {
	case config.StorageS3:
		return fmt.Sprintf("s3://%s/%s", a.cfg.Storage.S3.Bucket, key)
	default:
		base, err := filepath.Abs(a.cfg.Storage.Path)
		if err != nil {
			base = a.cfg.Storage.Path
		}
		return "file://" + filepath.ToSlash(filepath.Join(base, filepath.FromSlash(key)))
	}
}

// initStorage builds the configured storage backend.
func (a *App) initStorage(ctx context.Context) (storage.ObjectStorage, error) {
	var (
		store storage.ObjectStorage
		err   error
	)
	switch a.cfg.Storage.Type {
	case config.StorageLocal:
		store, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case config.StorageS3:
		s3Cfg := storage.DefaultS3Config()
		s3Cfg.Region = a.cfg.Storage.S3.Region
		s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		s3Cfg.MaxRetries = a.cfg.Storage.S3.MaxRetries
		store, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.log.Debug("storage initialized", "type", a.cfg.Storage.Type)
	return store, nil
}

func (a *App) writeMetrics() {
	path := a.cfg.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path, a.clock()); err != nil {
		a.log.Warn("failed to write metrics textfile", "path", path, "error", err)
	}
}
