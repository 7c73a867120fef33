package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/clickgen/pkg/types"
)

func readTextfile(t *testing.T, m *RunMetrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clickgen.prom")
	require.NoError(t, m.WriteTextfile(path, time.Unix(1700000000, 0)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunMetrics_Textfile(t *testing.T) {
	m := NewRunMetrics()
	m.ObserveEvent(types.EventClick)
	m.ObserveEvent(types.EventClick)
	m.ObserveEvent(types.EventPageView)
	m.ObserveGeneration(1500 * time.Millisecond)
	m.ObserveExport(2048, nil)

	out := readTextfile(t, m)
	for _, want := range []string{
		`clickgen_events_generated_total{event_type="click"} 2`,
		`clickgen_events_generated_total{event_type="page_view"} 1`,
		`clickgen_generation_duration_seconds 1.5`,
		`clickgen_export_bytes 2048`,
		`clickgen_export_success 1`,
		`clickgen_last_run_timestamp_seconds 1.7e+09`,
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}

func TestRunMetrics_ExportFailure(t *testing.T) {
	m := NewRunMetrics()
	m.ObserveExport(0, errors.New("denied"))

	out := readTextfile(t, m)
	assert.Contains(t, out, "clickgen_export_success 0")
	assert.Contains(t, out, "clickgen_export_bytes 0")
}

func TestRunMetrics_IsolatedRegistries(t *testing.T) {
	a := NewRunMetrics()
	b := NewRunMetrics()
	a.ObserveEvent(types.EventFormSubmit)

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "clickgen_events_generated_total", f.GetName())
	}
}
