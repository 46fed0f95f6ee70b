package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("align", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("align", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.ObserveToolDuration("zipalign", 20*time.Millisecond, true)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["apkbuilder_stage_duration_seconds"])
	assert.True(t, names["apkbuilder_stage_results_total"])
	assert.True(t, names["apkbuilder_build_outcomes_total"])
	assert.True(t, names["apkbuilder_tool_duration_seconds"])
	assert.True(t, names["apkbuilder_last_build_timestamp_seconds"])
	assert.Same(t, reg, pr.Registry())
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("dex", time.Second)
		pr.IncStageResult("dex", ResultFatal)
		pr.IncBuildOutcome("failed")
		pr.ObserveToolDuration("d8", time.Second, false)
	})
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncStageResult("sign", ResultWarning)

	path := filepath.Join(t.TempDir(), "nested", "apkbuilder.prom")
	require.NoError(t, WriteTextfile(path, pr.Registry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `apkbuilder_stage_results_total{result="warning",stage="sign"} 1`)
}
