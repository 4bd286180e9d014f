package pipeline

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/internal/store"
)

func logLine(url string, requestTime float64) string {
	return fmt.Sprintf(`1.196.116.32 -  - [29/Jun/2017:03:50:22 +0300] "GET %s HTTP/1.1" 200 927 "-" "ua" "-" "req-id" "-" %.3f`,
		url, requestTime)
}

func testSpec(t *testing.T) model.RunSpec {
	t.Helper()
	base := t.TempDir()

	spec := model.DefaultSpec()
	spec.LogDir = filepath.Join(base, "log")
	spec.ReportDir = filepath.Join(base, "reports")
	spec.DBPath = filepath.Join(base, "analyzer.db")
	require.NoError(t, os.MkdirAll(spec.LogDir, 0755))
	require.NoError(t, store.InitDB(spec.DBPath))
	t.Cleanup(func() { store.CloseDB() })
	return spec
}

func TestRunEndToEnd(t *testing.T) {
	spec := testSpec(t)

	lines := []string{
		logLine("/page1", 0.1),
		logLine("/page1", 0.2),
		logLine("/page2", 0.3),
		logLine("/page3", 0.4),
	}
	logName := "nginx-access-ui.log-20230301"
	require.NoError(t, os.WriteFile(
		filepath.Join(spec.LogDir, logName),
		[]byte(strings.Join(lines, "\n")+"\n"), 0644))

	require.NoError(t, Run(context.Background(), "run-1", spec))

	// Report artifacts written.
	html, err := os.ReadFile(filepath.Join(spec.ReportDir, "report-2023.03.01.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `"url":"/page1"`)
	_, err = os.Stat(filepath.Join(spec.ReportDir, "report-2023.03.01.json"))
	require.NoError(t, err)

	// Registry updated.
	processed, err := NewRegistry(spec.RegistryPath()).Load()
	require.NoError(t, err)
	assert.True(t, processed[logName])

	// Store reflects the completed run.
	run, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])
	metrics, ok := run["metrics"].(model.RunMetrics)
	require.True(t, ok)
	assert.Equal(t, int64(4), metrics.LinesRead)
	assert.Equal(t, int64(4), metrics.EntriesParsed)
	assert.Equal(t, int64(3), metrics.URLCount)

	// A second run has nothing left to do.
	require.NoError(t, Run(context.Background(), "run-2", spec))
	run2, err := store.GetRun("run-2")
	require.NoError(t, err)
	assert.Equal(t, "no_logs", run2["status"])
}

func TestRunGzipLog(t *testing.T) {
	spec := testSpec(t)

	path := filepath.Join(spec.LogDir, "nginx-access-ui.log-20230302.gz")
	file, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(file)
	_, err = gz.Write([]byte(logLine("/gzipped", 0.5) + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, file.Close())

	require.NoError(t, Run(context.Background(), "run-gz", spec))

	html, err := os.ReadFile(filepath.Join(spec.ReportDir, "report-2023.03.02.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "/gzipped")
}

func TestRunTooManyParseErrors(t *testing.T) {
	spec := testSpec(t)

	content := strings.Join([]string{
		logLine("/ok", 0.1),
		"complete garbage",
		"more garbage",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(spec.LogDir, "nginx-access-ui.log-20230303"),
		[]byte(content), 0644))

	err := Run(context.Background(), "run-bad", spec)
	assert.True(t, errors.Is(err, ErrTooManyParseErrors), "got %v", err)

	run, dbErr := store.GetRun("run-bad")
	require.NoError(t, dbErr)
	assert.Equal(t, "failed", run["status"])

	// A failed run does not mark the file processed.
	processed, regErr := NewRegistry(spec.RegistryPath()).Load()
	require.NoError(t, regErr)
	assert.Empty(t, processed)
}

func TestRunNoLogDir(t *testing.T) {
	spec := testSpec(t)
	spec.LogDir = filepath.Join(spec.LogDir, "missing")

	err := Run(context.Background(), "run-nodir", spec)
	assert.Error(t, err)
}

func TestRunStageProgressRecorded(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(spec.LogDir, "nginx-access-ui.log-20230304"),
		[]byte(logLine("/p", 0.2)+"\n"), 0644))

	require.NoError(t, Run(context.Background(), "run-stages", spec))

	progress, err := store.StageProgress("run-stages")
	require.NoError(t, err)

	stages := make(map[string]bool)
	for _, entry := range progress {
		stages[entry["stage"].(string)] = true
	}
	for _, stage := range []string{"ingest", "parse", "aggregate", "report"} {
		assert.True(t, stages[stage], "missing stage %s", stage)
	}
}
