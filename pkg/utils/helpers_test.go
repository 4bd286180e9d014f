package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	tcs := map[string]struct {
		values []float64
		want   float64
	}{
		"empty":        {values: nil, want: 0},
		"single":       {values: []float64{0.3}, want: 0.3},
		"odd":          {values: []float64{0.3, 0.1, 0.2}, want: 0.2},
		"even upper":   {values: []float64{0.1, 0.2}, want: 0.2},
		"unsorted":     {values: []float64{5, 1, 4, 2, 3}, want: 3},
		"duplicates":   {values: []float64{1, 1, 1, 9}, want: 1},
		"not modified": {values: []float64{2, 1}, want: 2},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Median(tc.values))
		})
	}
}

func TestMedianDoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.3, Round3(0.30000000000000004))
	assert.Equal(t, 33.333, Round3(100.0/3))
	assert.Equal(t, 0.15, Round3(0.15))
}

func TestReportManagerListReports(t *testing.T) {
	dir := t.TempDir()
	rm := NewReportManager(dir)

	require.NoError(t, rm.EnsureReportDirExists())
	for _, name := range []string{"report-2023.03.01.html", "report-2023.03.03.html", "sorter.js"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	names, err := rm.ListReports()
	require.NoError(t, err)
	assert.Equal(t, []string{"report-2023.03.03.html", "report-2023.03.01.html"}, names)
}

func TestReportManagerMissingDir(t *testing.T) {
	rm := NewReportManager(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := rm.ListReports()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestReportPathStripsSeparators(t *testing.T) {
	rm := NewReportManager("/reports")
	assert.Equal(t, "/reports/passwd", rm.ReportPath("../../etc/passwd"))
}
