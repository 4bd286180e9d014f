package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/internal/store"
)

func setupHandlers(t *testing.T) model.RunSpec {
	t.Helper()
	base := t.TempDir()

	spec := model.DefaultSpec()
	spec.LogDir = filepath.Join(base, "log")
	spec.ReportDir = filepath.Join(base, "reports")
	spec.DBPath = filepath.Join(base, "analyzer.db")
	require.NoError(t, os.MkdirAll(spec.LogDir, 0755))
	require.NoError(t, os.MkdirAll(spec.ReportDir, 0755))
	require.NoError(t, store.InitDB(spec.DBPath))
	t.Cleanup(func() { store.CloseDB() })

	Configure(spec)
	return spec
}

func TestListRunsEmpty(t *testing.T) {
	setupHandlers(t)

	rec := httptest.NewRecorder()
	ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetRun(t *testing.T) {
	setupHandlers(t)
	require.NoError(t, store.SaveRun("run-1", "some.log", time.Now()))

	rec := httptest.NewRecorder()
	GetRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var run map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run["id"])
	assert.Equal(t, "pending", run["status"])
}

func TestGetRunNotFound(t *testing.T) {
	setupHandlers(t)

	rec := httptest.NewRecorder()
	GetRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunProgressEmpty(t *testing.T) {
	setupHandlers(t)

	rec := httptest.NewRecorder()
	GetRunProgress(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1/progress", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListReports(t *testing.T) {
	spec := setupHandlers(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(spec.ReportDir, "report-2023.03.01.html"), []byte("<html></html>"), 0644))

	rec := httptest.NewRecorder()
	ListReports(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "report-2023.03.01.html", reports[0]["name"])
	assert.Equal(t, "/api/v1/reports/report-2023.03.01.html", reports[0]["downloadUrl"])
}

func TestDownloadReport(t *testing.T) {
	spec := setupHandlers(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(spec.ReportDir, "report-2023.03.01.html"), []byte("<html>report</html>"), 0644))

	rec := httptest.NewRecorder()
	DownloadReport(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/report-2023.03.01.html", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "report")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report-2023.03.01.html")
}

func TestDownloadReportNotFound(t *testing.T) {
	setupHandlers(t)

	rec := httptest.NewRecorder()
	DownloadReport(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/nope.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRun(t *testing.T) {
	setupHandlers(t)

	rec := httptest.NewRecorder()
	CreateRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["runID"])
	assert.Equal(t, "pending", resp["status"])
}
