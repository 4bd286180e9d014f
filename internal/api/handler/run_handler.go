package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/internal/pipeline"
	"go-log-analyzer/internal/store"
	"go-log-analyzer/pkg/utils"
)

var runSpec model.RunSpec

// Configure sets the spec used for API-triggered runs and report lookups.
func Configure(spec model.RunSpec) {
	runSpec = spec
}

// CreateRun triggers a new analyzer run
// @Summary Trigger an analyzer run
// @Description Starts an asynchronous run over the newest unprocessed log file
// @Tags runs
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Run created"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func CreateRun(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New().String()

	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(runSpec.JobTimeout))
	go func() {
		defer cancel()
		if err := pipeline.Run(ctx, runID, runSpec); err != nil {
			store.SaveRunError(runID, err)
		}
	}()

	resp := map[string]interface{}{
		"message":   "Run started",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListRuns retrieves all analyzer runs
// @Summary List runs
// @Description Get all analyzer runs with their current status
// @Tags runs
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetRun retrieves one analyzer run
// @Summary Get run
// @Description Retrieve a run with its metrics
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	runID := pathSegment(r, 3)
	run, err := store.GetRun(runID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetRunErrors retrieves the errors of a run
// @Summary Get run errors
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Errors"
// @Router /runs/{id}/errors [get]
func GetRunErrors(w http.ResponseWriter, r *http.Request) {
	writeListResponse(w, func() ([]map[string]interface{}, error) {
		return store.RunErrors(pathSegment(r, 3))
	})
}

// GetRunLogs retrieves the structured logs of a run
// @Summary Get run logs
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Log lines"
// @Router /runs/{id}/logs [get]
func GetRunLogs(w http.ResponseWriter, r *http.Request) {
	writeListResponse(w, func() ([]map[string]interface{}, error) {
		return store.RunLogs(pathSegment(r, 3))
	})
}

// GetRunProgress retrieves the stage progress of a run
// @Summary Get run progress
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Stage progress"
// @Router /runs/{id}/progress [get]
func GetRunProgress(w http.ResponseWriter, r *http.Request) {
	writeListResponse(w, func() ([]map[string]interface{}, error) {
		return store.StageProgress(pathSegment(r, 3))
	})
}

// ListProcessedFiles lists the log files already processed
// @Summary List processed log files
// @Tags runs
// @Produce json
// @Success 200 {array} map[string]interface{} "Processed files"
// @Router /processed [get]
func ListProcessedFiles(w http.ResponseWriter, r *http.Request) {
	writeListResponse(w, store.ProcessedFiles)
}

// ListReports lists the generated report files
// @Summary List reports
// @Tags reports
// @Produce json
// @Success 200 {array} map[string]interface{} "Report files"
// @Router /reports [get]
func ListReports(w http.ResponseWriter, r *http.Request) {
	rm := utils.NewReportManager(runSpec.ReportDir)
	names, err := rm.ListReports()
	if err != nil {
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	reports := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		entry := map[string]interface{}{
			"name":        name,
			"downloadUrl": rm.DownloadURL(name),
		}
		if size, err := rm.FileSize(name); err == nil {
			entry["sizeBytes"] = size
		}
		reports = append(reports, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reports)
}

// DownloadReport serves one generated report file
// @Summary Download a report
// @Tags reports
// @Produce html
// @Param name path string true "Report file name"
// @Success 200 {file} file "Report content"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{name} [get]
func DownloadReport(w http.ResponseWriter, r *http.Request) {
	name := pathSegment(r, 3)
	rm := utils.NewReportManager(runSpec.ReportDir)

	// ReportPath strips path separators, so a crafted name cannot escape
	// the report dir.
	path := rm.ReportPath(name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// pathSegment returns the n-th segment of the request path (0-based,
// leading slash stripped), or "" when the path is shorter.
func pathSegment(r *http.Request, n int) string {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if n >= len(segments) {
		return ""
	}
	return segments[n]
}

func writeListResponse(w http.ResponseWriter, fetch func() ([]map[string]interface{}, error)) {
	items, err := fetch()
	if err != nil {
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []map[string]interface{}{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}
