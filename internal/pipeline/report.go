package pipeline

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/pkg/utils"
)

//go:embed templates/report.html
var reportTemplate string

//go:embed assets/sorter.js
var sorterAsset []byte

// sorterFileName is the table-sorter script copied next to each report.
const sorterFileName = "sorter.js"

// ReportResult represents one written report artifact.
type ReportResult struct {
	Type       string    `json:"type"` // "html", "json"
	Path       string    `json:"path"`
	Rows       int       `json:"rows"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
}

// ReportWriter renders report artifacts into the report directory.
type ReportWriter struct {
	Manager *utils.ReportManager
}

// NewReportWriter creates a writer over the given report directory.
func NewReportWriter(reportDir string) *ReportWriter {
	return &ReportWriter{Manager: utils.NewReportManager(reportDir)}
}

// ReportFileName builds the html report name for a log date, e.g.
// report-2023.03.01.html.
func ReportFileName(logDate time.Time) string {
	return fmt.Sprintf("report-%s.html", logDate.Format("2006.01.02"))
}

// Write renders the HTML report and the JSON export for the given rows.
// An existing report for the same date is overwritten.
func (w *ReportWriter) Write(rows []model.URLStat, logDate time.Time) ([]ReportResult, error) {
	if err := w.Manager.EnsureReportDirExists(); err != nil {
		return nil, errors.Wrap(err, "create report dir")
	}

	if rows == nil {
		rows = []model.URLStat{}
	}
	tableJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, errors.Wrap(err, "marshal report table")
	}

	results := []ReportResult{
		w.writeHTML(tableJSON, len(rows), logDate),
		w.writeJSON(tableJSON, len(rows), logDate),
	}

	if err := w.copyAssets(); err != nil {
		return results, err
	}

	for _, res := range results {
		if !res.Success {
			return results, errors.New(res.Error)
		}
		logrus.WithFields(logrus.Fields{
			"type": res.Type,
			"path": res.Path,
			"rows": res.Rows,
		}).Info("created report artifact")
	}
	return results, nil
}

func (w *ReportWriter) writeHTML(tableJSON []byte, rows int, logDate time.Time) ReportResult {
	result := ReportResult{
		Type:       "html",
		Path:       w.Manager.ReportPath(ReportFileName(logDate)),
		Rows:       rows,
		ExportedAt: time.Now().UTC(),
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		result.Error = fmt.Sprintf("parse report template: %v", err)
		return result
	}

	file, err := os.Create(result.Path)
	if err != nil {
		result.Error = fmt.Sprintf("create report file: %v", err)
		return result
	}
	defer file.Close()

	data := struct{ TableJSON string }{TableJSON: string(tableJSON)}
	if err := tmpl.Execute(file, data); err != nil {
		result.Error = fmt.Sprintf("render report: %v", err)
		return result
	}

	result.Success = true
	return result
}

func (w *ReportWriter) writeJSON(tableJSON []byte, rows int, logDate time.Time) ReportResult {
	result := ReportResult{
		Type:       "json",
		Path:       w.Manager.ReportPath(fmt.Sprintf("report-%s.json", logDate.Format("2006.01.02"))),
		Rows:       rows,
		ExportedAt: time.Now().UTC(),
	}

	if err := os.WriteFile(result.Path, tableJSON, 0644); err != nil {
		result.Error = fmt.Sprintf("write json report: %v", err)
		return result
	}

	result.Success = true
	return result
}

// copyAssets places the sorter script into the report dir when missing.
func (w *ReportWriter) copyAssets() error {
	target := w.Manager.ReportPath(sorterFileName)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.WriteFile(target, sorterAsset, 0644); err != nil {
		return errors.Wrap(err, "copy report asset")
	}
	logrus.WithField("path", target).Info("copied report asset")
	return nil
}
