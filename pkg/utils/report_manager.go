package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReportManager handles report file organization and path management.
type ReportManager struct {
	ReportDir string
}

// NewReportManager creates a manager for the given report directory.
func NewReportManager(reportDir string) *ReportManager {
	return &ReportManager{ReportDir: reportDir}
}

// EnsureReportDirExists creates the report directory if needed.
func (rm *ReportManager) EnsureReportDirExists() error {
	return os.MkdirAll(rm.ReportDir, 0755)
}

// ReportPath builds the full path of a report artifact, cleaning the file
// name of any path separators.
func (rm *ReportManager) ReportPath(fileName string) string {
	return filepath.Join(rm.ReportDir, filepath.Base(fileName))
}

// ListReports returns the report file names in the report directory,
// newest date first. Assets like the sorter script are excluded.
func (rm *ReportManager) ListReports() ([]string, error) {
	entries, err := os.ReadDir(rm.ReportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "report-") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// DownloadURL generates the API download URL for a report file.
func (rm *ReportManager) DownloadURL(fileName string) string {
	return fmt.Sprintf("/api/v1/reports/%s", filepath.Base(fileName))
}

// FileSize returns the size of a report file in bytes.
func (rm *ReportManager) FileSize(fileName string) (int64, error) {
	fileInfo, err := os.Stat(rm.ReportPath(fileName))
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
