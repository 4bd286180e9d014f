package model

import (
	"path/filepath"
	"time"
)

// RunSpec is the full configuration for an analyzer run.
// Legacy key=value config files use the upper-case names carried over from
// the original deployment (REPORT_SIZE, LOG_DIR, ...); TOML files use the
// lower-case tags.
type RunSpec struct {
	ReportSize       int     `json:"reportSize" toml:"report_size"`
	ReportDir        string  `json:"reportDir" toml:"report_dir"`
	LogDir           string  `json:"logDir" toml:"log_dir"`
	RegistryFile     string  `json:"registryFile" toml:"registry_file"`
	DBPath           string  `json:"dbPath" toml:"db_path"`
	MaxErrorRate     float64 `json:"maxErrorRate" toml:"max_error_rate"`
	ParseWorkers     int     `json:"parseWorkers" toml:"parse_workers"`
	AggregateWorkers int     `json:"aggregateWorkers" toml:"aggregate_workers"`
	ChannelBuffer    int     `json:"channelBuffer" toml:"channel_buffer"`
	JobTimeout       string  `json:"jobTimeout" toml:"job_timeout"`
}

// DefaultSpec returns the built-in defaults, used when a config file leaves
// fields unset.
func DefaultSpec() RunSpec {
	return RunSpec{
		ReportSize:       1000,
		ReportDir:        "./reports",
		LogDir:           "./log",
		RegistryFile:     ".processed.txt",
		DBPath:           "analyzer.db",
		MaxErrorRate:     0.2,
		ParseWorkers:     4,
		AggregateWorkers: 2,
		ChannelBuffer:    100,
		JobTimeout:       "5m",
	}
}

// RegistryPath resolves the processed-files registry location. Relative
// names live inside the log directory.
func (s RunSpec) RegistryPath() string {
	if filepath.IsAbs(s.RegistryFile) {
		return s.RegistryFile
	}
	return filepath.Join(s.LogDir, s.RegistryFile)
}

// Timeout parses JobTimeout, falling back to 5 minutes.
func (s RunSpec) Timeout() time.Duration {
	d, err := time.ParseDuration(s.JobTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
