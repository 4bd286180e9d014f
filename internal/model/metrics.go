package model

import "time"

// StageMetrics tracks one pipeline stage of a run.
type StageMetrics struct {
	Stage            string        `json:"stage"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty"`
	Duration         time.Duration `json:"duration,omitempty"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
	WorkerCount      int           `json:"worker_count"`
	Status           string        `json:"status"` // "started", "completed", "failed"
}

// RunMetrics summarises a whole analyzer run.
type RunMetrics struct {
	RunID         string        `json:"run_id"`
	LogFile       string        `json:"log_file"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	LinesRead     int64         `json:"lines_read"`
	EntriesParsed int64         `json:"entries_parsed"`
	ParseErrors   int64         `json:"parse_errors"`
	URLCount      int64         `json:"url_count"`
	ReportRows    int64         `json:"report_rows"`
	Status        string        `json:"status"`
}

// ErrorRate is the ratio of unparsable lines to lines read. Zero lines read
// counts as a zero rate.
func (m RunMetrics) ErrorRate() float64 {
	if m.LinesRead == 0 {
		return 0
	}
	return float64(m.ParseErrors) / float64(m.LinesRead)
}
