package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-log-analyzer/internal/model"
)

var db *sql.DB

// InitDB opens the sqlite database and creates the schema if needed.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			log_file TEXT,
			log_date TEXT,
			status TEXT,
			report_path TEXT,
			metrics TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS stage_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			status TEXT,
			started_at DATETIME,
			ended_at DATETIME,
			records INTEGER,
			errors INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			level TEXT,
			message TEXT,
			context TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS processed_files (
			name TEXT PRIMARY KEY,
			run_id TEXT,
			processed_at DATETIME
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// SaveRun stores a new analyzer run.
func SaveRun(runID, logFile string, logDate time.Time) error {
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO runs (id, log_file, log_date, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, logFile, logDate.Format("2006-01-02"), "pending", now, now)
	return err
}

// UpdateRunStatus updates the status of a run.
func UpdateRunStatus(runID, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SetRunReport records the path of the generated HTML report.
func SetRunReport(runID, reportPath string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET report_path = ?, updated_at = ? WHERE id = ?`, reportPath, now, runID)
	return err
}

// SaveRunMetrics stores the final run metrics as JSON on the run row.
func SaveRunMetrics(runID string, metrics model.RunMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`UPDATE runs SET metrics = ?, updated_at = ? WHERE id = ?`, string(data), now, runID)
	return err
}

// SaveRunError records an error for a run.
func SaveRunError(runID string, runErr error) error {
	if runErr == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, runErr.Error(), now)
	return err
}

// ListRuns returns all runs with basic info, newest first.
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT id, log_file, log_date, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, logFile, logDate, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &logFile, &logDate, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"logFile":   logFile,
			"logDate":   logDate,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its metrics.
func GetRun(runID string) (map[string]interface{}, error) {
	var logFile, logDate, status string
	var reportPath, metricsJSON sql.NullString
	var createdAt, updatedAt time.Time

	err := db.QueryRow(
		`SELECT log_file, log_date, status, report_path, metrics, created_at, updated_at FROM runs WHERE id = ?`,
		runID).Scan(&logFile, &logDate, &status, &reportPath, &metricsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	run := map[string]interface{}{
		"id":        runID,
		"logFile":   logFile,
		"logDate":   logDate,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}
	if reportPath.Valid {
		run["reportPath"] = reportPath.String
	}
	if metricsJSON.Valid {
		var metrics model.RunMetrics
		if err := json.Unmarshal([]byte(metricsJSON.String), &metrics); err == nil {
			run["metrics"] = metrics
		}
	}
	return run, nil
}

// RunErrors returns the recorded errors of a run.
func RunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY created_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []map[string]interface{}
	for rows.Next() {
		var message string
		var createdAt time.Time
		if err := rows.Scan(&message, &createdAt); err != nil {
			return nil, err
		}
		errs = append(errs, map[string]interface{}{
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errs, rows.Err()
}

// SaveStageProgress records start/end state for a pipeline stage.
func SaveStageProgress(runID, stage, status string, startedAt, endedAt *time.Time, records, errCount int64) error {
	_, err := db.Exec(
		`INSERT INTO stage_progress (run_id, stage, status, started_at, ended_at, records, errors) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, stage, status, startedAt, endedAt, records, errCount)
	return err
}

// StageProgress returns the stage progress rows of a run.
func StageProgress(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT stage, status, started_at, ended_at, records, errors FROM stage_progress WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []map[string]interface{}
	for rows.Next() {
		var stage, status string
		var startedAt, endedAt sql.NullTime
		var records, errCount int64
		if err := rows.Scan(&stage, &status, &startedAt, &endedAt, &records, &errCount); err != nil {
			return nil, err
		}
		entry := map[string]interface{}{
			"stage":   stage,
			"status":  status,
			"records": records,
			"errors":  errCount,
		}
		if startedAt.Valid {
			entry["startedAt"] = startedAt.Time
		}
		if endedAt.Valid {
			entry["endedAt"] = endedAt.Time
		}
		progress = append(progress, entry)
	}
	return progress, rows.Err()
}

// SaveRunLog stores a structured pipeline log line.
func SaveRunLog(runID, stage, level, message string, context map[string]interface{}) error {
	contextJSON := ""
	if context != nil {
		if data, err := json.Marshal(context); err == nil {
			contextJSON = string(data)
		}
	}
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO run_logs (run_id, stage, level, message, context, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, contextJSON, now)
	return err
}

// RunLogs returns the stored log lines of a run.
func RunLogs(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(
		`SELECT stage, level, message, context, created_at FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var stage, level, message, contextJSON string
		var createdAt time.Time
		if err := rows.Scan(&stage, &level, &message, &contextJSON, &createdAt); err != nil {
			return nil, err
		}
		entry := map[string]interface{}{
			"stage":     stage,
			"level":     level,
			"message":   message,
			"createdAt": createdAt,
		}
		if contextJSON != "" {
			var context map[string]interface{}
			if err := json.Unmarshal([]byte(contextJSON), &context); err == nil {
				entry["context"] = context
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// MarkFileProcessed mirrors a registry entry into the database.
func MarkFileProcessed(name, runID string) error {
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT OR REPLACE INTO processed_files (name, run_id, processed_at) VALUES (?, ?, ?)`,
		name, runID, now)
	return err
}

// ProcessedFiles lists log files marked processed, newest first.
func ProcessedFiles() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT name, run_id, processed_at FROM processed_files ORDER BY processed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []map[string]interface{}
	for rows.Next() {
		var name, runID string
		var processedAt time.Time
		if err := rows.Scan(&name, &runID, &processedAt); err != nil {
			return nil, err
		}
		files = append(files, map[string]interface{}{
			"name":        name,
			"runId":       runID,
			"processedAt": processedAt,
		})
	}
	return files, rows.Err()
}
