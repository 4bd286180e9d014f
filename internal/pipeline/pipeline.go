package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/internal/store"
)

// Run executes one analyzer run: discover the newest unprocessed log,
// parse and aggregate it, write the report, and mark the file processed.
// ErrNoLogFiles is a clean no-op: the run ends with status "no_logs" and a
// nil error.
func Run(ctx context.Context, runID string, spec model.RunSpec) (err error) {
	start := time.Now()
	runLog := logrus.WithField("run_id", runID)
	runLog.Info("starting analyzer run")

	defer func() {
		if err != nil {
			store.UpdateRunStatus(runID, "failed")
			store.SaveRunError(runID, err)
			runLog.WithError(err).Error("analyzer run failed")
		}
	}()

	registry := NewRegistry(spec.RegistryPath())

	logFile, err := DiscoverLogFile(spec.LogDir, registry)
	if errors.Is(err, ErrNoLogFiles) {
		store.SaveRun(runID, "", start)
		store.UpdateRunStatus(runID, "no_logs")
		runLog.WithField("log_dir", spec.LogDir).Info("no log files found for processing")
		return nil
	}
	if err != nil {
		store.SaveRun(runID, "", start)
		return err
	}

	if err := store.SaveRun(runID, logFile.Path, logFile.Date); err != nil {
		return errors.Wrap(err, "save run")
	}
	store.UpdateRunStatus(runID, "running")

	ctx, cancel := context.WithTimeout(ctx, spec.Timeout())
	defer cancel()

	lines := make(chan string, spec.ChannelBuffer)
	entries := make(chan model.LogEntry, spec.ChannelBuffer)

	metrics := model.RunMetrics{
		RunID:     runID,
		LogFile:   logFile.Path,
		StartTime: start,
	}

	var (
		wg         sync.WaitGroup
		ingestErr  error
		parseStats ParseStats
	)

	// --- INGEST STAGE ---
	wg.Add(1)
	go func() {
		defer wg.Done()
		stageStart := time.Now()
		store.UpdateRunStatus(runID, "ingesting")
		store.SaveStageProgress(runID, "ingest", "started", &stageStart, nil, 0, 0)
		store.SaveRunLog(runID, "ingest", "info", "Starting ingest stage", map[string]interface{}{
			"file": logFile.Path,
		})

		metrics.LinesRead, ingestErr = IngestLines(ctx, logFile.Path, lines)
		close(lines) // safe: only this goroutine closes lines

		stageEnd := time.Now()
		status := "completed"
		if ingestErr != nil {
			status = "failed"
		}
		store.SaveStageProgress(runID, "ingest", status, &stageStart, &stageEnd, metrics.LinesRead, 0)
		store.SaveRunLog(runID, "ingest", "info", "Ingest stage finished", map[string]interface{}{
			"lines":       metrics.LinesRead,
			"duration_ms": stageEnd.Sub(stageStart).Milliseconds(),
		})
	}()

	// --- PARSE STAGE ---
	wg.Add(1)
	go func() {
		defer wg.Done()
		stageStart := time.Now()
		store.UpdateRunStatus(runID, "parsing")
		store.SaveStageProgress(runID, "parse", "started", &stageStart, nil, 0, 0)

		parseStats = ParseLines(ctx, lines, entries, spec.ParseWorkers)

		stageEnd := time.Now()
		store.SaveStageProgress(runID, "parse", "completed", &stageStart, &stageEnd, parseStats.Parsed, parseStats.Errors)
		store.SaveRunLog(runID, "parse", "info", "Parse stage finished", map[string]interface{}{
			"parsed":  parseStats.Parsed,
			"skipped": parseStats.Skipped,
			"errors":  parseStats.Errors,
		})
	}()

	// --- AGGREGATE STAGE ---
	aggStart := time.Now()
	store.UpdateRunStatus(runID, "aggregating")
	store.SaveStageProgress(runID, "aggregate", "started", &aggStart, nil, 0, 0)
	rows := AggregateEntries(ctx, entries, spec.AggregateWorkers, spec.ReportSize)
	aggEnd := time.Now()
	store.SaveStageProgress(runID, "aggregate", "completed", &aggStart, &aggEnd, int64(len(rows)), 0)

	wg.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, "run cancelled")
	}
	if ingestErr != nil {
		return ingestErr
	}

	metrics.EntriesParsed = parseStats.Parsed
	metrics.ParseErrors = parseStats.Errors
	metrics.URLCount = int64(len(rows))
	metrics.ReportRows = int64(len(rows))

	if metrics.LinesRead > 0 {
		if parseStats.Parsed == 0 || metrics.ErrorRate() > spec.MaxErrorRate {
			return errors.Wrapf(ErrTooManyParseErrors,
				"%d of %d lines", parseStats.Errors, metrics.LinesRead)
		}
	}

	// --- REPORT STAGE ---
	reportStart := time.Now()
	store.UpdateRunStatus(runID, "reporting")
	store.SaveStageProgress(runID, "report", "started", &reportStart, nil, 0, 0)

	writer := NewReportWriter(spec.ReportDir)
	results, err := writer.Write(rows, logFile.Date)
	if err != nil {
		return errors.Wrap(err, "write report")
	}

	reportEnd := time.Now()
	store.SaveStageProgress(runID, "report", "completed", &reportStart, &reportEnd, int64(len(rows)), 0)
	for _, res := range results {
		if res.Type == "html" {
			store.SetRunReport(runID, res.Path)
		}
	}

	if err := registry.Mark(logFile.Path); err != nil {
		return err
	}
	store.MarkFileProcessed(filepath.Base(logFile.Path), runID)

	end := time.Now()
	metrics.EndTime = &end
	metrics.Duration = end.Sub(start)
	metrics.Status = "completed"
	store.SaveRunMetrics(runID, metrics)
	store.UpdateRunStatus(runID, "completed")

	runLog.WithFields(logrus.Fields{
		"file":     logFile.Path,
		"rows":     len(rows),
		"duration": metrics.Duration,
	}).Info("analyzer run completed")
	return nil
}
