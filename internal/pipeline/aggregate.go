package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"go-log-analyzer/internal/model"
	"go-log-analyzer/pkg/utils"
)

// urlAccumulator collects per-URL request time data for one worker.
type urlAccumulator struct {
	count   int
	timeSum float64
	timeMax float64
	times   []float64
}

// AggregationWorker aggregates a subset of the parsed entries.
type AggregationWorker struct {
	ID          int
	Results     map[string]*urlAccumulator
	RecordCount int64
}

func (w *AggregationWorker) processEntry(entry model.LogEntry) {
	url := RequestURL(entry.Request)

	acc, ok := w.Results[url]
	if !ok {
		acc = &urlAccumulator{}
		w.Results[url] = acc
	}

	acc.count++
	acc.timeSum += entry.RequestTime
	acc.times = append(acc.times, entry.RequestTime)
	if entry.RequestTime > acc.timeMax {
		acc.timeMax = entry.RequestTime
	}
}

// AggregateEntries consumes parsed entries with a worker pool and returns
// the report rows: per-URL stats sorted by total request time descending,
// truncated to reportSize (0 means no truncation).
func AggregateEntries(ctx context.Context, in <-chan model.LogEntry, workerCount, reportSize int) []model.URLStat {
	if workerCount <= 0 {
		workerCount = 2 // default
	}

	workers := make([]*AggregationWorker, workerCount)
	for i := range workers {
		workers[i] = &AggregationWorker{
			ID:      i + 1,
			Results: make(map[string]*urlAccumulator),
		}
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(worker *AggregationWorker) {
			defer wg.Done()
			for entry := range in {
				select {
				case <-ctx.Done():
					return
				default:
				}
				worker.processEntry(entry)
				worker.RecordCount++
			}
		}(workers[i])
	}
	wg.Wait()

	// Merge worker maps.
	merged := make(map[string]*urlAccumulator)
	var totalCount int64
	for _, worker := range workers {
		totalCount += worker.RecordCount
		for url, acc := range worker.Results {
			existing, ok := merged[url]
			if !ok {
				merged[url] = acc
				continue
			}
			existing.count += acc.count
			existing.timeSum += acc.timeSum
			existing.times = append(existing.times, acc.times...)
			if acc.timeMax > existing.timeMax {
				existing.timeMax = acc.timeMax
			}
		}
	}

	var grandCount int
	var grandTimeSum float64
	for _, acc := range merged {
		grandCount += acc.count
		grandTimeSum += acc.timeSum
	}

	rows := make([]model.URLStat, 0, len(merged))
	for url, acc := range merged {
		row := model.URLStat{
			URL:     url,
			Count:   acc.count,
			TimeSum: utils.Round3(acc.timeSum),
			TimeAvg: utils.Round3(acc.timeSum / float64(acc.count)),
			TimeMax: acc.timeMax,
			TimeMed: utils.Median(acc.times),
		}
		if grandCount > 0 {
			row.CountPerc = utils.Round3(float64(acc.count) / float64(grandCount) * 100)
		}
		if grandTimeSum > 0 {
			row.TimePerc = utils.Round3(acc.timeSum / grandTimeSum * 100)
		}
		rows = append(rows, row)
	}

	// Heaviest URLs first; name breaks ties so output is stable.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TimeSum != rows[j].TimeSum {
			return rows[i].TimeSum > rows[j].TimeSum
		}
		return rows[i].URL < rows[j].URL
	})

	if reportSize > 0 && len(rows) > reportSize {
		rows = rows[:reportSize]
	}

	logrus.WithFields(logrus.Fields{
		"entries": totalCount,
		"urls":    len(merged),
		"rows":    len(rows),
	}).Info("aggregation done")
	return rows
}
