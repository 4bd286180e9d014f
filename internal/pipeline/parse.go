package pipeline

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"go-log-analyzer/internal/model"
)

// fieldCount is the number of fields in the ui_short log format.
const fieldCount = 13

var (
	ErrUnterminatedGroup  = errors.New("unterminated quoted or bracketed group")
	ErrWrongFieldCount    = errors.New("wrong field count")
	ErrBadRequestTime     = errors.New("request_time is not a number")
	ErrTooManyParseErrors = errors.New("too many unparsable log lines")
)

// ParseStats counts the outcomes of the parse stage.
type ParseStats struct {
	Parsed  int64
	Skipped int64
	Errors  int64
}

// ParseLines runs a worker pool turning raw lines into log entries.
// It blocks until the input channel is drained, closes out, and returns
// the accumulated stats. Lines without a request URL (request "-") are
// skipped; lines that fail to tokenize count as errors but are not fatal.
func ParseLines(ctx context.Context, in <-chan string, out chan<- model.LogEntry, workerCount int) ParseStats {
	if workerCount <= 0 {
		workerCount = 4 // default
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total ParseStats
	)

	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(workerID int) {
			defer wg.Done()
			var stats ParseStats

			for line := range in {
				select {
				case <-ctx.Done():
					return
				default:
				}

				entry, err := ParseEntry(line)
				if err != nil {
					stats.Errors++
					if stats.Errors <= 5 {
						logrus.WithFields(logrus.Fields{
							"worker": workerID,
							"error":  err,
						}).Debug("unparsable log line")
					}
					continue
				}
				if !hasRequestURL(entry.Request) {
					stats.Skipped++
					continue
				}

				select {
				case <-ctx.Done():
					return
				case out <- entry:
					stats.Parsed++
				}
			}

			mu.Lock()
			total.Parsed += stats.Parsed
			total.Skipped += stats.Skipped
			total.Errors += stats.Errors
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	close(out)

	logrus.WithFields(logrus.Fields{
		"parsed":  total.Parsed,
		"skipped": total.Skipped,
		"errors":  total.Errors,
	}).Info("parse stage done")
	return total
}

// ParseEntry parses one ui_short log line.
func ParseEntry(line string) (model.LogEntry, error) {
	fields, err := tokenizeLine(line)
	if err != nil {
		return model.LogEntry{}, err
	}
	if len(fields) != fieldCount {
		return model.LogEntry{}, errors.Wrapf(ErrWrongFieldCount, "got %d", len(fields))
	}

	requestTime, err := strconv.ParseFloat(fields[12], 64)
	if err != nil {
		return model.LogEntry{}, errors.Wrap(ErrBadRequestTime, fields[12])
	}

	return model.LogEntry{
		RemoteAddr:        fields[0],
		RemoteUser:        fields[1],
		HTTPXRealIP:       fields[2],
		TimeLocal:         fields[3],
		Request:           fields[4],
		Status:            fields[5],
		BodyBytesSent:     fields[6],
		HTTPReferer:       fields[7],
		HTTPUserAgent:     fields[8],
		HTTPXForwardedFor: fields[9],
		HTTPXRequestID:    fields[10],
		HTTPXRBUser:       fields[11],
		RequestTime:       requestTime,
	}, nil
}

// tokenizeLine splits a log line on spaces, keeping "..." and [...] groups
// as single fields with the delimiters stripped.
func tokenizeLine(line string) ([]string, error) {
	fields := make([]string, 0, fieldCount)

	i, n := 0, len(line)
	for i < n {
		for i < n && line[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}

		switch line[i] {
		case '"':
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				return nil, ErrUnterminatedGroup
			}
			fields = append(fields, line[i+1:i+1+end])
			i += end + 2
		case '[':
			end := strings.IndexByte(line[i+1:], ']')
			if end < 0 {
				return nil, ErrUnterminatedGroup
			}
			fields = append(fields, line[i+1:i+1+end])
			i += end + 2
		default:
			end := strings.IndexByte(line[i:], ' ')
			if end < 0 {
				fields = append(fields, line[i:])
				i = n
			} else {
				fields = append(fields, line[i:i+end])
				i += end
			}
		}
	}
	return fields, nil
}

// RequestURL extracts the URL from a request field like "GET /path HTTP/1.1".
func RequestURL(request string) string {
	parts := strings.SplitN(request, " ", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func hasRequestURL(request string) bool {
	return RequestURL(request) != ""
}
