package pipeline

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// IngestLines streams the lines of a plain or .gz access log into out.
// It returns the number of lines read. The caller owns closing out.
func IngestLines(ctx context.Context, logPath string, out chan<- string) (int64, error) {
	logrus.WithField("file", logPath).Info("starting ingestion")

	file, err := os.Open(logPath)
	if err != nil {
		return 0, errors.Wrap(err, "open log file")
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(logPath, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return 0, errors.Wrap(err, "open gzip log file")
		}
		defer gz.Close()
		reader = gz
	}

	var lineCount int64
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		select {
		case <-ctx.Done():
			return lineCount, ctx.Err()
		case out <- line:
			lineCount++
			if lineCount%100000 == 0 {
				logrus.WithFields(logrus.Fields{
					"file":  logPath,
					"lines": lineCount,
				}).Debug("ingestion progress")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return lineCount, errors.Wrap(err, "read log file")
	}

	logrus.WithFields(logrus.Fields{
		"file":  logPath,
		"lines": lineCount,
	}).Info("ingestion done")
	return lineCount, nil
}
