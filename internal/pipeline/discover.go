package pipeline

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"go-log-analyzer/internal/model"
)

var (
	// ErrNoLogFiles means the log dir holds no unprocessed access logs.
	// A run hitting it is a clean no-op, not a failure.
	ErrNoLogFiles = errors.New("no unprocessed log files found")

	// ErrBadLogFileDate means a file matched the name pattern but its date
	// suffix does not parse as yyyymmdd.
	ErrBadLogFileDate = errors.New("invalid date in log file name")
)

var logFilePattern = regexp.MustCompile(`^nginx-access-ui\.log-\d{8}(\.gz)?$`)

// IsLogFileName reports whether name looks like an access-log file this
// pipeline processes.
func IsLogFileName(name string) bool {
	return logFilePattern.MatchString(name)
}

// DiscoverLogFile returns the newest access log in logDir that is not yet
// listed in the registry. Newest is decided by the yyyymmdd suffix of the
// file name, not by mtime.
func DiscoverLogFile(logDir string, registry *Registry) (model.LogFile, error) {
	processed, err := registry.Load()
	if err != nil {
		return model.LogFile{}, err
	}

	dirEntries, err := os.ReadDir(logDir)
	if err != nil {
		return model.LogFile{}, errors.Wrap(err, "read log dir")
	}

	var (
		lastName string
		lastDate time.Time
	)

	for _, entry := range dirEntries {
		if entry.IsDir() || !logFilePattern.MatchString(entry.Name()) {
			continue
		}
		if processed[entry.Name()] {
			logrus.WithField("file", entry.Name()).Debug("log file already processed")
			continue
		}

		raw := entry.Name()
		if filepath.Ext(raw) == ".gz" {
			raw = raw[:len(raw)-len(".gz")]
		}
		date, err := time.Parse("20060102", raw[len(raw)-8:])
		if err != nil {
			return model.LogFile{}, errors.Wrap(ErrBadLogFileDate, entry.Name())
		}

		if date.After(lastDate) {
			lastDate = date
			lastName = entry.Name()
		}
	}

	if lastName == "" {
		return model.LogFile{}, ErrNoLogFiles
	}

	logrus.WithFields(logrus.Fields{
		"file":    lastName,
		"log_dir": logDir,
	}).Info("found last log file to process")

	return model.LogFile{
		Path: filepath.Join(logDir, lastName),
		Date: lastDate,
	}, nil
}
