// Package config loads analyzer run configuration.
//
// Two formats are supported: the legacy key=value format carried over from
// the original deployment (upper-case keys, one per line) and TOML for
// files with a .toml extension. Fields missing from the file keep their
// defaults.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"go-log-analyzer/internal/model"
)

var (
	ErrBadConfigLine    = errors.New("config line is not KEY=value")
	ErrUnknownConfigKey = errors.New("unknown config key")
)

// Load reads the config file at path and returns the resulting spec.
func Load(path string) (model.RunSpec, error) {
	logrus.WithField("path", path).Info("reading config file")

	spec := model.DefaultSpec()

	data, err := os.ReadFile(path)
	if err != nil {
		return spec, errors.Wrap(err, "read config file")
	}

	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(data, &spec); err != nil {
			return spec, errors.Wrap(err, "decode toml config")
		}
		return spec, nil
	}

	if err := applyLegacy(&spec, data); err != nil {
		return spec, err
	}
	return spec, nil
}

// applyLegacy parses KEY=value lines over the defaults already in spec.
func applyLegacy(spec *model.RunSpec, data []byte) error {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return errors.Wrapf(ErrBadConfigLine, "line %q", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := setLegacyKey(spec, key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func setLegacyKey(spec *model.RunSpec, key, value string) error {
	switch key {
	case "REPORT_SIZE":
		return setInt(&spec.ReportSize, key, value)
	case "REPORT_DIR":
		spec.ReportDir = value
	case "LOG_DIR":
		spec.LogDir = value
	case "REGISTRY_FILE":
		spec.RegistryFile = value
	case "DB_PATH":
		spec.DBPath = value
	case "MAX_ERROR_RATE":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrapf(err, "value for %s", key)
		}
		spec.MaxErrorRate = f
	case "PARSE_WORKERS":
		return setInt(&spec.ParseWorkers, key, value)
	case "AGGREGATE_WORKERS":
		return setInt(&spec.AggregateWorkers, key, value)
	case "CHANNEL_BUFFER":
		return setInt(&spec.ChannelBuffer, key, value)
	case "JOB_TIMEOUT":
		spec.JobTimeout = value
	default:
		return errors.Wrap(ErrUnknownConfigKey, key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	i, err := strconv.Atoi(value)
	if err != nil {
		return errors.Wrapf(err, "value for %s", key)
	}
	*dst = i
	return nil
}
