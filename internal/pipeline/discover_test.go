package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestDiscoverLogFileFound(t *testing.T) {
	logDir := t.TempDir()
	touch(t, logDir, "nginx-access-ui.log-20230301")
	touch(t, logDir, "nginx-access-ui.log-20230302.gz")
	touch(t, logDir, "nginx-access-ui.log-20230303.gz")

	registryPath := filepath.Join(logDir, ".processed.txt")
	require.NoError(t, os.WriteFile(registryPath, []byte("nginx-access-ui.log-20230301\n"), 0644))

	found, err := DiscoverLogFile(logDir, NewRegistry(registryPath))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(logDir, "nginx-access-ui.log-20230303.gz"), found.Path)
	assert.Equal(t, time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC), found.Date)
}

func TestDiscoverLogFileIgnoresOtherNames(t *testing.T) {
	logDir := t.TempDir()
	touch(t, logDir, "nginx-access-ui.log-20230301.bz2")
	touch(t, logDir, "access.log")
	touch(t, logDir, "nginx-access-ui.log-2023030")
	require.NoError(t, os.Mkdir(filepath.Join(logDir, "nginx-access-ui.log-20230302"), 0755))

	_, err := DiscoverLogFile(logDir, NewRegistry(filepath.Join(logDir, ".processed.txt")))
	assert.True(t, errors.Is(err, ErrNoLogFiles))
}

func TestDiscoverLogFileAllProcessed(t *testing.T) {
	logDir := t.TempDir()
	touch(t, logDir, "nginx-access-ui.log-20230301")

	registryPath := filepath.Join(logDir, ".processed.txt")
	require.NoError(t, os.WriteFile(registryPath, []byte("nginx-access-ui.log-20230301\n"), 0644))

	_, err := DiscoverLogFile(logDir, NewRegistry(registryPath))
	assert.True(t, errors.Is(err, ErrNoLogFiles))
}

func TestDiscoverLogFileBadDate(t *testing.T) {
	logDir := t.TempDir()
	touch(t, logDir, "nginx-access-ui.log-20231399")

	_, err := DiscoverLogFile(logDir, NewRegistry(filepath.Join(logDir, ".processed.txt")))
	assert.True(t, errors.Is(err, ErrBadLogFileDate))
}

func TestDiscoverLogFileMissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := DiscoverLogFile(missing, NewRegistry(filepath.Join(missing, ".processed.txt")))
	assert.Error(t, err)
}

func TestIsLogFileName(t *testing.T) {
	assert.True(t, IsLogFileName("nginx-access-ui.log-20230301"))
	assert.True(t, IsLogFileName("nginx-access-ui.log-20230301.gz"))
	assert.False(t, IsLogFileName("nginx-access-ui.log-20230301.bz2"))
	assert.False(t, IsLogFileName("nginx-access-ui.log-2023"))
	assert.False(t, IsLogFileName("report-2023.03.01.html"))
}
