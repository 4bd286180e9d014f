package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Registry is the plain-text list of processed log file names, one base
// name per line. It stays authoritative for discovery skips even though
// the store mirrors it.
type Registry struct {
	Path string
}

// NewRegistry creates a registry backed by the given file.
func NewRegistry(path string) *Registry {
	return &Registry{Path: path}
}

// Load reads the registry. A missing file is an empty registry.
func (r *Registry) Load() (map[string]bool, error) {
	processed := make(map[string]bool)

	file, err := os.Open(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return processed, nil
		}
		return nil, errors.Wrap(err, "open registry file")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			processed[name] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read registry file")
	}
	return processed, nil
}

// Mark appends the base name of logPath to the registry, creating the file
// if needed.
func (r *Registry) Mark(logPath string) error {
	file, err := os.OpenFile(r.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "open registry file")
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, filepath.Base(logPath)); err != nil {
		return errors.Wrap(err, "append to registry file")
	}
	return nil
}
