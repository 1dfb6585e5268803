package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matrufsc/cagr-scrape/internal/schedule"
)

// DefaultDataDir is where schedules are published unless configured otherwise
const DefaultDataDir = "data/schedule"

// Storage handles the published schedule files of a data directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance, creating the directory if needed
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) path(semester schedule.Semester, campus schedule.Campus, ext string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s-%s.%s", semester, campus, ext))
}

// ArtifactPath returns <dir>/<semester>-<campus>.json. Its modification time
// is what the freshness check reads.
func (s *Storage) ArtifactPath(semester schedule.Semester, campus schedule.Campus) string {
	return s.path(semester, campus, "json")
}

// CSVPath returns <dir>/<semester>-<campus>.csv
func (s *Storage) CSVPath(semester schedule.Semester, campus schedule.Campus) string {
	return s.path(semester, campus, "csv")
}

// ICSPath returns <dir>/<semester>-<campus>.ics
func (s *Storage) ICSPath(semester schedule.Semester, campus schedule.Campus) string {
	return s.path(semester, campus, "ics")
}

// WriteFile writes path atomically: the content goes to a temporary file in
// the same directory which is renamed over path once complete. A failed
// write leaves any previous file untouched.
func (s *Storage) WriteFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}

	return nil
}
