package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const timestampLayout = "20060102_150405"

// maxNameAttempts bounds the suffix search for runs sharing a second.
const maxNameAttempts = 1000

// OutputName returns "<kind>_<YYYYMMDD_HHMMSS>.json".
func OutputName(kind string, t time.Time) string {
	return outputName(kind, t, 0)
}

// outputName adds "_<n>" before the extension when n > 0.
func outputName(kind string, t time.Time, n int) string {
	if n == 0 {
		return fmt.Sprintf("%s_%s.json", kind, t.Format(timestampLayout))
	}
	return fmt.Sprintf("%s_%s_%d.json", kind, t.Format(timestampLayout), n)
}

// EnsureDir creates dir and its parents when missing. Safe to call again.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return nil
}

// createOutput creates a new output file and never overwrites an existing
// one. When the timestamped name is taken, "_1", "_2", ... is appended
// before the extension.
func createOutput(dir, kind string, t time.Time) (*os.File, string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		path := filepath.Join(dir, outputName(kind, t, i))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("create output: %d files named like %s already exist", maxNameAttempts, OutputName(kind, t))
}
