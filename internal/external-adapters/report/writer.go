// Package report persists audit reports and their summaries.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/services"
)

// FileMode is the permission of written reports
const FileMode os.FileMode = 0o644

// Written describes a report on disk
type Written struct {
	Path   string
	Rows   int
	Bytes  int64
	SHA256 string
}

// WriteCSV writes the report to path. The file appears under its final
// name only once fully written; on error nothing is left behind.
func WriteCSV(path string, columns []string, rows []entities.ReportRow) (*Written, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	counter := &countingWriter{}
	if err := services.WriteCSV(io.MultiWriter(tmp, h, counter), columns, rows); err != nil {
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Chmod(tmpPath, FileMode); err != nil {
		return nil, fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return nil, fmt.Errorf("failed to move report into place: %w", err)
	}
	committed = true

	return &Written{
		Path:   path,
		Rows:   len(rows),
		Bytes:  counter.n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Checksum returns the hex SHA-256 of a file
func Checksum(path string) (string, error) {
	//nolint:gosec // G304: path is the user-provided report location
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
