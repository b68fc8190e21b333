package ops

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/appointworks/appoint/internal/errors"
	"github.com/appointworks/appoint/internal/record"
)

// ExportSchemaVersion is stamped into every export file.
const ExportSchemaVersion = "1.0"

// ExportFile is the on-disk export shape: the full aggregate plus the
// schema version and export timestamp. The field names are the durable
// contract; older exports must keep parsing.
type ExportFile struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	record.Data
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.appoint/exports/appoint-<timestamp>.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string    `json:"path"`
	Templates  int       `json:"templates"`
	Records    int       `json:"records"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Export writes the full aggregate to a JSON file. The write goes to a
// temp file first and is renamed into place, so a failure mid-write never
// clobbers an existing export.
func (s *Service) Export(input ExportInput) (*ExportOutput, error) {
	now := time.Now().UTC()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(now)
		if err != nil {
			return nil, err
		}
	}

	// Default and user-provided paths go through the same checks.
	if err := ValidatePath(exportPath, PathCheckWrite, s.cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	data, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	out := ExportFile{
		Version:    ExportSchemaVersion,
		ExportDate: now,
		Data:       *data,
	}
	blob, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(blob); err != nil {
		return nil, errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before the rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Templates:  len(data.Templates),
		Records:    len(data.History),
		ExportedAt: now,
	}, nil
}

// defaultExportPath generates the default export path:
// ~/.appoint/exports/appoint-<timestamp>.json.
func defaultExportPath(now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("appoint-%s.json", now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
