// Package output writes finished recordings to disk and formats the
// messages the CLI shows about them.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Result describes the outcome of a save.
type Result struct {
	Path      string `json:"path,omitempty"`
	Bytes     int64  `json:"bytes"`
	Abandoned bool   `json:"abandoned,omitempty"`
}

// WriteError is returned when the recording could not be written to Path.
// The caller still owns the chunks and may retry.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return "failed to write recording to " + e.Path + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// DefaultName returns the file name offered when the user has not chosen
// one, e.g. "vid-1700000000000.webm".
func DefaultName(now time.Time, ext string) string {
	return "vid-" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// Writer saves the chunks of a stopped recording as a single file.
type Writer struct {
	OutputDir string
	Logger    *zap.Logger

	// Now is used for default file names; nil means time.Now.
	Now func() time.Time
}

// Save asks dialog where to write, then writes the chunks back to back in
// the order given. A cancelled dialog yields Result{Abandoned: true} and a
// nil error. suggestedName defaults to DefaultName with a .webm extension.
func (w *Writer) Save(ctx context.Context, dialog Dialog, chunks [][]byte, suggestedName string) (Result, error) {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if suggestedName == "" {
		suggestedName = w.Name(".webm")
	}
	defaultPath := suggestedName
	if w.OutputDir != "" && !filepath.IsAbs(suggestedName) {
		defaultPath = filepath.Join(w.OutputDir, suggestedName)
	}

	path, ok, err := dialog.ShowSaveDialog(ctx, defaultPath)
	if err != nil {
		return Result{}, fmt.Errorf("save dialog: %w", err)
	}
	if !ok {
		logger.Info("save abandoned", zap.String("default_path", defaultPath))
		return Result{Abandoned: true}, nil
	}
	if path == "" {
		path = defaultPath
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	n, err := writeAtomic(path, chunks)
	if err != nil {
		logger.Error("save failed", zap.String("path", path), zap.Error(err))
		return Result{}, &WriteError{Path: path, Err: err}
	}
	logger.Info("recording saved", zap.String("path", path), zap.Int64("bytes", n))
	return Result{Path: path, Bytes: n}, nil
}

// Name returns DefaultName for the writer's current time.
func (w *Writer) Name(ext string) string {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	return DefaultName(now, ext)
}

// writeAtomic writes chunks to a temp file next to path and renames it into
// place, so a failed write never leaves a partial file at path.
func writeAtomic(path string, chunks [][]byte) (n int64, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	for _, c := range chunks {
		var m int
		m, err = tmp.Write(c)
		n += int64(m)
		if err != nil {
			tmp.Close()
			return 0, err
		}
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return 0, err
	}
	if err = tmp.Close(); err != nil {
		return 0, err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return 0, err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return 0, err
	}
	return n, nil
}
