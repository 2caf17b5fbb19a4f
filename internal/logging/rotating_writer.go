package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// RotatingFileWriter rotates the log file once it would exceed maxSize
// bytes. Backups are named <path>.1 through <path>.N, newest first.
type RotatingFileWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	written    int64
}

// NewRotatingFileWriter opens path for appending.
func NewRotatingFileWriter(path string, maxSize int64, maxBackups int) (*RotatingFileWriter, error) {
	w := &RotatingFileWriter{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer. A record that would push the file past
// maxSize triggers rotation first; records are never split.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// Close releases the current file.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingFileWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return err
	}
	w.file = file
	w.written = info.Size()
	return nil
}

func (w *RotatingFileWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}

	// Shift existing backups up, dropping the oldest.
	_ = os.Remove(w.backupPath(w.maxBackups))
	for i := w.maxBackups - 1; i >= 1; i-- {
		if _, err := os.Stat(w.backupPath(i)); err == nil {
			if err := os.Rename(w.backupPath(i), w.backupPath(i+1)); err != nil {
				return err
			}
		}
	}
	// The current file may not exist on first rotation.
	_ = os.Rename(w.path, w.backupPath(1))

	return w.open()
}

func (w *RotatingFileWriter) backupPath(index int) string {
	return fmt.Sprintf("%s.%d", w.path, index)
}

var _ io.WriteCloser = (*RotatingFileWriter)(nil)
