package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// RotationConfig controls when the log file is rolled over and how many
// numbered backups (membw.log.1, membw.log.2, ...) survive.
type RotationConfig struct {
	// MaxSize is the byte size that triggers a rollover. Zero means 10MB.
	MaxSize int64

	// MaxAge drops backups older than this many days. Zero disables it.
	MaxAge int

	// MaxBackups bounds the number of numbered backups. Zero means the
	// default of five; backups are never unbounded.
	MaxBackups int
}

const (
	defaultMaxSize    = 10 * 1024 * 1024
	defaultMaxAge     = 30
	defaultMaxBackups = 5
)

// DefaultRotationConfig returns the rotation used when the config file does
// not override it.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    defaultMaxSize,
		MaxAge:     defaultMaxAge,
		MaxBackups: defaultMaxBackups,
	}
}

func (c RotationConfig) withDefaults() RotationConfig {
	if c.MaxSize <= 0 {
		c.MaxSize = defaultMaxSize
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = defaultMaxBackups
	}
	return c
}

// RotatingWriter appends to a log file and shifts it to numbered backups
// once it grows past MaxSize. Writes are serialized.
type RotatingWriter struct {
	mu      sync.Mutex
	path    string
	cfg     RotationConfig
	f       *os.File
	written int64
}

// NewRotatingWriter opens (or creates) path for appending.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg.withDefaults()}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.expire()

	return w, nil
}

// Write implements io.Writer. A single entry is never split across files.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}

	if w.written > 0 && w.written+int64(len(p)) > w.cfg.MaxSize {
		if err := w.roll(); err != nil {
			return 0, fmt.Errorf("rolling log file: %w", err)
		}
	}

	n, err := w.f.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("appending to %s: %w", w.path, err)
	}
	return n, nil
}

// Close flushes the file to disk. Closing twice is a no-op.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *RotatingWriter) closeLocked() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil

	syncErr := f.Sync()
	closeErr := f.Close()
	if syncErr != nil {
		return fmt.Errorf("syncing %s: %w", w.path, syncErr)
	}
	return closeErr
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", w.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat %s: %w", w.path, err)
	}

	w.f = f
	w.written = info.Size()
	return nil
}

func (w *RotatingWriter) backup(n int) string {
	return w.path + "." + strconv.Itoa(n)
}

// roll shifts path.N to path.N+1, dropping the oldest, then moves the live
// file to path.1 and reopens path.
func (w *RotatingWriter) roll() error {
	if err := w.closeLocked(); err != nil {
		return err
	}

	_ = os.Remove(w.backup(w.cfg.MaxBackups))
	for n := w.cfg.MaxBackups - 1; n >= 1; n-- {
		if err := os.Rename(w.backup(n), w.backup(n+1)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shifting backup %d: %w", n, err)
		}
	}
	if err := os.Rename(w.path, w.backup(1)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("moving %s aside: %w", w.path, err)
	}

	if err := w.open(); err != nil {
		return err
	}
	w.expire()
	return nil
}

// expire removes backups past MaxAge. Anything numbered beyond MaxBackups
// (left over from a larger earlier setting) goes too.
func (w *RotatingWriter) expire() {
	cutoff := time.Now().Add(-time.Duration(w.cfg.MaxAge) * 24 * time.Hour)

	matches, err := filepath.Glob(w.path + ".*")
	if err != nil {
		return
	}
	for _, m := range matches {
		n, err := strconv.Atoi(m[len(w.path)+1:])
		if err != nil || n < 1 {
			continue
		}
		if n > w.cfg.MaxBackups {
			_ = os.Remove(m)
			continue
		}
		if w.cfg.MaxAge <= 0 {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.ModTime().Before(cutoff) {
			_ = os.Remove(m)
		}
	}
}
