// Package logging provides component loggers for membw built on
// charmbracelet/log, writing to a rotating log file and optionally to stderr.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("engine")
//	logger.Info("tier measured", "label", "L1 Cache")
//
// Loggers may be obtained before Init (typically as package variables);
// they discard output until Init is called and pick up the configuration
// afterwards.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned for a level name other than debug, info,
// warn (or warning) and error.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel maps a config level name onto a charm log level. An empty
// name means info.
func ParseLevel(s string) (log.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	case "fatal":
		// charm accepts it, the config does not.
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}

	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
	return level, nil
}

// Config configures the logging system.
type Config struct {
	// Level filters the log file (debug, info, warn, error).
	Level string

	// Path is the log file. Empty means DefaultLogPath().
	Path string

	Rotation RotationConfig

	// ConsoleLevel mirrors entries at or above this level to the console.
	// Empty keeps the console quiet.
	ConsoleLevel string

	// ConsoleWriter replaces os.Stderr as the console.
	ConsoleWriter io.Writer
}

// Logger is a named component logger. It looks up its sinks on every call,
// so a Logger held in a package variable follows later Init calls.
type Logger struct {
	component string
	keyvals   []interface{}
}

// Get returns a logger for the given component.
func Get(component string) *Logger {
	return &Logger{component: component}
}

// With returns a child logger that prepends keyvals to every entry.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.keyvals)+len(keyvals))
	merged = append(merged, l.keyvals...)
	merged = append(merged, keyvals...)
	return &Logger{component: l.component, keyvals: merged}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.emit(log.DebugLevel, msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...interface{})  { l.emit(log.InfoLevel, msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...interface{})  { l.emit(log.WarnLevel, msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.emit(log.ErrorLevel, msg, keyvals) }

func (l *Logger) emit(level log.Level, msg string, keyvals []interface{}) {
	sinks := registry.lookup(l.component)
	if len(sinks) == 0 {
		return
	}
	if len(l.keyvals) > 0 {
		keyvals = append(append([]interface{}{}, l.keyvals...), keyvals...)
	}
	for _, s := range sinks {
		s.Log(level, msg, keyvals...)
	}
}

// sinkRegistry owns the log file and caches one charm logger per component
// and destination.
type sinkRegistry struct {
	mu       sync.RWMutex
	active   bool
	file     *RotatingWriter
	fileLvl  log.Level
	console  io.Writer
	conLvl   log.Level
	children map[string][]*log.Logger
}

var registry = &sinkRegistry{children: map[string][]*log.Logger{}}

func (r *sinkRegistry) lookup(component string) []*log.Logger {
	r.mu.RLock()
	sinks, ok := r.children[component]
	active := r.active
	r.mu.RUnlock()
	if ok || !active {
		return sinks
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil
	}
	if sinks, ok := r.children[component]; ok {
		return sinks
	}

	sinks = []*log.Logger{log.NewWithOptions(r.file, log.Options{
		Level:           r.fileLvl,
		Prefix:          component,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       log.LogfmtFormatter,
	})}
	if r.console != nil {
		sinks = append(sinks, log.NewWithOptions(r.console, log.Options{
			Level:           r.conLvl,
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		}))
	}
	r.children[component] = sinks
	return sinks
}

// Init opens the log file and activates every component logger. A second
// Init closes the previous file first.
func Init(cfg Config) error {
	fileLvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var console io.Writer
	conLvl := log.InfoLevel
	if cfg.ConsoleLevel != "" {
		if conLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("console log level: %w", err)
		}
		console = cfg.ConsoleWriter
		if console == nil {
			console = os.Stderr
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	file, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.file != nil {
		_ = registry.file.Close()
	}
	registry.file = file
	registry.fileLvl = fileLvl
	registry.console = console
	registry.conLvl = conLvl
	registry.children = map[string][]*log.Logger{}
	registry.active = true

	return nil
}

// Close flushes the log file. Loggers go quiet until the next Init.
func Close() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.active = false
	registry.children = map[string][]*log.Logger{}

	if registry.file == nil {
		return nil
	}
	file := registry.file
	registry.file = nil
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing log: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/membw/membw.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "membw", "membw.log")
}
