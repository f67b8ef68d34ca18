package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/membw/pkg/membw/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		{input: "debug", want: log.DebugLevel},
		{input: "INFO", want: log.InfoLevel},
		{input: "", want: log.InfoLevel},
		{input: " warn ", want: log.WarnLevel},
		{input: "warning", want: log.WarnLevel},
		{input: "error", want: log.ErrorLevel},
		{input: "fatal", wantErr: true},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, logging.ErrInvalidLevel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Note: the logging tests share global state and must not run in parallel.
func TestLoggerBeforeInitIsSilent(t *testing.T) {
	require.NoError(t, logging.Close())

	logger := logging.Get("engine")
	assert.NotPanics(t, func() {
		logger.Info("nothing to see", "k", "v")
	})
}

func TestLoggerCreatedBeforeInitFollowsInit(t *testing.T) {
	logger := logging.Get("runner")

	path := filepath.Join(t.TempDir(), "membw.log")
	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:         "debug",
		Path:          path,
		ConsoleLevel:  "warn",
		ConsoleWriter: &console,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logger.Debug("settling", "delay", "500ms")
	logger.With("tier", "L1 Cache").Warn("tier unmeasured")

	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "settling")
	assert.Contains(t, content, "tier unmeasured")
	assert.Contains(t, content, "L1 Cache")

	assert.Contains(t, console.String(), "tier unmeasured")
	assert.NotContains(t, console.String(), "settling")
}

func TestInitRejectsInvalidLevels(t *testing.T) {
	dir := t.TempDir()

	err := logging.Init(logging.Config{Level: "verbose", Path: filepath.Join(dir, "a.log")})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)

	err = logging.Init(logging.Config{Level: "info", ConsoleLevel: "chatty", Path: filepath.Join(dir, "b.log")})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("membw", "membw.log")), path)
}
