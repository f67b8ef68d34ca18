package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/membw/pkg/membw/config"
	"github.com/jamesainslie/membw/pkg/membw/logging"
	"github.com/jamesainslie/membw/pkg/membw/output"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

// testConfig writes a config with two tiny tiers and a private log file.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")

	content := `tiers:
  - label: Tiny
    size: 4KiB
    iterations: 20
  - label: Small
    size: 16KiB
    iterations: 10
settle: 0s
logging:
  level: debug
  path: ` + filepath.Join(dir, "membw.log") + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with fresh viper and flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	t.Cleanup(func() { _ = logging.Close() })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunBenchmark_JSON(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "--config", path, "-q", "-o", "json")
	require.NoError(t, err)

	var doc struct {
		Tiers []struct {
			Label         string  `json:"label"`
			Measured      bool    `json:"measured"`
			BandwidthMBps float64 `json:"bandwidth_mbps"`
		} `json:"tiers"`
		Summary struct {
			ScoreMBps float64 `json:"score_mbps"`
			Measured  int     `json:"measured"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	require.Len(t, doc.Tiers, 2)
	assert.Equal(t, "Tiny", doc.Tiers[0].Label)
	for _, tier := range doc.Tiers {
		assert.True(t, tier.Measured)
		assert.Greater(t, tier.BandwidthMBps, 0.0)
	}
	assert.Equal(t, 2, doc.Summary.Measured)
	assert.InDelta(t, (doc.Tiers[0].BandwidthMBps+doc.Tiers[1].BandwidthMBps)/2, doc.Summary.ScoreMBps, 1e-6)
}

func TestRunBenchmark_PlainWithSelection(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "--config", path, "-q", "-o", "plain", "-t", "small")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "System Information:\nCPU: "))
	assert.Contains(t, out, "Small Bandwidth: ")
	assert.NotContains(t, out, "Tiny Bandwidth")
	assert.Contains(t, out, "Overall Performance Score: ")
	assert.Contains(t, out, "Sink value (for optimization prevention): 130")
}

func TestRunBenchmark_MemoryLimitMarksTierUnmeasured(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "--config", path, "-q", "-o", "plain", "--max-memory", "16KiB")
	require.NoError(t, err)

	assert.Contains(t, out, "Tiny Bandwidth: ")
	assert.Contains(t, out, "Small Bandwidth: unmeasured (Small: buffer allocation failed")
}

func TestRunBenchmark_Errors(t *testing.T) {
	path := testConfig(t)

	_, err := execute(t, "--config", path, "-q", "-o", "nope")
	assert.ErrorIs(t, err, output.ErrUnknownFormat)

	_, err = execute(t, "--config", path, "-q", "-t", "L9")
	assert.ErrorIs(t, err, config.ErrNoTiersSelected)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "-q")
	assert.Error(t, err)
}

func TestRootHelpPointsToPlainReport(t *testing.T) {
	assert.Contains(t, rootCmd.Long, "-o plain for the canonical text report")
	assert.Contains(t, rootCmd.Long, `"<label> Bandwidth: <value> MB/s"`)
	assert.Equal(t, "pretty", config.DefaultOutput)
}

func TestTiersCommand(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "tiers", "--config", path, "--scale", "10")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"LABEL", "SIZE", "ITERATIONS", "TOTAL"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Tiny", "4.0", "KiB", "200", "800", "KiB"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"Small", "16", "KiB", "100", "1.6", "MiB"}, strings.Fields(lines[2]))
}

func TestHostCommand(t *testing.T) {
	path := testConfig(t)

	out, err := execute(t, "host", "--config", path, "-o", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["cpu_name"])
	assert.Contains(t, info, "total_ram_mb")
}

func TestConfigCommands(t *testing.T) {
	testConfig(t)
	newPath := filepath.Join(t.TempDir(), "membw", "config.yaml")

	out, err := execute(t, "config", "path", "--config", newPath)
	require.NoError(t, err)
	assert.Equal(t, newPath+"\n", out)

	_, err = execute(t, "config", "init", "-q", "--config", newPath)
	require.NoError(t, err)
	assert.FileExists(t, newPath)

	out, err = execute(t, "config", "show", "--config", newPath)
	require.NoError(t, err)
	assert.Contains(t, out, "# Config file: "+newPath)
	assert.Contains(t, out, "L1 Cache")
	assert.Contains(t, out, "settle: 500ms")
}

func TestVersionCommand(t *testing.T) {
	testConfig(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "membw dev\n"))
}

func TestSelectFormatter(t *testing.T) {
	f, err := selectFormatter("", "")
	require.NoError(t, err)
	assert.IsType(t, &output.PrettyFormatter{}, f)

	f, err = selectFormatter("template", "{{.Score}}")
	require.NoError(t, err)
	assert.IsType(t, &output.TemplateFormatter{}, f)

	f, err = selectFormatter("template", "")
	require.NoError(t, err)
	assert.IsType(t, &output.TemplateFormatter{}, f)

	_, err = selectFormatter("xml", "")
	assert.True(t, errors.Is(err, output.ErrUnknownFormat))
	assert.Contains(t, err.Error(), "plain")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	emit := progressPrinter(&buf)

	emit(types.TierResult{
		Tier:          types.Tier{Label: "L1 Cache", WorkingSetBytes: 64 * types.KiB, Iterations: 1},
		BandwidthMBps: 1234.5,
	})
	emit(types.TierResult{
		Tier: types.Tier{Label: "RAM", WorkingSetBytes: 256 * types.MiB, Iterations: 1},
		Err:  errors.New("no memory"),
	})

	assert.Equal(t,
		"  L1 Cache Bandwidth: 1234.50 MB/s (64 KiB)\n  RAM Bandwidth: unmeasured (no memory) (256 MiB)\n",
		buf.String())
}

func TestShowProgress(t *testing.T) {
	viper.Reset()
	assert.True(t, showProgress("pretty"))
	assert.True(t, showProgress(""))
	assert.False(t, showProgress("json"))

	viper.Set("quiet", true)
	assert.False(t, showProgress("pretty"))
	viper.Reset()
}
