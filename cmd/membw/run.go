package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/membw/pkg/membw/config"
	"github.com/jamesainslie/membw/pkg/membw/engine"
	"github.com/jamesainslie/membw/pkg/membw/hostinfo"
	"github.com/jamesainslie/membw/pkg/membw/logging"
	"github.com/jamesainslie/membw/pkg/membw/output"
	"github.com/jamesainslie/membw/pkg/membw/runner"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

// runBenchmark measures every selected tier and prints the report.
func runBenchmark(cmd *cobra.Command, _ []string) error {
	log := logging.Get("cli")

	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}

	tiers, err := selectedTiers(cfg)
	if err != nil {
		return err
	}

	formatter, err := selectFormatter(cfg.Output, cfg.Template)
	if err != nil {
		return err
	}

	host := hostinfo.Detect(hostinfo.Default())

	limit, err := cfg.MemoryLimit(host.TotalRAMBytes())
	if err != nil {
		return err
	}
	eng := engine.New(engine.WithMaxBytes(limit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runner.Options{
		Settle: cfg.Settle,
	}
	if showProgress(cfg.Output) {
		printInfo("Running %d tier(s) on %s...", len(tiers), host.CPUName)
		opts.OnResult = progressPrinter(os.Stderr)
	}

	log.Info("benchmark starting",
		"tiers", len(tiers),
		"settle", cfg.Settle,
		"max_bytes", limit,
		"output", cfg.Output)

	started := time.Now()
	summary := runner.New(eng, opts).Run(ctx, tiers)
	report := output.NewReport(host, tiers, summary, started, time.Since(started))

	if summary.Interrupted {
		printInfo("Interrupted, reporting completed tiers")
	}

	return writeReport(cmd.OutOrStdout(), formatter, report)
}

// selectedTiers builds the tier list from config and applies --tiers.
func selectedTiers(cfg *config.Config) ([]types.Tier, error) {
	tiers, err := cfg.BenchmarkTiers()
	if err != nil {
		return nil, err
	}
	return config.SelectTiers(tiers, viper.GetStringSlice("select"))
}

// selectFormatter resolves the output format. "template" uses tmpl when one
// is given and the built-in template otherwise.
func selectFormatter(name, tmpl string) (output.Formatter, error) {
	if name == "" {
		name = config.DefaultOutput
	}
	if name == "template" && tmpl != "" {
		return output.NewTemplateFormatter(tmpl), nil
	}

	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: available formats are %v", err, output.Available())
	}
	return formatter, nil
}

// showProgress reports whether per-tier progress lines should be printed.
// Only the interactive format gets them; the others are meant for piping.
func showProgress(format string) bool {
	return !getQuiet() && (format == "" || format == "pretty")
}

// progressPrinter returns a runner callback that writes one line per tier.
func progressPrinter(w io.Writer) func(types.TierResult) {
	return func(res types.TierResult) {
		row := output.NewTierReport(res)
		fmt.Fprintf(w, "  %s (%s)\n", output.TierLine(row), row.SizeHuman)
	}
}

// writeReport formats the report and writes it in one piece.
func writeReport(w io.Writer, formatter output.Formatter, report *output.Report) error {
	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
