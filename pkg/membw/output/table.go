package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// tableHeader is the column set shared by the tabular formatters.
var tableHeader = []string{"TIER", "SIZE", "BYTES", "ITERATIONS", "BANDWIDTH_MBPS", "ELAPSED", "STATUS"}

// tableRow renders one tier as table cells. Bandwidth is a bare number so
// the column stays machine-readable.
func tableRow(t TierReport) []string {
	bandwidth := ""
	status := "ok"
	if t.Measured {
		bandwidth = strconv.FormatFloat(t.BandwidthMBps, 'f', 2, 64)
	} else {
		status = "unmeasured: " + t.Reason
	}

	return []string{
		t.Label,
		t.SizeHuman,
		strconv.FormatUint(t.WorkingSetBytes, 10),
		strconv.Itoa(t.Iterations),
		bandwidth,
		formatDurationString(t.Elapsed),
		status,
	}
}

// TSVFormatter formats output as tab-separated values.
// It produces a simple table with a header row followed by data rows.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(strings.Join(tableHeader, "\t"))
	w.WriteByte('\n')

	for _, t := range r.Tiers {
		cells := tableRow(t)
		for i, c := range cells {
			cells[i] = strings.NewReplacer("\t", " ", "\n", " ").Replace(c)
		}
		w.WriteString(strings.Join(cells, "\t"))
		w.WriteByte('\n')
	}

	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats output as comma-separated values with proper quoting.
// It uses encoding/csv for RFC 4180 compliant output.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(tableHeader); err != nil {
		return err
	}

	for _, t := range r.Tiers {
		if err := writer.Write(tableRow(t)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats output as a GitHub-flavored Markdown table
// followed by the overall score.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString("| Tier | Size | Iterations | Bandwidth | Elapsed |\n")
	w.WriteString("|------|-----:|-----------:|----------:|--------:|\n")

	for _, t := range r.Tiers {
		bandwidth := "unmeasured (" + t.Reason + ")"
		if t.Measured {
			bandwidth = fmt.Sprintf("%.2f MB/s", t.BandwidthMBps)
		}
		fmt.Fprintf(w, "| %s | %s | %d | %s | %s |\n",
			escapeMarkdownPipe(t.Label),
			escapeMarkdownPipe(t.SizeHuman),
			t.Iterations,
			escapeMarkdownPipe(bandwidth),
			formatDurationString(t.Elapsed))
	}

	fmt.Fprintf(w, "\n**Overall Performance Score:** %.2f MB/s\n", r.Score)
	return nil
}

// escapeMarkdownPipe escapes pipe characters in a string for Markdown tables.
func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
