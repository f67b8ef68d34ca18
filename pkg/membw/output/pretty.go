package output

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/membw/pkg/membw/types"
)

// barWidth is the width of the relative bandwidth bar in cells.
const barWidth = 24

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatTable(r))

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatHeader builds the header box with host information.
func (f *PrettyFormatter) formatHeader(r *Report) string {
	field := func(label, value string) string {
		return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
	}

	lines := []string{
		TitleStyle.Render("System Information"),
		field("CPU:", r.Host.CPUName),
		strings.Join([]string{
			field("RAM:", humanize.IBytes(r.Host.TotalRAMBytes())),
			field("CPUs:", fmt.Sprintf("%d", r.Host.LogicalCPUs)),
			field("Platform:", r.Host.OS+"/"+r.Host.Arch),
		}, "  "),
	}
	if len(r.Host.Features) > 0 {
		lines = append(lines, field("Features:", strings.Join(r.Host.Features, " ")))
	}

	if r.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Run interrupted by user"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTable builds the tier table with a bar scaled to the fastest tier.
func (f *PrettyFormatter) formatTable(r *Report) string {
	if len(r.Tiers) == 0 {
		return MutedStyle.Render("  No tiers selected") + "\n"
	}

	labelWidth, sizeWidth := len("TIER"), len("SIZE")
	var fastest float64
	for _, t := range r.Tiers {
		labelWidth = max(labelWidth, lipgloss.Width(t.Label))
		sizeWidth = max(sizeWidth, lipgloss.Width(t.SizeHuman))
		if t.Measured {
			fastest = math.Max(fastest, t.BandwidthMBps)
		}
	}

	bandwidths := make([]string, len(r.Tiers))
	bandwidthWidth := len("BANDWIDTH")
	for i, t := range r.Tiers {
		if t.Measured {
			bandwidths[i] = types.FormatBandwidth(t.BandwidthMBps)
		} else {
			bandwidths[i] = "unmeasured"
		}
		bandwidthWidth = max(bandwidthWidth, len(bandwidths[i]))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("TIER", labelWidth)),
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render(padLeft("BANDWIDTH", bandwidthWidth))))

	for i, t := range r.Tiers {
		label := ValueStyle.Render(padRight(t.Label, labelWidth))
		size := MutedStyle.Render(padLeft(t.SizeHuman, sizeWidth))

		if !t.Measured {
			bw := ErrorStyle.Render(padLeft(bandwidths[i], bandwidthWidth))
			sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n", label, size, bw, MutedStyle.Render(t.Reason)))
			continue
		}

		bw := BandwidthStyle.Render(padLeft(bandwidths[i], bandwidthWidth))
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n", label, size, bw, BarStyle.Render(bar(t.BandwidthMBps, fastest))))
	}

	return sb.String()
}

// formatFooter builds the footer box with the overall score.
func (f *PrettyFormatter) formatFooter(r *Report) string {
	parts := []string{
		LabelStyle.Render("Score:") + " " + ScoreStyle.Render(types.FormatBandwidth(r.Score)),
		LabelStyle.Render("Measured:") + " " + ValueStyle.Render(fmt.Sprintf("%d/%d", r.Measured, len(r.Tiers))),
		LabelStyle.Render("Sink:") + " " + ValueStyle.Render(fmt.Sprintf("%d", r.Sink)),
	}
	if r.Duration > 0 {
		parts = append(parts, LabelStyle.Render("Took:")+" "+ValueStyle.Render(formatDuration(r.Duration.Seconds())))
	}
	parts = append(parts, MutedStyle.Render("Use -o plain for unformatted output"))

	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// bar renders value relative to full as a run of block characters.
func bar(value, full float64) string {
	if full <= 0 || value <= 0 {
		return ""
	}
	n := int(math.Round(value / full * barWidth))
	n = min(max(n, 1), barWidth)
	return strings.Repeat("█", n)
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// formatDuration formats seconds in a human-friendly way.
func formatDuration(sec float64) string {
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
