package output

import (
	"bytes"
	"fmt"
)

// PlainFormatter writes the canonical text report: host information, one
// line per tier, the overall score and the sink value. No colors or
// styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString("System Information:\n")
	fmt.Fprintf(w, "CPU: %s\n", r.Host.CPUName)
	fmt.Fprintf(w, "Total RAM: %d MB\n", r.Host.TotalRAMMB)

	w.WriteString("\nBenchmark Results:\n")
	for _, t := range r.Tiers {
		w.WriteString(TierLine(t))
		w.WriteByte('\n')
	}

	fmt.Fprintf(w, "\nOverall Performance Score: %.2f MB/s\n", r.Score)
	fmt.Fprintf(w, "Sink value (for optimization prevention): %d\n", r.Sink)

	return nil
}

// TierLine renders one tier as "<label> Bandwidth: <value> MB/s", or
// "<label> Bandwidth: unmeasured (<reason>)" when it has no bandwidth.
func TierLine(t TierReport) string {
	if !t.Measured {
		return fmt.Sprintf("%s Bandwidth: unmeasured (%s)", t.Label, t.Reason)
	}
	return fmt.Sprintf("%s Bandwidth: %.2f MB/s", t.Label, t.BandwidthMBps)
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
