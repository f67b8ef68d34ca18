package output

import "time"

// document is the structured form shared by the JSON and YAML formatters.
type document struct {
	RunID   string         `json:"run_id" yaml:"run_id"`
	Host    documentHost   `json:"host" yaml:"host"`
	Tiers   []documentTier `json:"tiers" yaml:"tiers"`
	Summary documentStats  `json:"summary" yaml:"summary"`
}

type documentHost struct {
	CPU         string   `json:"cpu" yaml:"cpu"`
	TotalRAMMB  uint64   `json:"total_ram_mb" yaml:"total_ram_mb"`
	LogicalCPUs int      `json:"logical_cpus" yaml:"logical_cpus"`
	OS          string   `json:"os" yaml:"os"`
	Arch        string   `json:"arch" yaml:"arch"`
	Features    []string `json:"features,omitempty" yaml:"features,omitempty"`
}

type documentTier struct {
	Label           string  `json:"label" yaml:"label"`
	WorkingSetBytes uint64  `json:"working_set_bytes" yaml:"working_set_bytes"`
	SizeHuman       string  `json:"size_human" yaml:"size_human"`
	Iterations      int     `json:"iterations" yaml:"iterations"`
	Measured        bool    `json:"measured" yaml:"measured"`
	BandwidthMBps   float64 `json:"bandwidth_mbps" yaml:"bandwidth_mbps"`
	Elapsed         string  `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
}

type documentStats struct {
	ScoreMBps   float64   `json:"score_mbps" yaml:"score_mbps"`
	Measured    int       `json:"measured" yaml:"measured"`
	Sink        int       `json:"sink" yaml:"sink"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	Duration    string    `json:"duration" yaml:"duration"`
	Interrupted bool      `json:"interrupted" yaml:"interrupted"`
	Warnings    []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// buildDocument converts a Report to its structured form.
func buildDocument(r *Report) document {
	tiers := make([]documentTier, len(r.Tiers))
	for i, t := range r.Tiers {
		tiers[i] = buildDocumentTier(t)
	}

	return document{
		RunID: r.RunID,
		Host: documentHost{
			CPU:         r.Host.CPUName,
			TotalRAMMB:  r.Host.TotalRAMMB,
			LogicalCPUs: r.Host.LogicalCPUs,
			OS:          r.Host.OS,
			Arch:        r.Host.Arch,
			Features:    r.Host.Features,
		},
		Tiers: tiers,
		Summary: documentStats{
			ScoreMBps:   r.Score,
			Measured:    r.Measured,
			Sink:        int(r.Sink),
			StartedAt:   r.StartedAt,
			Duration:    formatDurationString(r.Duration),
			Interrupted: r.Interrupted,
			Warnings:    r.Warnings,
		},
	}
}

func buildDocumentTier(t TierReport) documentTier {
	return documentTier{
		Label:           t.Label,
		WorkingSetBytes: t.WorkingSetBytes,
		SizeHuman:       t.SizeHuman,
		Iterations:      t.Iterations,
		Measured:        t.Measured,
		BandwidthMBps:   t.BandwidthMBps,
		Elapsed:         formatDurationString(t.Elapsed),
		Error:           t.Reason,
	}
}

// formatDurationString formats a duration for structured output, leaving
// zero durations empty.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
