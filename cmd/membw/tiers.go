package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/membw/pkg/membw/config"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Show the configured tiers",
	Long: `Display the tiers a run would measure, after applying --tiers and --scale.

TOTAL is the number of bytes copied inside the timed window.`,
	Args: cobra.NoArgs,
	RunE: runTiers,
}

func init() {
	rootCmd.AddCommand(tiersCmd)
}

// runTiers prints the selected tiers as an aligned table.
func runTiers(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}

	tiers, err := selectedTiers(cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tSIZE\tITERATIONS\tTOTAL")
	for _, t := range tiers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.Label,
			t.HumanSize(),
			humanize.Comma(int64(t.Iterations)),
			types.FormatSize(uint64(t.TotalBytes())))
	}
	return tw.Flush()
}
