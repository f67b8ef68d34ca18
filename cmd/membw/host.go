package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/membw/pkg/membw/hostinfo"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Show host information",
	Long: `Display the CPU model, total RAM and CPU features without running the benchmark.

Use -o json or -o yaml for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runHost,
}

func init() {
	rootCmd.AddCommand(hostCmd)
}

// runHost prints the detected host information.
func runHost(cmd *cobra.Command, _ []string) error {
	info := hostinfo.Detect(hostinfo.Default())
	w := cmd.OutOrStdout()

	switch format := viper.GetString("output"); format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(info); err != nil {
			return err
		}
		return encoder.Close()
	default:
		fmt.Fprintf(w, "CPU:        %s\n", info.CPUName)
		fmt.Fprintf(w, "Total RAM:  %d MB (%s)\n", info.TotalRAMMB, types.FormatSize(info.TotalRAMBytes()))
		fmt.Fprintf(w, "CPUs:       %d\n", info.LogicalCPUs)
		fmt.Fprintf(w, "Platform:   %s/%s\n", info.OS, info.Arch)
		features := "(none detected)"
		if len(info.Features) > 0 {
			features = strings.Join(info.Features, " ")
		}
		fmt.Fprintf(w, "Features:   %s\n", features)
		return nil
	}
}
