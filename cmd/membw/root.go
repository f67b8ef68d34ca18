package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/membw/pkg/membw/config"
)

var (
	cfgFile string

	// configErr holds a config file read failure until a command runs, so
	// cobra can report it with the usual error handling.
	configErr error

	rootCmd = &cobra.Command{
		Use:   "membw",
		Short: "Measure memory-copy bandwidth across cache and RAM working sets",
		Long: `membw copies buffers sized to approximate the L1, L2 and L3 caches and
main memory, times repeated copies, and reports the bandwidth of each tier
together with an overall score and basic host information.

The default pretty report is a styled table for terminals, with one progress
line per tier on stderr. Use -o plain for the canonical text report, one
"<label> Bandwidth: <value> MB/s" line per tier followed by the overall
score and the sink value.

Examples:
  membw                      # Run every configured tier
  membw -t L1,L2             # Run only the L1 and L2 tiers
  membw --scale 0.1          # Quick run with a tenth of the iterations
  membw -o plain             # Canonical text report
  membw -o json > run.json   # Machine-readable report
  membw tiers                # Show the configured tiers
  membw host                 # Show host information only`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeLogging,
		RunE:              runBenchmark,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/membw/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (pretty, plain, json, jsonl, yaml, csv, tsv, markdown, template)")
	rootCmd.PersistentFlags().String("template", "", "Go template for -o template")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().StringSliceP("tiers", "t", nil, "tiers to run by label prefix (e.g., L1,RAM)")
	rootCmd.PersistentFlags().Duration("settle", 0, "pause between tiers (default 500ms)")
	rootCmd.PersistentFlags().Float64("scale", 0, "multiply every tier's iterations (default 1)")
	rootCmd.PersistentFlags().String("max-memory", "", "cap for both buffers of a tier: auto, none or a size")
}

// flagBindings maps viper keys to the flags that override them.
var flagBindings = []struct {
	key  string
	flag string
}{
	{"output", "output"},
	{"template", "template"},
	{"quiet", "quiet"},
	{"verbose", "verbose"},
	{"select", "tiers"},
	{"settle", "settle"},
	{"scale", "scale"},
	{"max_memory", "max-memory"},
}

// bindFlags binds command-line flags to viper keys.
func bindFlags(v *viper.Viper) {
	for _, b := range flagBindings {
		_ = v.BindPFlag(b.key, rootCmd.PersistentFlags().Lookup(b.flag))
	}
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	config.Prepare(v, cfgFile)
	bindFlags(v)
	configErr = config.Read(v)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr if quiet mode is not enabled.
// Reports go to stdout, so status lines never mix into piped output.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
