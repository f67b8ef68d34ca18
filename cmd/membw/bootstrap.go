package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/membw/pkg/membw/config"
	"github.com/jamesainslie/membw/pkg/membw/logging"
)

// initializeLogging is the PersistentPreRunE hook. It surfaces config file
// errors and starts the file logger; --verbose adds a debug console logger.
// A log file that cannot be opened disables logging rather than the command.
func initializeLogging(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		// config init and config path must work before the file exists.
		if cmd != configInitCmd && cmd != configPathCmd {
			return configErr
		}
		printVerbose("ignoring config error: %v", configErr)
	}

	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}

	logCfg, err := cfg.LoggingOptions()
	if err != nil {
		return err
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		printVerbose("logging disabled: %v", err)
		return nil
	}

	logging.Get("cli").Debug("logging initialized",
		"path", logCfg.Path,
		"level", logCfg.Level,
		"config", viper.ConfigFileUsed())

	return nil
}
