// Package main provides the entry point for the membw memory bandwidth benchmark CLI.
package main

import (
	"os"

	"github.com/jamesainslie/membw/pkg/membw/logging"
)

func main() {
	err := Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}
