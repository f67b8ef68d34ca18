//go:build stave

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
)

// Default target when running `stave` with no arguments.
var Default = Build

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"q": Quick,
	"i": Install,
}

const (
	binaryName = "membw"
	mainPkg    = "./cmd/membw"
	versionPkg = "github.com/jamesainslie/membw/cmd/membw"
	binDir     = "bin"
)

// All lints, tests and builds.
func All() error {
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Build compiles bin/membw with version information.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	return sh.RunV("go", "build", "-trimpath", "-ldflags", ldflags(), "-o", builtBinary(), mainPkg)
}

// Install copies bin/membw into GOBIN (or GOPATH/bin).
func Install() error {
	st.Deps(Build)

	dir, err := installDir()
	if err != nil {
		return err
	}
	dst := filepath.Join(dir, exe(binaryName))
	if st.Verbose() {
		fmt.Printf("Installing %s\n", dst)
	}
	return sh.Copy(dst, builtBinary())
}

// Uninstall removes an installed membw.
func Uninstall() error {
	dir, err := installDir()
	if err != nil {
		return err
	}
	target := filepath.Join(dir, exe(binaryName))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", target, err)
	}
	return nil
}

// Test runs all tests with race detection and coverage.
func Test() error {
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort runs the tests in short mode, skipping the repeatability check.
func TestShort() error {
	return sh.RunV("go", "test", "-short", "-cover", "./...")
}

// Quick runs every tier with a tenth of the iterations and prints the
// plain report.
func Quick() error {
	st.Deps(Build)
	return sh.RunV(builtBinary(), "--scale", "0.1", "--settle", "100ms", "-o", "plain")
}

// Report writes a full run as JSON to bin/report-<host>.json for comparing
// machines.
func Report() error {
	st.Deps(Build)

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	out, err := sh.Output(builtBinary(), "-q", "-o", "json")
	if err != nil {
		return fmt.Errorf("running benchmark: %w", err)
	}
	path := filepath.Join(binDir, "report-"+host+".json")
	if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Println(path)
	return nil
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes bin/.
func Clean() error {
	return sh.Rm(binDir)
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

func exe(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func builtBinary() string {
	return filepath.Join(binDir, exe(binaryName))
}

func installDir() (string, error) {
	gocmd := st.GoCmd()
	if dir, err := sh.Output(gocmd, "env", "GOBIN"); err != nil {
		return "", fmt.Errorf("reading GOBIN: %w", err)
	} else if dir != "" {
		return dir, nil
	}

	gopath, err := sh.Output(gocmd, "env", "GOPATH")
	if err != nil {
		return "", fmt.Errorf("reading GOPATH: %w", err)
	}
	if gopath == "" {
		return "/usr/local/bin", nil
	}
	return filepath.Join(strings.SplitN(gopath, string(os.PathListSeparator), 2)[0], "bin"), nil
}

// ldflags stamps version, commit and build date into cmd/membw.
func ldflags() string {
	version, commit := "dev", "unknown"
	if v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && v != "" {
		version = strings.TrimSpace(v)
	}
	if c, err := sh.Output("git", "rev-parse", "--short", "HEAD"); err == nil && c != "" {
		commit = strings.TrimSpace(c)
	}

	flags := []string{"-s", "-w"}
	for k, v := range map[string]string{
		"version": version,
		"commit":  commit,
		"date":    time.Now().UTC().Format(time.RFC3339),
	} {
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", versionPkg, k, v))
	}
	return strings.Join(flags, " ")
}
