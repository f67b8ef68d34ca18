package hostinfo

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// cpuNameKeys are the /proc/cpuinfo keys that carry a model string, in order
// of preference. x86 kernels emit "model name"; some ARM kernels only emit
// "Hardware" or "Processor".
var cpuNameKeys = []string{"model name", "Hardware", "Processor"}

// parseCPUInfo returns the CPU model string from /proc/cpuinfo content,
// or an empty string when none of the known keys is present.
func parseCPUInfo(r io.Reader) string {
	found := make(map[string]string, len(cpuNameKeys))

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, seen := found[key]; !seen {
			found[key] = value
		}
		if key == cpuNameKeys[0] {
			break
		}
	}

	for _, key := range cpuNameKeys {
		if v, ok := found[key]; ok {
			return v
		}
	}
	return ""
}

// parseMemInfo returns MemTotal from /proc/meminfo content in MiB,
// or 0 if the line is missing or malformed.
func parseMemInfo(r io.Reader) uint64 {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}
