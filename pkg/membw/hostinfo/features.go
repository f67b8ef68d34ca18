package hostinfo

import (
	"golang.org/x/sys/cpu"
)

// Features returns the CPU features that influence copy throughput.
// The list is empty on architectures x/sys/cpu does not describe.
func Features() []string {
	flags := []struct {
		name    string
		present bool
	}{
		{"sse2", cpu.X86.HasSSE2},
		{"sse4.1", cpu.X86.HasSSE41},
		{"avx", cpu.X86.HasAVX},
		{"avx2", cpu.X86.HasAVX2},
		{"avx512f", cpu.X86.HasAVX512F},
		{"erms", cpu.X86.HasERMS},
		{"asimd", cpu.ARM64.HasASIMD},
		{"sve", cpu.ARM64.HasSVE},
	}

	var features []string
	for _, f := range flags {
		if f.present {
			features = append(features, f.name)
		}
	}
	return features
}
