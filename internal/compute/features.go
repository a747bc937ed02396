package compute

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

type Features struct {
	HasAVX2      bool
	HasAVX512    bool
	HasFMA       bool
	HasSSE2      bool
	HasNEON      bool
	Architecture string
	NumCPU       int
}

func DetectFeatures() Features {
	return Features{
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512F,
		HasFMA:       cpu.X86.HasFMA,
		HasSSE2:      cpu.X86.HasSSE2,
		HasNEON:      cpu.ARM64.HasASIMD,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
	}
}

// String lists the detected extensions, e.g. "amd64 [sse2 avx2 fma]".
func (f Features) String() string {
	var ext []string
	for _, e := range []struct {
		name string
		ok   bool
	}{
		{"sse2", f.HasSSE2},
		{"avx2", f.HasAVX2},
		{"avx512", f.HasAVX512},
		{"fma", f.HasFMA},
		{"neon", f.HasNEON},
	} {
		if e.ok {
			ext = append(ext, e.name)
		}
	}
	return f.Architecture + " [" + strings.Join(ext, " ") + "]"
}

// Workers returns how many goroutines should run jobs independent tasks:
// at most one per CPU and never more than there are jobs. It is at least 1.
func Workers(jobs int) int {
	n := runtime.NumCPU()
	if jobs < n {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}
