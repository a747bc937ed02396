package compute

import (
	"runtime"
	"strings"
	"testing"
)

func TestDetectFeatures(t *testing.T) {
	f := DetectFeatures()
	if f.Architecture != runtime.GOARCH {
		t.Errorf("expected architecture %s, got %s", runtime.GOARCH, f.Architecture)
	}
	if f.NumCPU < 1 {
		t.Errorf("expected at least one cpu, got %d", f.NumCPU)
	}
	if !strings.HasPrefix(f.String(), runtime.GOARCH+" [") {
		t.Errorf("unexpected description %q", f.String())
	}
}

func TestFeaturesString(t *testing.T) {
	f := Features{Architecture: "amd64", HasSSE2: true, HasAVX2: true}
	if got := f.String(); got != "amd64 [sse2 avx2]" {
		t.Errorf("got %q", got)
	}
}

func TestWorkers(t *testing.T) {
	tests := []struct {
		jobs int
		want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{1 << 20, runtime.NumCPU()},
	}
	for _, tt := range tests {
		if got := Workers(tt.jobs); got != tt.want {
			t.Errorf("Workers(%d) = %d, want %d", tt.jobs, got, tt.want)
		}
	}
}
