package cli

import (
	"strings"
	"testing"
)

func TestStatsLine(t *testing.T) {
	tests := []struct {
		members, clusters, relations int
		want                         string
	}{
		{4, 2, 4, "4 members · 2 clusters · 4 relations"},
		{1, 1, 0, "1 member · 1 cluster"},
		{2, 1, 1, "2 members · 1 cluster · 1 relation"},
	}
	for _, tt := range tests {
		if got := statsLine(tt.members, tt.clusters, tt.relations); got != tt.want {
			t.Errorf("statsLine(%d, %d, %d) = %q, want %q", tt.members, tt.clusters, tt.relations, got, tt.want)
		}
	}
}

func TestPhaseLabel(t *testing.T) {
	tests := []struct {
		name    string
		ticks   int
		settled bool
		want    string
	}{
		{"start", 0, false, "settling, frame 0"},
		{"running", 42, false, "settling, frame 42"},
		{"settled", -100_000_000, true, "settled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := phaseLabel(tt.ticks, tt.settled)
			if !strings.Contains(got, tt.want) {
				t.Errorf("phaseLabel = %q, want %q", got, tt.want)
			}
			if tt.settled && strings.Contains(got, "frame") {
				t.Errorf("settled label leaks the sentinel: %q", got)
			}
		})
	}
}

func TestCacheLabel(t *testing.T) {
	if got := cacheLabel(true); !strings.Contains(got, "cached") {
		t.Errorf("cacheLabel(true) = %q", got)
	}
	if got := cacheLabel(false); !strings.Contains(got, "fresh") {
		t.Errorf("cacheLabel(false) = %q", got)
	}
}
