package cli

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/comboom/internal/config"
	"github.com/matzehuels/comboom/pkg/cache"
	"github.com/matzehuels/comboom/pkg/render"
	"github.com/matzehuels/comboom/pkg/store"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []render.Format
		dot     bool
		wantErr bool
	}{
		{"", []render.Format{render.FormatSVG}, false, false},
		{"svg", []render.Format{render.FormatSVG}, false, false},
		{"svg,png", []render.Format{render.FormatSVG, render.FormatPNG}, false, false},
		{"PDF, dot", []render.Format{render.FormatPDF}, true, false},
		{"dot", nil, true, false},
		{"svg,gif", nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, dot, err := parseFormats(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormats(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) || dot != tt.dot {
				t.Errorf("parseFormats(%q) = %v, %v; want %v, %v", tt.in, got, dot, tt.want, tt.dot)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, ext string
		single             bool
		want               string
	}{
		{"band.toml", "", "snapshot.json", true, "band.snapshot.json"},
		{"band.toml", "out/x.json", "snapshot.json", true, "out/x.json"},
		{"band.snapshot.json", "", "svg", false, "band.svg"},
		{"band.snapshot.json", "", "png", true, "band.png"},
		{"band.snapshot.json", "shots/pic.svg", "svg", true, "shots/pic.svg"},
		{"band.snapshot.json", "shots/pic.svg", "pdf", false, "shots/pic.pdf"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.ext, tt.single); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q", tt.input, tt.output, tt.ext, tt.single, got, tt.want)
		}
	}
}

func TestSnapshotName(t *testing.T) {
	if got := snapshotName("", "dir/band.toml"); got != "band" {
		t.Errorf("snapshotName default = %q, want band", got)
	}
	if got := snapshotName("gig", "dir/band.toml"); got != "gig" {
		t.Errorf("snapshotName explicit = %q, want gig", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 8, 2026"},
	}

	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestSnapshotTable(t *testing.T) {
	now := time.Now()
	out := snapshotTable([]store.Info{
		{ID: "a1", Name: "gig", CreatedAt: now, Members: 4, Clusters: 2},
		{ID: "b2", Name: "rehearsal", CreatedAt: now.Add(-2 * time.Hour), Members: 7, Clusters: 3},
	}, now)

	for _, want := range []string{"ID", "gig", "rehearsal", "2h ago", "just now"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestNewKeyer(t *testing.T) {
	opts := cache.RenderKeyOpts{Format: "svg"}

	plain := newKeyer(config.Cache{}).RenderKey("s1", opts)
	if !strings.HasPrefix(plain, "render:") {
		t.Errorf("unscoped key = %q, want render: prefix", plain)
	}

	scoped := newKeyer(config.Cache{Prefix: "studio:"}).RenderKey("s1", opts)
	if scoped != "studio:"+plain {
		t.Errorf("scoped key = %q, want %q", scoped, "studio:"+plain)
	}
}
