package pipeline

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/comboom/pkg/cache"
	"github.com/matzehuels/comboom/pkg/combo"
	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
)

func band() combo.Manifest {
	return combo.Manifest{Combos: []combo.ClusterSpec{
		{Name: "Jazz", Color: "#e4572e", Members: []string{"ann", "bob", "cleo"}},
		{Name: "Duo", Color: "#29335c", Members: []string{"bob", "dave"}},
	}}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(fc, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()

	if o.Layout != layout.DefaultConfig() {
		t.Errorf("Layout = %+v, want defaults", o.Layout)
	}
	if o.Frames != DefaultFrames {
		t.Errorf("Frames = %d, want %d", o.Frames, DefaultFrames)
	}
	if got := o.Area.Size(); got.X != 2*DefaultAreaRadius || got.Y != 2*DefaultAreaRadius {
		t.Errorf("Area size = %v", got)
	}
	if !reflect.DeepEqual(o.Formats, []render.Format{render.FormatSVG}) {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Render != render.DefaultOptions() {
		t.Errorf("Render = %+v, want defaults", o.Render)
	}
	if o.Logger == nil {
		t.Error("Logger not set")
	}
}

func TestValidateForSettle(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"defaults", Options{Manifest: band()}, ""},
		{"negative frames", Options{Manifest: band(), Frames: -1}, errs.ErrCodeInvalidInput},
		{"one frame", Options{Manifest: band(), Frames: 1}, ""},
		{"max frames", Options{Manifest: band(), Frames: maxFrames}, ""},
		{"too many frames", Options{Manifest: band(), Frames: maxFrames + 1}, errs.ErrCodeInvalidInput},
		{"empty manifest", Options{}, errs.ErrCodeInvalidManifest},
		{"bad layout", Options{Manifest: band(), Layout: layout.Config{Desired: -1}}, errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForSettle()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestValidateForRender(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"all formats", Options{Formats: []render.Format{render.FormatSVG, render.FormatPNG, render.FormatPDF}}, false},
		{"unknown format", Options{Formats: []render.Format{"gif"}}, true},
		{"width too large", Options{Render: render.Options{Width: 50000}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForRender()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForRender() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettleDeterministic(t *testing.T) {
	ctx := context.Background()
	opts := Options{Manifest: band(), Seed: 7, Frames: 50}

	a, err := Settle(ctx, opts)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	b, err := Settle(ctx, opts)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different snapshots")
	}
	if len(a.Members) != 4 || len(a.Clusters) != 2 {
		t.Errorf("got %d members, %d clusters", len(a.Members), len(a.Clusters))
	}
	for _, m := range a.Members {
		if !m.Pos.IsFinite() {
			t.Errorf("member %s has non-finite position %v", m.Name, m.Pos)
		}
	}
}

func TestSettleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Settle(ctx, Options{Manifest: band(), Seed: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSettleReportsFrames(t *testing.T) {
	var got []int
	opts := Options{
		Manifest: band(),
		Seed:     3,
		Frames:   130,
		OnFrame: func(done, total int) {
			if total != 130 {
				t.Errorf("total = %d, want 130", total)
			}
			got = append(got, done)
		},
	}
	if _, err := Settle(context.Background(), opts); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if want := []int{0, 64, 128, 130}; !slices.Equal(got, want) {
		t.Errorf("reported frames = %v, want %v", got, want)
	}
}

func TestSettleWithCacheInfo(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	opts := Options{Manifest: band(), Seed: 11, Frames: 30}

	first, hit, err := r.SettleWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if hit {
		t.Error("first settle reported a cache hit")
	}

	second, hit, err := r.SettleWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if !hit {
		t.Error("second settle missed the cache")
	}
	if !reflect.DeepEqual(first.Members, second.Members) {
		t.Error("cached snapshot differs from computed one")
	}

	opts.Refresh = true
	if _, hit, err := r.SettleWithCacheInfo(ctx, opts); err != nil || hit {
		t.Errorf("refresh: hit = %v, err = %v", hit, err)
	}

	opts.Refresh = false
	opts.Frames = 31
	if _, hit, _ := r.SettleWithCacheInfo(ctx, opts); hit {
		t.Error("different frame count hit the cache")
	}
}

func TestSettleRandomSeedSkipsCache(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	opts := Options{Manifest: band(), Frames: 5}

	for i := range 2 {
		if _, hit, err := r.SettleWithCacheInfo(ctx, opts); err != nil || hit {
			t.Errorf("run %d: hit = %v, err = %v", i, hit, err)
		}
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	opts := Options{Manifest: band(), Seed: 5, Frames: 20}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	svg := res.Artifacts[render.FormatSVG]
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("artifact is not SVG: %.60q", svg)
	}
	want := Stats{Members: 4, Clusters: 2, Relations: 4, Frames: 20}
	got := res.Stats
	got.SettleTime, got.RenderTime = 0, 0
	if got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
	if res.ManifestHash == "" {
		t.Error("ManifestHash is empty")
	}
	if res.CacheInfo.SettleHit || res.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v", res.CacheInfo)
	}

	res2, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !res2.CacheInfo.SettleHit || !res2.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v", res2.CacheInfo)
	}
	if !bytes.Equal(svg, res2.Artifacts[render.FormatSVG]) {
		t.Error("cached SVG differs")
	}
}

func TestExecuteInvalid(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Manifest: band(), Formats: []render.Format{"gif"}})
	if errs.GetCode(err) != errs.ErrCodeUnsupported {
		t.Errorf("err = %v, want unsupported", err)
	}
}

func TestManifestHash(t *testing.T) {
	a, err := ManifestHash(band())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := ManifestHash(band())
	if a != b {
		t.Error("hash is not stable")
	}

	m := band()
	m.Combos[0].Color = "#000000"
	c, _ := ManifestHash(m)
	if a == c {
		t.Error("hash ignores color")
	}
}
