package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/comboom/internal/config"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/store"
)

const bandTOML = `
[[combos]]
name = "Jazz"
color = "#e4572e"
members = ["ann", "bob", "cleo"]

[[combos]]
name = "Duo"
color = "#29335c"
members = ["bob", "dave"]
`

// sandbox points every XDG directory into a temp dir.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSettleRenderCommands(t *testing.T) {
	dir := sandbox(t)
	manifest := filepath.Join(dir, "band.toml")
	if err := os.WriteFile(manifest, []byte(bandTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "settle", manifest, "--seed", "7", "-n", "40", "-f", "svg,dot", "--save", "--name", "gig"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	snapPath := filepath.Join(dir, "band.snapshot.json")
	snap, err := layout.ReadSnapshotFile(snapPath)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(snap.Members) != 4 || snap.Tick != 40 {
		t.Errorf("snapshot has %d members at tick %d", len(snap.Members), snap.Tick)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "band.svg"))
	if err != nil || !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("band.svg: %v", err)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "band.dot"))
	if err != nil || !bytes.HasPrefix(dot, []byte("graph G {")) {
		t.Errorf("band.dot: %v", err)
	}

	st, err := store.NewDirStore(filepath.Join(dir, "data", appName, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}
	infos, err := st.List(context.Background())
	if err != nil || len(infos) != 1 || infos[0].Name != "gig" {
		t.Fatalf("stored snapshots = %+v, %v", infos, err)
	}

	out := filepath.Join(dir, "shots", "again.svg")
	if _, err := execute(t, "render", snapPath, "-o", out, "--labels=false"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("render output: %v", err)
	}

	exported := filepath.Join(dir, "exported.json")
	if _, err := execute(t, "snapshots", "export", infos[0].ID, "-o", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	back, err := layout.ReadSnapshotFile(exported)
	if err != nil || len(back.Members) != 4 {
		t.Errorf("exported snapshot: %v", err)
	}

	if _, err := execute(t, "snapshots", "delete", infos[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "snapshots", "show", infos[0].ID); err == nil {
		t.Error("show after delete succeeded")
	}
}

func TestSettleRejectsBadInput(t *testing.T) {
	dir := sandbox(t)
	manifest := filepath.Join(dir, "band.toml")
	if err := os.WriteFile(manifest, []byte(bandTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing manifest", []string{"settle", filepath.Join(dir, "nope.toml")}},
		{"bad format", []string{"settle", manifest, "-f", "gif"}},
		{"negative frames", []string{"settle", manifest, "--frames=-5"}},
		{"no args", []string{"settle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	dir := sandbox(t)
	path := filepath.Join(dir, "comboom.toml")

	if _, err := execute(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("written config differs from defaults: %+v", cfg)
	}

	out, err := execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "[layout]") {
		t.Errorf("show output missing [layout]:\n%s", out)
	}

	out, err = execute(t, "config", "path")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if want := filepath.Join(dir, "config", appName, "config.toml"); strings.TrimSpace(out) != want {
		t.Errorf("path = %q, want %q", out, want)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"run", "settle", "render", "serve", "snapshots", "cache", "config", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
