package cli

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/pkg/store"
)

func TestCompleteFiles(t *testing.T) {
	tests := []struct {
		name      string
		fn        cobra.CompletionFunc
		args      []string
		want      []string
		directive cobra.ShellCompDirective
	}{
		{"manifest", completeManifest, nil, []string{"json", "toml", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt},
		{"manifest given", completeManifest, []string{"band.toml"}, nil, cobra.ShellCompDirectiveNoFileComp},
		{"snapshot", completeSnapshotFile, nil, []string{"json"}, cobra.ShellCompDirectiveFilterFileExt},
		{"snapshot given", completeSnapshotFile, []string{"band.snapshot.json"}, nil, cobra.ShellCompDirectiveNoFileComp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, directive := tt.fn(&cobra.Command{}, tt.args, "")
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if directive != tt.directive {
				t.Errorf("directive = %v, want %v", directive, tt.directive)
			}
		})
	}
}

func TestCompleteSnapshotIDs(t *testing.T) {
	dir := sandbox(t)
	st, err := store.NewDirStore(filepath.Join(dir, "data", appName, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}
	const (
		gig       = "a1000000-0000-4000-8000-000000000001"
		rehearsal = "a2000000-0000-4000-8000-000000000002"
		tour      = "b1000000-0000-4000-8000-000000000003"
	)
	ctx := context.Background()
	for _, rec := range []store.Record{
		{ID: gig, Name: "gig", CreatedAt: time.Unix(100, 0)},
		{ID: rehearsal, Name: "rehearsal", CreatedAt: time.Unix(200, 0)},
		{ID: tour, Name: "tour", CreatedAt: time.Unix(300, 0)},
	} {
		if _, err := st.Save(ctx, &rec); err != nil {
			t.Fatal(err)
		}
	}

	c := New(io.Discard, LogInfo)
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	tests := []struct {
		name   string
		fn     cobra.CompletionFunc
		args   []string
		prefix string
		want   []string
	}{
		{"prefix", c.completeSnapshotIDs, nil, "a", []string{rehearsal + "\trehearsal", gig + "\tgig"}},
		{"skips given", c.completeSnapshotIDs, []string{rehearsal}, "a", []string{gig + "\tgig"}},
		{"no match", c.completeSnapshotIDs, nil, "z", nil},
		{"single", c.completeSnapshotID, nil, "b", []string{tour + "\ttour"}},
		{"single given", c.completeSnapshotID, []string{tour}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, directive := tt.fn(cmd, tt.args, tt.prefix)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if directive != cobra.ShellCompDirectiveNoFileComp {
				t.Errorf("directive = %v, want NoFileComp", directive)
			}
		})
	}
}

func TestSnapshotIDCompletions(t *testing.T) {
	infos := []store.Info{{ID: "x1", Name: "one"}, {ID: "x2", Name: "two"}}
	got := snapshotIDCompletions(infos, []string{"x1"}, "x")
	if want := []string{"x2\ttwo"}; !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}
