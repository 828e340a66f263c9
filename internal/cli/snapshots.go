package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/store"
)

// snapshotsCommand creates the snapshot store management command.
func (c *CLI) snapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snap"},
		Short:   "Manage saved snapshots",
		Long: `Manage saved snapshots.

Snapshots are kept in ~/.local/share/comboom/snapshots unless the config file
points [store] at another directory or at MongoDB.`,
	}

	cmd.AddCommand(c.snapshotsListCommand())
	cmd.AddCommand(c.snapshotsShowCommand())
	cmd.AddCommand(c.snapshotsImportCommand())
	cmd.AddCommand(c.snapshotsExportCommand())
	cmd.AddCommand(c.snapshotsDeleteCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.newStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close(ctx)
	return fn(st)
}

func (c *CLI) snapshotsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				infos, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					printInfo("No snapshots saved")
					printNextStep("Save one", appName+" settle band.toml --save")
					return nil
				}
				fmt.Println(snapshotTable(infos, time.Now()))
				return nil
			})
		},
	}
}

func (c *CLI) snapshotsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show [id]",
		Short:             "Show a saved snapshot",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSnapshotID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := st.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRecord(rec)
				return nil
			})
		},
	}
}

func (c *CLI) snapshotsImportCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:               "import [snapshot.json]",
		Short:             "Save a snapshot file to the store",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSnapshotFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := layout.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				id, err := st.Save(cmd.Context(), &store.Record{
					Name:     snapshotName(name, args[0]),
					Snapshot: snap,
				})
				if err != nil {
					return err
				}
				printSuccess("Imported %s", args[0])
				printKeyValue("ID", StyleHighlight.Render(id))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "snapshot name (default file name)")
	return cmd
}

func (c *CLI) snapshotsExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:               "export [id]",
		Short:             "Write a saved snapshot to a file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSnapshotID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := st.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = rec.ID + ".snapshot.json"
				}
				if err := layout.WriteSnapshotFile(rec.Snapshot, path); err != nil {
					return err
				}
				printSuccess("Exported %s", rec.Name)
				printFile(path)
				printNextStep("Render it", fmt.Sprintf("%s render %s", appName, path))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <id>.snapshot.json)")
	return cmd
}

func (c *CLI) snapshotsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete [id]...",
		Aliases:           []string{"rm"},
		Short:             "Delete saved snapshots",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeSnapshotIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

// =============================================================================
// Display
// =============================================================================

// snapshotTable lays infos out as a table, newest first as the store
// returns them.
func snapshotTable(infos []store.Info, now time.Time) string {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{
			info.ID,
			info.Name,
			strconv.Itoa(info.Members),
			strconv.Itoa(info.Clusters),
			formatRelativeTime(info.CreatedAt, now),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Members", "Clusters", "Saved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func printRecord(rec *store.Record) {
	snap := rec.Snapshot
	fmt.Println(StyleTitle.Render(rec.Name))
	printKeyValue("ID", rec.ID)
	printKeyValue("Saved", rec.CreatedAt.Local().Format(time.DateTime))
	if rec.ManifestHash != "" {
		printKeyValue("Manifest", rec.ManifestHash[:min(12, len(rec.ManifestHash))])
	}
	printKeyValue("Phase", phaseLabel(snap.Tick, snap.Settled))
	printStats(len(snap.Members), len(snap.Clusters), len(snap.Edges), false)
	printNewline()
	printClusters(snap.Clusters)
}

// formatRelativeTime renders t relative to now for recent times.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
