package cli

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comboom/pkg/store"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for comboom.

Besides commands and flags, the scripts complete manifest files for run,
settle and serve, snapshot files for render and import, and saved snapshot
ids for the snapshots subcommands.

Bash:
  $ source <(comboom completion bash)

Zsh:
  $ comboom completion zsh > "${fpath[1]}/_comboom"

Fish:
  $ comboom completion fish > ~/.config/fish/completions/comboom.fish

PowerShell:
  PS> comboom completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// =============================================================================
// Argument Completion
// =============================================================================

// manifestExts are the manifest formats combo.ReadManifestFile accepts.
var manifestExts = []string{"json", "toml", "yaml", "yml"}

// completeManifest offers manifest files for the first argument.
func completeManifest(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return manifestExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeSnapshotFile offers JSON snapshot files for the first argument.
func completeSnapshotFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeSnapshotID offers one saved snapshot id.
func (c *CLI) completeSnapshotID(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return c.completeSnapshotIDs(cmd, args, toComplete)
}

// completeSnapshotIDs offers saved snapshot ids not already on the command
// line, described by their names.
func (c *CLI) completeSnapshotIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var infos []store.Info
	err := c.withStore(ctx, func(st store.Store) error {
		var err error
		infos, err = st.List(ctx)
		return err
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return snapshotIDCompletions(infos, args, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// snapshotIDCompletions formats "id<TAB>name" candidates matching prefix.
func snapshotIDCompletions(infos []store.Info, taken []string, prefix string) []string {
	var out []string
	for _, info := range infos {
		if !strings.HasPrefix(info.ID, prefix) || slices.Contains(taken, info.ID) {
			continue
		}
		out = append(out, info.ID+"\t"+info.Name)
	}
	return out
}
