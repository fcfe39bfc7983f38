package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sabaimran/vox-locus/pkg/cli"
	"github.com/sabaimran/vox-locus/pkg/kv"
	"github.com/sabaimran/vox-locus/pkg/session"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse past recording sessions",
	Long: `Browse the local session catalog.

Every recording is indexed by start time with its artifact directory,
chunk count and final transcript. The catalog lives under ~/.voxlocus/data.`,
}

var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent sessions",
	Long: `List recent sessions, newest first.

With --query the manifests are filtered through a jq expression and
printed in the selected output format.

Examples:
  vox sessions list
  vox sessions list -n 50
  vox sessions list -q '.[] | select(.chunks > 10) | .id'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("limit")
		query, _ := cmd.Flags().GetString("query")

		cat, store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		manifests, err := cat.Recent(cmd.Context(), n)
		if err != nil {
			return err
		}

		if query != "" {
			results, err := cli.QueryJSON(query, manifests)
			if err != nil {
				return err
			}
			return outputResult(results)
		}

		if len(manifests) == 0 {
			fmt.Println("No sessions recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tCHUNKS\tENGINE\tDIR")
		for _, m := range manifests {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				m.ID, m.Started().Format("2006-01-02 15:04:05"), m.Duration, m.Chunks, m.Engine, m.Dir)
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := cat.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputResult(m)
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Remove a session from the catalog",
	Long: `Remove a session from the catalog.

Only the catalog entry is removed; the artifact directory on disk is
left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := cat.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Session %s removed from the catalog", args[0])
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop all but the newest sessions from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")

		cat, store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		dropped, err := cat.Prune(cmd.Context(), keep)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Pruned %d sessions, kept the newest %d", dropped, keep)
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "how many sessions to list")
	sessionsListCmd.Flags().StringP("query", "q", "", "jq expression to filter the manifests")
	sessionsPruneCmd.Flags().Int("keep", 20, "how many sessions to keep")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
}

// openCatalog opens the badger-backed session catalog under the data
// dir. The caller closes the returned store.
func openCatalog() (*session.Catalog, *kv.Badger, error) {
	p, err := cli.NewPaths()
	if err != nil {
		return nil, nil, err
	}
	if err := p.EnsureDataDir(); err != nil {
		return nil, nil, err
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: p.DataPath("catalog")})
	if err != nil {
		return nil, nil, fmt.Errorf("open session catalog: %w", err)
	}
	return session.NewCatalog(store), store, nil
}
