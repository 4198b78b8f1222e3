package portal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/gh"
	"github.com/trancendos/secrets-portal/internal/syncer"
)

var (
	flagSyncSource string
	flagSyncTarget string
	flagSyncFilter string
	flagSyncMatch  string
	flagSyncReport string
)

func init() {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync secret names from one repository to another",
		Long: "List the secrets of the source repository, select them by --filter (regular expression)\n" +
			"and/or --match (glob), and write a sync report. Secret values cannot be read back from\n" +
			"GitHub, so each selected secret must be re-created in the target.",
		Args: cobra.NoArgs,
		RunE: runSync,
	}
	cmd.Flags().StringVar(&flagSyncSource, "source", "", "source repository (default "+syncer.DefaultSource+")")
	cmd.Flags().StringVar(&flagSyncTarget, "target", "", "target repository (default "+syncer.DefaultTarget+")")
	cmd.Flags().StringVar(&flagSyncFilter, "filter", "", "regular expression secret names must contain")
	cmd.Flags().StringVar(&flagSyncMatch, "match", "", "glob secret names must match, e.g. AWS_*")
	cmd.Flags().StringVar(&flagSyncReport, "report", syncer.ReportFile, "where to write the sync report")
	rootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	lsync, gsync := lcfg.SyncOrEmpty(), gcfg.SyncOrEmpty()
	source, err := gh.ParseRepo(orDefault(pickString(flagSyncSource, lsync.Source, gsync.Source), syncer.DefaultSource))
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	target, err := gh.ParseRepo(orDefault(pickString(flagSyncTarget, lsync.Target, gsync.Target), syncer.DefaultTarget))
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	r, err := syncer.Run(cmd.Context(), client, syncer.Options{
		Source: source,
		Target: target,
		Filter: pickString(flagSyncFilter, lsync.Filter, gsync.Filter),
		Match:  pickString(flagSyncMatch, lsync.Match, gsync.Match),
	})
	if err != nil {
		record(audit.ActionSync, target.String(), "", err, "from "+source.String())
		return fmt.Errorf("sync failed: %w", err)
	}
	if err := syncer.WriteReport(flagSyncReport, r); err != nil {
		record(audit.ActionSync, target.String(), "", err, "from "+source.String())
		return err
	}
	record(audit.ActionSync, target.String(), "", nil,
		fmt.Sprintf("from %s: %d synced, %d failed (filter %s)", source, r.Synced, r.Failed, r.Filter))

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Sync completed: %d synced, %d failed\n", r.Synced, r.Failed)
	fmt.Fprintf(cmd.OutOrStdout(), "📄 Report written to %s\n", flagSyncReport)
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
