package portal

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/git"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
	flagIssueDetails string
)

func init() {
	auditCmd := &cobra.Command{Use: "audit", Short: "Audit trail helpers"}
	rootCmd.AddCommand(auditCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded portal actions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runAuditHistory,
	}
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "show at most this many entries (0 = all)")
	historyCmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "emit JSON")
	auditCmd.AddCommand(historyCmd)

	issueCmd := &cobra.Command{
		Use:   "issue <action>",
		Short: "Open a GitHub issue recording an action",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuditIssue,
	}
	issueCmd.Flags().StringVar(&flagIssueDetails, "details", "", "free-form details for the issue body")
	auditCmd.AddCommand(issueCmd)
}

func runAuditHistory(cmd *cobra.Command, _ []string) error {
	entries := auditLog.Entries()
	if flagHistoryLimit > 0 && len(entries) > flagHistoryLimit {
		entries = entries[:flagHistoryLimit]
	}
	out := cmd.OutOrStdout()
	if flagHistoryJSON {
		if entries == nil {
			entries = []audit.Entry{}
		}
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No audit entries")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Time", "Action", "Repo", "Secret", "Status", "Message")
	for _, e := range entries {
		row := []string{
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(e.Action),
			e.Repo,
			e.Secret,
			string(e.Status),
			e.Message,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func runAuditIssue(cmd *cobra.Command, args []string) error {
	action := strings.TrimSpace(args[0])
	if action == "" {
		return fmt.Errorf("action is required")
	}
	repo, err := resolveRepo()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	details := flagIssueDetails
	if wd, err := os.Getwd(); err == nil {
		details = withGitContext(details, wd)
	}
	issue, err := client.CreateAuditIssue(cmd.Context(), repo, action, details)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📝 Created audit issue #%d: %s\n", issue.Number, issue.URL)
	return nil
}

// withGitContext appends the checkout's commit and branch to details when
// root is inside a git repository.
func withGitContext(details, root string) string {
	_, commit, branch := git.RepoMetadata(root)
	if commit == "" {
		return details
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	ref := "commit " + commit
	if branch != "" {
		ref += " on " + branch
	}
	if details == "" {
		return ref
	}
	return details + " (" + ref + ")"
}
