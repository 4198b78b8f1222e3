package portal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/cache"
	"github.com/trancendos/secrets-portal/internal/report"
	"github.com/trancendos/secrets-portal/internal/types"
	"github.com/trancendos/secrets-portal/internal/validate"
)

var (
	flagListCached bool
	flagListJSON   bool
	flagValue      string
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all secrets in the repository",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	listCmd.Flags().BoolVar(&flagListCached, "cached", false, "show the last saved listing without calling GitHub")
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(listCmd)

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new secret",
		Long: "Request creation of a repository secret. The value is sent to the repository's\n" +
			"create-secret workflow through repository_dispatch; omit --value to be prompted.",
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}
	createCmd.Flags().StringVarP(&flagValue, "value", "v", "", "secret value (prompted for when omitted)")
	rootCmd.AddCommand(createCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	rootCmd.AddCommand(deleteCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	repo, err := resolveRepo()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	dir := cache.Dir()

	if flagListCached {
		l, err := cache.LoadListing(dir, repo.String())
		if err != nil {
			return fmt.Errorf("no cached listing for %s: %w", repo, err)
		}
		if flagListJSON {
			return writeJSON(out, l.Secrets)
		}
		fmt.Fprintf(out, "Cached listing from %s\n", l.Timestamp.Format("2006-01-02 15:04:05"))
		return report.PrintSecrets(out, repo.String(), l.Secrets, report.PrintOptions{NoColor: noColor})
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	secrets, err := client.ListSecrets(cmd.Context(), repo)
	record(audit.ActionList, repo.String(), "", err, "")
	if err != nil {
		return fmt.Errorf("error listing secrets: %w", err)
	}

	var added, removed []string
	if prev, err := cache.LoadListing(dir, repo.String()); err == nil {
		added, removed = cache.Changes(prev.Secrets, secrets)
	}
	if dir != "" {
		if err := cache.SaveListing(dir, repo.String(), secrets); err != nil {
			log.Warn().Err(err).Msg("Could not cache secrets listing")
		}
	}

	if flagListJSON {
		return writeJSON(out, secrets)
	}
	fmt.Fprintf(out, "\n🔐 Secrets in %s:\n\n", repo)
	if err := report.PrintSecrets(out, repo.String(), secrets, report.PrintOptions{NoColor: noColor}); err != nil {
		return err
	}
	for _, n := range added {
		fmt.Fprintf(out, "+ %s (new since last listing)\n", n)
	}
	for _, n := range removed {
		fmt.Fprintf(out, "- %s (removed since last listing)\n", n)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := validate.SecretName(name); err != nil {
		return err
	}
	repo, err := resolveRepo()
	if err != nil {
		return err
	}
	value := flagValue
	if value == "" {
		if value, err = promptValue(cmd); err != nil {
			return err
		}
	}
	if err := validate.SecretValue(value); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	status, err := client.RequestSecret(cmd.Context(), repo, name, value)
	record(audit.ActionCreate, repo.String(), name, err, "")
	if err != nil {
		return fmt.Errorf("error creating secret: %w", err)
	}
	log.Debug().Str("secret", name).Str("status", status).Msg("Creation dispatched")
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Secret %s created successfully!\n", name)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := validate.SecretName(name); err != nil {
		return err
	}
	repo, err := resolveRepo()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	_, err = client.DeleteSecret(cmd.Context(), repo, name)
	record(audit.ActionDelete, repo.String(), name, err, "")
	if err != nil {
		return fmt.Errorf("error deleting secret: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Secret %s deleted successfully!\n", name)
	return nil
}

// promptValue reads the secret value without echo on a terminal, or the
// first line of stdin otherwise.
func promptValue(cmd *cobra.Command) (string, error) {
	if cmd.InOrStdin() == os.Stdin && isTerminal(os.Stdin) {
		fmt.Fprint(cmd.ErrOrStderr(), "Secret value: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read secret value: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret value: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeJSON(w io.Writer, v any) error {
	if s, ok := v.([]types.Secret); ok && s == nil {
		v = []types.Secret{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
