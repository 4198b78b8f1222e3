package portal

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the GitHub account the token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			u, err := client.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), u)
			}
			if u.Name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Login, u.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Login)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(cmd)
}
