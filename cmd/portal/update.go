package portal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/update"
)

func init() {
	var apply bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release and optionally install it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if apply {
				v, err := selfUpdate()
				if err != nil {
					return fmt.Errorf("self-update failed: %w", err)
				}
				fmt.Fprintf(out, "Updated secrets-portal to %s\n", v)
				return nil
			}
			latest, newer, err := update.Check(cmd.Context(), version, update.Options{APIURL: apiURL()})
			if err != nil {
				return err
			}
			switch {
			case newer:
				fmt.Fprintf(out, "secrets-portal %s is available (current %s). Run `secrets-portal update --apply`.\n", latest, version)
			case latest == "":
				fmt.Fprintf(out, "secrets-portal %s (could not determine the latest release)\n", version)
			default:
				fmt.Fprintf(out, "secrets-portal %s is up to date\n", version)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "download and install the latest release")
	rootCmd.AddCommand(cmd)
}
