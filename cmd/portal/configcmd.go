package portal

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/config"
)

var (
	cfgOutput string
	cfgForce  bool
	cfgGlobal bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .secrets-portal.yml",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&cfgGlobal, "global", false, "write the global config instead of a repo-local one")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := cfgOutput
	if cfgGlobal {
		path = config.GlobalPath()
		if path == "" {
			return errors.New("cannot determine the user config directory")
		}
	}
	if err := config.WriteStarter(path, cfgForce); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
	return nil
}
