package portal

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/detectors"
	"github.com/trancendos/secrets-portal/internal/report"
	"github.com/trancendos/secrets-portal/internal/types"
)

func init() {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "test-pattern <name>",
		Short: "Run a single pattern against provided text (stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, ok := detectors.Lookup(name); !ok {
				return fmt.Errorf("unknown pattern: %s (available: %s)", name, strings.Join(detectors.Names(), ", "))
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			found, _ := detectors.RunRule(name, string(data))
			key := detectors.CategoryKey(name)
			res := types.NewResult(key)
			for _, c := range found {
				res.Add(key, c)
			}
			return report.PrintCandidates(cmd.OutOrStdout(), res, report.PrintOptions{NoColor: noColor, Reveal: reveal})
		},
	}
	cmd.Long = "Available patterns: " + strings.Join(detectors.Names(), ", ")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print matched values unmasked")
	rootCmd.AddCommand(cmd)
}
