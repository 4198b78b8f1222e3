package portal

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/detectors"
)

func init() {
	var showRegex bool
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the extraction patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			header := []string{"Name", "Category", "Confidence"}
			if showRegex {
				header = append(header, "Pattern")
			}
			table.Header(header)
			for _, r := range detectors.Rules() {
				row := []string{r.Name, r.Key, strconv.FormatFloat(r.Confidence, 'f', -1, 64)}
				if showRegex {
					row = append(row, r.Pattern())
				}
				if err := table.Append(row); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&showRegex, "regex", false, "include the regular expression of each pattern")
	rootCmd.AddCommand(cmd)
}
