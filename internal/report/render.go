package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/trancendos/secrets-portal/internal/types"
	"github.com/trancendos/secrets-portal/internal/validate"
)

type PrintOptions struct {
	NoColor bool
	// Reveal prints candidate values unmasked.
	Reveal bool
}

// PrintTable prints one row per category with its candidate count.
func PrintTable(w io.Writer, res *types.Result, opts PrintOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header("Category", "Count")
	for _, k := range res.Keys() {
		if err := table.Append([]string{k, strconv.Itoa(res.Count(k))}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total: %d\n", res.Total())
	return nil
}

// PrintCandidates lists every candidate, masking values unless opts.Reveal.
func PrintCandidates(w io.Writer, res *types.Result, opts PrintOptions) error {
	if res.Total() == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Category", "Name", "Value", "Confidence", "Pattern")
	for _, k := range res.Keys() {
		for _, c := range res.Get(k) {
			v := c.Value
			if !opts.Reveal {
				v = validate.Mask(v)
			}
			row := []string{k, c.Name, v, strconv.FormatFloat(c.Confidence, 'f', -1, 64), c.Pattern}
			if err := table.Append(row); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

// PrintSecrets prints repository secret metadata.
func PrintSecrets(w io.Writer, repo string, secrets []types.Secret, opts PrintOptions) error {
	if len(secrets) == 0 {
		fmt.Fprintf(w, "No secrets in %s\n", repo)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Created", "Updated")
	for _, s := range secrets {
		row := []string{s.Name, formatTime(s.CreatedAt), formatTime(s.UpdatedAt)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d secret(s)\n", repo, len(secrets))
	return nil
}
