package portal

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/config"
	"github.com/trancendos/secrets-portal/internal/engine"
	"github.com/trancendos/secrets-portal/internal/files"
	"github.com/trancendos/secrets-portal/internal/report"
)

type extractOptions struct {
	file      string
	format    string
	outputDir string
	maxSize   string
	table     bool
	preview   bool
	addIgnore bool
}

func init() {
	rootCmd.AddCommand(newExtractCmd())
}

// newExtractCmd builds the extract command. Each call binds a fresh set of
// flags so the command can also run as a standalone binary.
func newExtractCmd() *cobra.Command {
	o := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract likely secrets from a text file",
		Long: "Scan a text file for API keys, tokens, passwords, private keys, URLs, emails and\n" +
			"environment assignments, and write the candidates to <output-dir>/extracted-secrets.<format>.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.file, "file", "", "input file (default "+engine.DefaultFile+")")
	cmd.Flags().StringVar(&o.format, "format", "", "output format: json|env|yaml|csv (default "+engine.DefaultFormat+")")
	cmd.Flags().StringVar(&o.outputDir, "output-dir", "", "output directory (default "+engine.DefaultOutputDir+")")
	cmd.Flags().StringVar(&o.maxSize, "max-size", "", "refuse inputs larger than this, e.g. 10MB (default unlimited)")
	cmd.Flags().BoolVar(&o.table, "table", false, "print per-category counts as a table")
	cmd.Flags().BoolVar(&o.preview, "preview", false, "print the written output with syntax highlighting")
	cmd.Flags().BoolVar(&o.addIgnore, "add-ignore", false, "add the output directory to .gitignore")
	return cmd
}

func runExtract(cmd *cobra.Command, o *extractOptions) error {
	maxBytes, err := config.ParseSize(pickString(o.maxSize, lcfg.MaxSize, gcfg.MaxSize))
	if err != nil {
		return err
	}
	cfg := engine.Config{
		File:      o.file,
		Format:    pickString(o.format, lcfg.Format, gcfg.Format),
		OutputDir: pickString(o.outputDir, lcfg.OutputDir, gcfg.OutputDir),
		MaxBytes:  maxBytes,
	}

	res, err := engine.Run(cfg)
	if err != nil {
		record(audit.ActionExtract, "", "", err, "")
		return err
	}
	record(audit.ActionExtract, "", "", nil,
		fmt.Sprintf("%s: %d candidates from %d bytes (digest %s)", res.OutputPath, res.Extraction.Total(), res.Bytes, res.Digest))

	out := cmd.OutOrStdout()
	opts := report.PrintOptions{NoColor: noColor}
	report.PrintSummary(out, res.OutputPath, res.Extraction, opts)

	if o.table {
		if err := report.PrintTable(out, res.Extraction, opts); err != nil {
			return err
		}
	}
	if o.preview {
		text := res.Rendered
		if !noColor {
			text = report.Highlight(text, cfg.Format)
		}
		fmt.Fprintln(out, text)
	}
	if o.addIgnore {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir := cfg.OutputDir
		if dir == "" {
			dir = engine.DefaultOutputDir
		}
		pattern := files.GeneratedIgnores(dir)[0]
		if err := files.AppendIgnore(wd, pattern); err != nil {
			log.Warn().Err(err).Msg("Could not update .gitignore")
		} else {
			fmt.Fprintf(out, "Added %s to .gitignore\n", pattern)
		}
	}
	return nil
}
