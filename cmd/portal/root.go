package portal

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trancendos/secrets-portal/internal/audit"
	"github.com/trancendos/secrets-portal/internal/config"
	"github.com/trancendos/secrets-portal/internal/logging"
)

const defaultRepo = "Trancendos/secrets-portal"

var (
	flagToken     string
	flagRepo      string
	flagAPIURL    string
	flagLogLevel  string
	flagNoColor   bool
	flagAuditFile string

	version = "0.1.0"
)

// Per-invocation state filled in by setup.
var (
	gcfg     config.FileConfig
	lcfg     config.FileConfig
	noColor  bool
	auditLog = audit.New("")
)

// rootCmd is the base Cobra command for the secrets-portal CLI.
var rootCmd = &cobra.Command{
	Use:               "secrets-portal",
	Short:             "Manage GitHub Actions secrets and extract credentials from files",
	Long:              "secrets-portal lists, creates and deletes repository secrets, syncs secret names between repositories, keeps an audit trail and extracts likely credentials from text files.",
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the secrets-portal CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ExecuteExtract runs the extraction command on its own, as the
// extract-secrets binary does.
func ExecuteExtract() {
	cmd := newExtractCmd()
	cmd.Use = "extract-secrets"
	cmd.Version = version
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.PersistentPreRunE = setup
	addGlobalFlags(cmd)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌ Error extracting secrets:", err)
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "GitHub token (default $GITHUB_TOKEN, then $GH_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&flagRepo, "repo", "r", "", "repository as owner/name (default from config or git origin)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "GitHub API base URL (GitHub Enterprise)")
}

// addGlobalFlags registers the flags every entry point shares.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error (default info)")
	cmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	cmd.PersistentFlags().StringVar(&flagAuditFile, "audit-file", "", "audit log path (default under the user config dir)")
}

// setup loads configuration, configures logging and opens the audit log.
func setup(cmd *cobra.Command, _ []string) error {
	gcfg, lcfg = config.FileConfig{}, config.FileConfig{}
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if wd, err := os.Getwd(); err == nil {
		if c, err := config.LoadLocal(wd); err == nil {
			lcfg = c
		}
	}

	noColor = pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) || !isTerminal(os.Stdout)
	logNoColor := noColor || !isTerminal(os.Stderr)
	if err := logging.Setup(cmd.ErrOrStderr(), pickString(flagLogLevel, lcfg.LogLevel, gcfg.LogLevel), logNoColor); err != nil {
		return err
	}

	path := pickString(flagAuditFile, lcfg.AuditFile, gcfg.AuditFile)
	if path == "" {
		path = audit.DefaultPath()
	}
	l, err := audit.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not load audit history, continuing in memory")
		l = audit.New("")
	}
	auditLog = l
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
