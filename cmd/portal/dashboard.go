package portal

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trancendos/secrets-portal/internal/cache"
	"github.com/trancendos/secrets-portal/internal/tui"
	"github.com/trancendos/secrets-portal/internal/types"
)

func init() {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Browse and manage secrets in an interactive terminal UI",
		Args:    cobra.NoArgs,
		RunE:    runDashboard,
	}
	rootCmd.AddCommand(cmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	repo, err := resolveRepo()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}

	opts := tui.Options{
		Context: cmd.Context(),
		Repo:    repo,
		Audit:   auditLog,
	}
	if u, err := client.CurrentUser(cmd.Context()); err == nil {
		opts.Actor = u.Login
	} else {
		log.Debug().Err(err).Msg("Could not resolve current user")
	}

	dir := cache.Dir()
	if dir != "" {
		if l, err := cache.LoadListing(dir, repo.String()); err == nil {
			opts.Cached = l.Secrets
			opts.CachedAt = l.Timestamp
		}
		opts.OnListed = func(secrets []types.Secret) {
			if err := cache.SaveListing(dir, repo.String(), secrets); err != nil {
				log.Debug().Err(err).Msg("Could not cache secrets listing")
			}
		}
	}
	return tui.Run(client, opts)
}
