package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/savebridge/internal/platform/httpclient"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			// No session or local database needed
			p := httpclient.New(cfg.ServerURL, "", newLogger(cmd.ErrOrStderr()))

			status, err := p.Health(cmd.Context())
			if err != nil {
				return err
			}

			output(cmd).Print(HealthResult{Status: status})
			return nil
		},
	}
}
