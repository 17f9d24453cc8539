package main

import (
	"github.com/flemzord/gemgate/pkg/app"
	"github.com/spf13/cobra"
)

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start every configured module and serve until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.RunParams{
				ConfigPath: g.configPath,
				LogLevel:   g.logLevel,
				Version:    version,
				LogOutput:  cmd.ErrOrStderr(),
			})
		},
	}
}
