// Package main is the entry point for the gemgate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/flemzord/gemgate/internal/core"
	"github.com/spf13/cobra"

	_ "github.com/flemzord/gemgate/internal/cron"
	_ "github.com/flemzord/gemgate/internal/gateway"
	_ "github.com/flemzord/gemgate/modules/provider/google"
	_ "github.com/flemzord/gemgate/modules/usage/sqlite"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "gemgate",
		Short:         "Gateway and CLI for the Google Generative AI API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		versionCmd(),
		serveCmd(g),
		generateCmd(g),
		streamCmd(g),
		embedCmd(g),
		usageCmd(g),
		configCmd(g),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gemgate %s (commit: %s, built: %s)\n", version, commit, date)
			mods := core.GetModules()
			if len(mods) == 0 {
				fmt.Fprintln(out, "\nNo compiled modules.")
				return
			}
			fmt.Fprintln(out, "\nCompiled modules:")
			for _, mod := range mods {
				fmt.Fprintf(out, "  %s\n", mod.ID)
			}
		},
	}
}
