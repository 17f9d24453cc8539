package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/flemzord/gemgate/internal/config"
	"github.com/flemzord/gemgate/modules/provider/google"
	"github.com/flemzord/gemgate/pkg/app"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(g), configInitCmd())
	return cmd
}

func configCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration and every configured module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := g.configPath
			if len(args) == 1 {
				explicit = args[0]
			}
			path, err := config.FindPath(explicit)
			if err != nil {
				return err
			}

			// Loading provisions and validates each module without
			// starting it.
			level := g.logLevel
			if level == "" {
				level = oneShotLogLevel
			}
			rt, err := app.Build(cmd.Context(), app.RunParams{
				ConfigPath: path,
				LogLevel:   level,
				Version:    version,
				LogOutput:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(cmd.Context())) }()

			out := cmd.OutOrStdout()
			ids := config.Resolve(rt.Config)
			fmt.Fprintf(out, "Configuration OK: %s (%d modules)\n", path, len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}
}

// initAnswers are collected by the config init form.
type initAnswers struct {
	Bind           string
	Model          string
	EmbeddingModel string
	APIKeyEnv      string
	BearerToken    string
	Ledger         bool
	Retention      string
	Check          bool
	LogFormat      string
}

func defaultInitAnswers() initAnswers {
	return initAnswers{
		Bind:           "127.0.0.1:8080",
		Model:          google.DefaultModel,
		EmbeddingModel: google.DefaultEmbeddingModel,
		APIKeyEnv:      google.DefaultAPIKeyEnv,
		Ledger:         true,
		Retention:      "720h",
		Check:          true,
		LogFormat:      "text",
	}
}

func configInitCmd() *cobra.Command {
	var (
		output   string
		defaults bool
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file through an interactive form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}
			answers := defaultInitAnswers()
			if !defaults {
				if err := initForm(&answers).WithInput(cmd.InOrStdin()).WithOutput(cmd.ErrOrStderr()).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return errors.New("aborted")
					}
					return err
				}
			}
			data, err := renderConfig(answers)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&output, "output", "o", config.FileName, "File to write")
	fl.BoolVar(&defaults, "defaults", false, "Skip the form and write the defaults")
	fl.BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func initForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gateway listen address").
				Value(&a.Bind).
				Validate(func(s string) error {
					if !strings.Contains(s, ":") {
						return errors.New("expected host:port")
					}
					return nil
				}),
			huh.NewInput().
				Title("Bearer token for /api (empty disables auth)").
				EchoMode(huh.EchoModePassword).
				Value(&a.BearerToken),
		),
		huh.NewGroup(
			huh.NewInput().Title("Language model").Value(&a.Model),
			huh.NewInput().Title("Embedding model").Value(&a.EmbeddingModel),
			huh.NewInput().
				Title("Environment variable holding the API key").
				Value(&a.APIKeyEnv),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Record calls in a SQLite usage ledger?").Value(&a.Ledger),
			huh.NewInput().
				Title("Ledger retention").
				Value(&a.Retention).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewConfirm().Title("Check model health on a schedule?").Value(&a.Check),
			huh.NewSelect[string]().
				Title("Log format").
				Options(huh.NewOptions("text", "json")...).
				Value(&a.LogFormat),
		),
	)
}

// renderConfig produces the YAML written by config init.
func renderConfig(a initAnswers) ([]byte, error) {
	modules := map[string]any{
		"provider.google": map[string]any{
			"api_key_env":     a.APIKeyEnv,
			"model":           a.Model,
			"embedding_model": a.EmbeddingModel,
		},
	}
	gw := map[string]any{"bind": a.Bind}
	if a.BearerToken != "" {
		gw["auth"] = map[string]any{"bearer_token": a.BearerToken}
	}
	modules["gateway.http"] = gw
	if a.Ledger {
		if _, err := time.ParseDuration(a.Retention); err != nil {
			return nil, fmt.Errorf("retention: %w", err)
		}
		modules["usage.sqlite"] = map[string]any{"retention": a.Retention}
	}
	if a.Check {
		modules["health.check"] = map[string]any{"schedule": "*/5 * * * *"}
	}

	doc := map[string]any{
		"version": "1",
		"logging": map[string]any{"level": "info", "format": a.LogFormat},
		"modules": modules,
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return data, nil
}
