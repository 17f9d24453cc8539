package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flemzord/gemgate/internal/config"
	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/security"
	"github.com/flemzord/gemgate/modules/provider/google"
	"github.com/flemzord/gemgate/pkg/app"
	"github.com/spf13/cobra"
)

// oneShotModules are loaded from the config file by one-shot commands, so
// their calls land in the usage ledger like gateway calls do.
var oneShotModules = []string{"provider.google", "usage.sqlite"}

// oneShotLogLevel keeps stderr quiet unless --log-level asks otherwise.
const oneShotLogLevel = "warn"

// session holds the models a one-shot command talks to. rt is nil when
// the models were built from flags and the environment.
type session struct {
	lm *google.LanguageModel
	em *google.EmbeddingModel
	rt *app.Runtime
}

func (s *session) close(ctx context.Context) error {
	if s.rt == nil {
		return nil
	}
	return s.rt.Shutdown(ctx)
}

// openSession uses the provider.google module of the config file when
// there is one. Without a config file it falls back to the default models
// and the API key environment variable.
func openSession(cmd *cobra.Command, g *globalFlags) (*session, error) {
	ctx := cmd.Context()
	level := g.logLevel
	if level == "" {
		level = oneShotLogLevel
	}

	path, err := config.FindPath(g.configPath)
	switch {
	case errors.Is(err, config.ErrNotFound):
		return sessionFromEnv(cmd.ErrOrStderr(), level)
	case err != nil:
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if _, ok := cfg.Modules["provider.google"]; !ok {
		return sessionFromEnv(cmd.ErrOrStderr(), level)
	}

	rt, err := app.Build(ctx, app.RunParams{
		ConfigPath: path,
		LogLevel:   level,
		Version:    version,
		Modules:    oneShotModules,
		LogOutput:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	if err := rt.Start(); err != nil {
		return nil, errors.Join(err, rt.Shutdown(ctx))
	}
	s := &session{rt: rt}
	s.lm, _ = core.ServiceAs[*google.LanguageModel](rt.Context, provider.ServiceLanguageModel)
	s.em, _ = core.ServiceAs[*google.EmbeddingModel](rt.Context, provider.ServiceEmbeddingModel)
	if s.lm == nil || s.em == nil {
		return nil, errors.Join(errors.New("provider.google did not register its models"), rt.Shutdown(ctx))
	}
	return s, nil
}

func sessionFromEnv(logOut io.Writer, level string) (*session, error) {
	if _, err := security.LoadAPIKey("", google.DefaultAPIKeyEnv, "Google Generative AI"); err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(logOut, config.LoggingConfig{}, level, security.NewRedactor())
	if err != nil {
		return nil, err
	}
	p := google.New(google.Options{Logger: logger})
	return &session{
		lm: p.LanguageModel(google.DefaultModel, google.Settings{}),
		em: p.EmbeddingModel(google.DefaultEmbeddingModel, google.EmbeddingSettings{}),
	}, nil
}

// inputText joins args, or reads stdin when there are none.
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no input: pass it as arguments or pipe it on stdin")
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no input: stdin was empty")
	}
	return text, nil
}
