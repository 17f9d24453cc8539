package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/usage"
	"github.com/flemzord/gemgate/modules/usage/sqlite"
	"github.com/flemzord/gemgate/pkg/app"
	"github.com/spf13/cobra"
)

func usageCmd(g *globalFlags) *cobra.Command {
	var (
		dbPath string
		limit  int
		window time.Duration
	)
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recent model calls from the usage ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ledger, closeLedger, err := openLedger(cmd, g, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = closeLedger(context.WithoutCancel(ctx)) }()

			totals, err := ledger.Totals(ctx, time.Now().Add(-window))
			if err != nil {
				return err
			}
			entries, err := ledger.Recent(ctx, limit)
			if err != nil {
				return err
			}
			printUsage(cmd.OutOrStdout(), window, totals, entries)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&dbPath, "db", "", "Ledger database path (defaults to the usage.sqlite module config)")
	fl.IntVarP(&limit, "limit", "n", 20, "Number of recent calls to list")
	fl.DurationVar(&window, "window", 24*time.Hour, "Period covered by the totals")
	return cmd
}

// openLedger opens the database named by --db, or the ledger of the
// usage.sqlite module in the config file.
func openLedger(cmd *cobra.Command, g *globalFlags, dbPath string) (usage.Ledger, func(context.Context) error, error) {
	if dbPath != "" {
		l, err := sqlite.OpenLedger(cmd.Context(), dbPath)
		if err != nil {
			return nil, nil, err
		}
		return l, func(context.Context) error { return l.Close() }, nil
	}

	level := g.logLevel
	if level == "" {
		level = oneShotLogLevel
	}
	rt, err := app.Build(cmd.Context(), app.RunParams{
		ConfigPath: g.configPath,
		LogLevel:   level,
		Version:    version,
		Modules:    []string{"usage.sqlite"},
		LogOutput:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	l, ok := core.ServiceAs[*sqlite.Ledger](rt.Context, usage.ServiceName)
	if !ok {
		return nil, nil, errors.Join(errors.New("usage.sqlite is not configured; pass --db"), rt.Close(cmd.Context()))
	}
	return l, rt.Close, nil
}

func printUsage(w io.Writer, window time.Duration, totals usage.Totals, entries []usage.Entry) {
	fmt.Fprintf(w, "Last %s: %s calls, %s errors, %s prompt tokens, %s completion tokens, %s embedded values\n\n",
		window,
		humanize.Comma(totals.Calls),
		humanize.Comma(totals.Errors),
		humanize.Comma(totals.PromptTokens),
		humanize.Comma(totals.CompletionTokens),
		humanize.Comma(totals.Values),
	)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded calls.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "MODEL", "OP", "FINISH", "PROMPT", "COMPLETION", "DURATION", "ERROR")
	for _, e := range entries {
		t.Row(
			humanize.Time(e.CreatedAt),
			e.Model,
			e.Operation,
			e.FinishReason,
			tokenCell(e.PromptTokens),
			tokenCell(e.CompletionTokens),
			e.Duration.Round(time.Millisecond).String(),
			e.Error,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func tokenCell(f float64) string {
	if math.IsNaN(f) {
		return "-"
	}
	return strconv.FormatInt(int64(f), 10)
}
