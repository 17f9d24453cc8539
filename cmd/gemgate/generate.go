package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/modules/provider/google"
	"github.com/spf13/cobra"
)

// callFlags are shared by generate and stream.
type callFlags struct {
	model       string
	system      string
	temperature float64
	maxTokens   int
	json        bool
	search      bool
}

func (f *callFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.model, "model", "m", "", "Model id (defaults to the configured model)")
	fl.StringVarP(&f.system, "system", "s", "", "System instruction")
	fl.Float64Var(&f.temperature, "temperature", 0, "Sampling temperature")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "Maximum output tokens")
	fl.BoolVar(&f.json, "json", false, "Ask for a JSON response")
	fl.BoolVar(&f.search, "search", false, "Ground the answer with Google Search")
}

// options builds the call from the flags that were set.
func (f *callFlags) options(cmd *cobra.Command, prompt string) provider.CallOptions {
	var p provider.Prompt
	if f.system != "" {
		p = append(p, provider.SystemMessage(f.system))
	}
	p = append(p, provider.UserMessage(provider.TextPart{Text: prompt}))

	opts := provider.CallOptions{Prompt: p, Mode: provider.RegularMode{}}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = &f.temperature
	}
	if cmd.Flags().Changed("max-tokens") {
		opts.MaxOutputTokens = &f.maxTokens
	}
	if f.json {
		opts.ResponseFormat = &provider.ResponseFormat{Type: provider.ResponseFormatJSON}
	}
	return opts
}

func (f *callFlags) languageModel(s *session) *google.LanguageModel {
	var adjust func(*google.Settings)
	if f.search {
		adjust = func(st *google.Settings) { st.UseSearchGrounding = true }
	}
	return s.lm.Derive(f.model, adjust)
}

func generateCmd(g *globalFlags) *cobra.Command {
	f := &callFlags{}
	var raw bool
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a response in one call",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}
			defer func() { _ = s.close(context.WithoutCancel(cmd.Context())) }()

			res, err := f.languageModel(s).Generate(cmd.Context(), f.options(cmd, prompt))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, res.Text)
			for _, src := range res.Sources {
				fmt.Fprintf(out, "[%s] %s\n", src.Title, src.URL)
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the full result as JSON")
	return cmd
}

func streamCmd(g *globalFlags) *cobra.Command {
	f := &callFlags{}
	cmd := &cobra.Command{
		Use:   "stream [prompt]",
		Short: "Stream a response, printing text as it arrives",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}
			defer func() { _ = s.close(context.WithoutCancel(cmd.Context())) }()

			res, err := f.languageModel(s).Stream(cmd.Context(), f.options(cmd, prompt))
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			return printStream(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Events)
		},
	}
	f.register(cmd)
	return cmd
}

// printStream writes text deltas to out and a finish summary to errOut.
// It drains events and returns the first in-band error.
func printStream(out, errOut io.Writer, events <-chan provider.StreamEvent) error {
	var streamErr error
	for ev := range events {
		switch e := ev.(type) {
		case provider.TextDeltaEvent:
			fmt.Fprint(out, e.TextDelta)
		case provider.SourceEvent:
			fmt.Fprintf(errOut, "source: %s\n", e.Source.URL)
		case provider.ToolCallEvent:
			fmt.Fprintf(errOut, "tool call: %s(%s)\n", e.ToolName, e.Args)
		case provider.ErrorEvent:
			if streamErr == nil {
				streamErr = e.Err
			}
		case provider.FinishEvent:
			fmt.Fprintln(out)
			fmt.Fprintf(errOut, "finish: %s (%s)\n", e.FinishReason, usageSummary(e.Usage))
		}
	}
	if streamErr != nil {
		return fmt.Errorf("stream: %w", streamErr)
	}
	return nil
}

func usageSummary(u provider.Usage) string {
	if !u.Known() {
		return "usage unknown"
	}
	return fmt.Sprintf("%d prompt + %d completion tokens", int64(u.PromptTokens), int64(u.CompletionTokens))
}

func printWarnings(w io.Writer, warnings []provider.Warning) {
	for _, warn := range warnings {
		msg := warn.Message
		if msg == "" {
			msg = warn.Setting
		}
		fmt.Fprintf(w, "warning: %s %s\n", warn.Type, msg)
	}
}
