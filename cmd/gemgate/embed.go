package main

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/modules/provider/google"
	"github.com/spf13/cobra"
)

// embedOutput is the JSON printed by the embed command.
type embedOutput struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

func embedCmd(g *globalFlags) *cobra.Command {
	var (
		model       string
		dimensions  int
		taskType    string
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "embed [values...]",
		Short: "Embed values and print the vectors as JSON",
		Long:  "Embed each argument, or each non-empty stdin line when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := embedValues(cmd, args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}
			defer func() { _ = s.close(context.WithoutCancel(cmd.Context())) }()

			em := s.em.Derive(model, func(st *google.EmbeddingSettings) {
				if cmd.Flags().Changed("dimensions") {
					st.OutputDimensionality = &dimensions
				}
				if taskType != "" {
					st.TaskType = taskType
				}
			})
			vectors, err := provider.EmbedMany(cmd.Context(), em, values, nil, parallelism)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(embedOutput{Model: em.ModelID(), Embeddings: vectors})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&model, "model", "m", "", "Embedding model id (defaults to the configured model)")
	fl.IntVar(&dimensions, "dimensions", 0, "Truncate vectors to this many values")
	fl.StringVar(&taskType, "task-type", "", "Embedding task type, e.g. RETRIEVAL_QUERY")
	fl.IntVar(&parallelism, "parallelism", 4, "Concurrent calls when values exceed one batch")
	return cmd
}

func embedValues(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	text, err := inputText(cmd, nil)
	if err != nil {
		return nil, err
	}
	var values []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			values = append(values, line)
		}
	}
	return values, sc.Err()
}
