package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

var (
	queryDocs        []string
	queryTopK        int
	queryThreshold   float64
	queryNoThreshold bool
	queryJSON        bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search documents in memory",
	Long: `Loads the given documents, embeds them into an in-memory store and
returns the snippets most similar to the query text.

The top-k candidates are kept first, then any whose cosine similarity is not
above the threshold are dropped. Nothing is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVarP(&queryDocs, "docs", "d", nil, "files or directories to search (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum number of results (default from settings)")
	queryCmd.Flags().Float64VarP(&queryThreshold, "threshold", "t", 0, "minimum similarity (default from settings)")
	queryCmd.Flags().BoolVar(&queryNoThreshold, "no-threshold", false, "return the top-k results without filtering")
	queryCmd.Flags().StringVar(&chunkMode, "mode", "", "chunk mode: markdown or simple (default from settings)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if len(queryDocs) == 0 {
		return errors.New("at least one --docs path is required")
	}

	b, settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg, err := chunkerSettings(cmd, settings.Chunker)
	if err != nil {
		return err
	}

	docs, err := b.LoadDocuments(cmd.Context(), queryDocs)
	if err != nil {
		return err
	}

	svc, err := b.Retrieval(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := svc.Ingest(cmd.Context(), docs); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	opts := domain.RetrieveOptions{
		TopK:    settings.Retrieval.TopK,
		Verbose: verbose,
	}
	if cmd.Flags().Changed("top-k") {
		opts.TopK = queryTopK
	}
	if !queryNoThreshold {
		threshold := settings.Retrieval.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold = queryThreshold
		}
		opts = opts.WithThreshold(threshold)
	}

	hits, err := svc.QueryScored(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputHitsJSON(cmd, hits)
	}
	return outputHits(cmd, hits)
}

type hitOutput struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

func outputHitsJSON(cmd *cobra.Command, hits []domain.ScoredText) error {
	out := make([]hitOutput, len(hits))
	for i, h := range hits {
		out[i] = hitOutput{ID: h.ID, Text: h.Text, Similarity: h.Similarity}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputHits(cmd *cobra.Command, hits []domain.ScoredText) error {
	if len(hits) == 0 {
		cmd.Println("No relevant context found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, h := range hits {
		cmd.Printf("  [%d] (%.4f)\n", i+1, h.Similarity)
		cmd.Printf("      %s\n", h.Text)
		cmd.Println()
	}
	return nil
}
