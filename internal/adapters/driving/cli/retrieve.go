package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

var (
	retrieveCollection string
	retrieveTopK       int
	retrieveThreshold  float64
	retrieveJSON       bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [text]",
	Short: "Search a stored collection",
	Long: `Embeds the query text and returns the nearest snippets from a stored
collection in the order the vector backend ranks them.

No threshold is applied unless --threshold is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveCollection, "collection", "c", "", "collection name (default from settings)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "maximum number of results (default from settings)")
	retrieveCmd.Flags().Float64VarP(&retrieveThreshold, "threshold", "t", 0, "minimum similarity")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	b, settings, err := loadSettings()
	if err != nil {
		return err
	}

	name := settings.VectorStore.Collection
	if retrieveCollection != "" {
		name = retrieveCollection
	}
	opts := domain.RetrieveOptions{TopK: settings.Retrieval.TopK, Verbose: verbose}
	if cmd.Flags().Changed("top-k") {
		opts.TopK = retrieveTopK
	}
	if cmd.Flags().Changed("threshold") {
		opts = opts.WithThreshold(retrieveThreshold)
	}

	svc, err := b.Collections(cmd.Context())
	if err != nil {
		return err
	}

	hits, err := svc.RetrieveScored(cmd.Context(), args[0], name, opts)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return fmt.Errorf("%w; create it with 'weave-rag collection create %s <paths>'", err, name)
	}
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputHitsJSON(cmd, hits)
	}
	return outputHits(cmd, hits)
}
