package cli

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
)

var (
	chunkMode    string
	chunkSize    int
	chunkOverlap int
	chunkJSON    bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split a document into chunks",
	Long: `Splits a document the way ingestion does and prints the chunks.

HTML, DOCX, PDF, XLSX and email (.eml) files are first converted to Markdown
text.

The markdown mode splits at headings, then packs paragraphs, cutting oversized
paragraphs at sentence ends. The simple mode slides a fixed window with overlap.
Sizes count characters, not bytes.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVar(&chunkMode, "mode", "", "chunk mode: markdown or simple (default from settings)")
	chunkCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "maximum chunk length in characters")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "characters repeated between chunks")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

// chunkerSettings applies the chunk flags on top of the configured settings.
// Changing the mode resets size and overlap to that mode's defaults.
func chunkerSettings(cmd *cobra.Command, base domain.ChunkerSettings) (domain.ChunkerSettings, error) {
	cfg := base
	if cmd.Flags().Changed("mode") {
		mode := domain.ChunkMode(chunkMode)
		if !mode.IsValid() {
			return cfg, fmt.Errorf("%w: invalid chunk mode %q", domain.ErrInvalidConfig, chunkMode)
		}
		if mode != cfg.Mode {
			cfg = domain.ChunkerSettings{Mode: mode}
			cfg.ChunkSize, cfg.Overlap = domain.DefaultMarkdownChunkSize, domain.DefaultMarkdownOverlap
			if mode == domain.ChunkModeSimple {
				cfg.ChunkSize, cfg.Overlap = domain.DefaultSimpleChunkSize, domain.DefaultSimpleOverlap
			}
		}
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = chunkSize
	}
	if cmd.Flags().Changed("overlap") {
		cfg.Overlap = chunkOverlap
	}
	return cfg, nil
}

type chunkOutput struct {
	Position int    `json:"position"`
	Header   string `json:"header,omitempty"`
	Length   int    `json:"length"`
	Content  string `json:"content"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	b, settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg, err := chunkerSettings(cmd, settings.Chunker)
	if err != nil {
		return err
	}
	pipeline, err := b.Pipeline(cfg)
	if err != nil {
		return err
	}

	docs, err := b.LoadDocuments(cmd.Context(), args)
	if err != nil {
		return err
	}

	var out []chunkOutput
	for i := range docs {
		chunks, err := pipeline.Process(cmd.Context(), &docs[i])
		if err != nil {
			return fmt.Errorf("chunk %s: %w", docs[i].URI, err)
		}
		for _, c := range chunks {
			out = append(out, chunkOutput{
				Position: c.Position,
				Header:   c.SourceHeader,
				Length:   utf8.RuneCountInString(c.Content),
				Content:  c.Content,
			})
		}
	}

	if chunkJSON {
		if out == nil {
			out = []chunkOutput{}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(out) == 0 {
		cmd.Println("No chunks produced.")
		return nil
	}

	cmd.Printf("%d chunks (%s, size %d, overlap %d)\n\n", len(out), cfg.Mode, cfg.ChunkSize, cfg.Overlap)
	for i, c := range out {
		cmd.Printf("--- Chunk %d (%d chars) ---\n", i+1, c.Length)
		if c.Header != "" {
			cmd.Printf("Header: %s\n", c.Header)
		}
		cmd.Println(c.Content)
		cmd.Println()
	}
	return nil
}
