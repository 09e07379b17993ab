package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query      string   `json:"query" jsonschema:"the text to find related context for"`
	Collection string   `json:"collection,omitempty" jsonschema:"collection to search (default from settings)"`
	TopK       int      `json:"top_k,omitempty" jsonschema:"maximum number of snippets to return (default 3)"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"only return snippets with cosine similarity above this value"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Collection string          `json:"collection"`
	Results    []SnippetOutput `json:"results"`
	Count      int             `json:"count"`
}

// SnippetOutput represents a single retrieved snippet.
type SnippetOutput struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// ListCollectionsInput is the input schema for the list_collections tool.
type ListCollectionsInput struct{}

// ListCollectionsOutput is the output schema for the list_collections tool.
type ListCollectionsOutput struct {
	Collections []driving.CollectionInfo `json:"collections"`
	Count       int                      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the stored text snippets most similar to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List stored collections and their record counts",
	}, s.handleListCollections)
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.Query == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	collection, topK := s.ports.defaults()
	if input.Collection != "" {
		collection = input.Collection
	}
	if input.TopK > 0 {
		topK = input.TopK
	}

	opts := domain.RetrieveOptions{TopK: topK, Threshold: input.Threshold}
	hits, err := s.ports.Collections.RetrieveScored(ctx, input.Query, collection, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Collection: collection,
		Results:    make([]SnippetOutput, len(hits)),
		Count:      len(hits),
	}
	for i := range hits {
		output.Results[i] = SnippetOutput{
			ID:         hits[i].ID,
			Text:       hits[i].Text,
			Similarity: hits[i].Similarity,
		}
	}

	return nil, output, nil
}

// handleListCollections handles the list_collections tool invocation.
func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	infos, err := s.ports.Collections.ListCollections(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, fmt.Errorf("listing collections: %w", err)
	}
	if infos == nil {
		infos = []driving.CollectionInfo{}
	}
	return nil, ListCollectionsOutput{Collections: infos, Count: len(infos)}, nil
}
