package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for weave-rag resources.
	uriScheme = "weave-rag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing collections.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "List of all stored collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	// Template for a single collection.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{name}",
		Name:        "collection",
		Description: "Record count of a specific collection",
		MIMEType:    "application/json",
	}, s.handleCollectionResource)
}

// handleCollectionsResource returns every collection with its record count.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos, err := s.ports.Collections.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	if len(infos) == 0 {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collections: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleCollectionResource returns a single collection's record count.
func (s *Server) handleCollectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract name from URI: weave-rag://collections/{name}
	name := extractCollectionName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	infos, err := s.ports.Collections.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	for _, info := range infos {
		if info.Name != name {
			continue
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling collection: %w", err)
		}
		return jsonResult(req.Params.URI, string(data)), nil
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractCollectionName extracts the name from a URI like weave-rag://collections/{name}.
func extractCollectionName(uri string) string {
	const prefix = uriScheme + "collections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
