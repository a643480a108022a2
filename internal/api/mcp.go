package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/synk/internal/catalog"
	"github.com/kalambet/synk/internal/geo"
	"github.com/kalambet/synk/internal/recommend"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Suggester recommend.Suggester
	Catalog   *catalog.Catalog
	Locator   *geo.Locator
}

// NewMCPServer creates an MCP server with the synk tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"synk",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("synk: find communities and events that match someone's interests and location."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("suggest_communities_and_events",
			mcp.WithDescription("Suggest communities and events from interests and a location."),
			mcp.WithString("interests", mcp.Description("Comma-separated interests"), mcp.Required()),
			mcp.WithString("location", mcp.Description("City, region or coordinates"), mcp.Required()),
			mcp.WithString("past_events", mcp.Description("Events attended before")),
			mcp.WithString("groups", mcp.Description("Groups the person already belongs to")),
		),
		mcpSuggest(deps),
	)

	s.AddTool(
		mcp.NewTool("search_catalog",
			mcp.WithDescription("Search events, discussions and communities by text."),
			mcp.WithString("query", mcp.Description("Search text"), mcp.Required()),
		),
		mcpSearch(deps),
	)

	s.AddTool(
		mcp.NewTool("resolve_location",
			mcp.WithDescription("Turn latitude and longitude into a place name."),
			mcp.WithNumber("lat", mcp.Description("Latitude in decimal degrees"), mcp.Required()),
			mcp.WithNumber("lon", mcp.Description("Longitude in decimal degrees"), mcp.Required()),
		),
		mcpResolveLocation(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"synk://communities",
			"Communities",
			mcp.WithResourceDescription("All communities as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpJSONResource(func() any { return deps.Catalog.Communities.List() }),
	)

	s.AddResource(
		mcp.NewResource(
			"synk://events",
			"Events",
			mcp.WithResourceDescription("All upcoming events as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpJSONResource(func() any { return deps.Catalog.Events.List() }),
	)

	return s
}

func mcpSuggest(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r := recommend.Request{
			Interests:  req.GetString("interests", ""),
			Location:   req.GetString("location", ""),
			PastEvents: req.GetString("past_events", ""),
			Groups:     req.GetString("groups", ""),
		}
		if err := r.Validate(); err != nil {
			return mcpError(recommend.MissingFieldsMessage), nil
		}

		out, err := deps.Suggester.Suggest(ctx, r)
		if err != nil {
			return mcpError(fmt.Sprintf("%s (%v)", recommend.FailureMessage, err)), nil
		}
		return mcpJSON(recommend.ParseOutput(out))
	}
}

func mcpSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		return mcpJSON(deps.Catalog.Search(query))
	}
}

func mcpResolveLocation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lat, err := req.RequireFloat("lat")
		if err != nil {
			return mcpError("lat is required"), nil
		}
		lon, err := req.RequireFloat("lon")
		if err != nil {
			return mcpError("lon is required"), nil
		}

		res, err := deps.Locator.Resolve(ctx, geo.Coordinates{Lat: lat, Lon: lon})
		if errors.Is(err, geo.ErrInvalidCoordinates) {
			return mcpError(err.Error()), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("resolve failed: %v", err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpJSONResource(load func() any) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(load())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", req.Params.URI, err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
