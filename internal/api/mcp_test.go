package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/synk/internal/catalog"
	"github.com/kalambet/synk/internal/geo"
	"github.com/kalambet/synk/internal/recommend"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) (MCPDeps, *mockSuggester, *mockReverser) {
	t.Helper()
	sug := &mockSuggester{out: recommend.Output{
		SuggestedCommunities: "Outdoor Adventures Club",
		SuggestedEvents:      "Weekend Hike, Photo Walk",
	}}
	rev := &mockReverser{addr: geo.Address{Town: "Hallstatt"}}
	return MCPDeps{
		Suggester: sug,
		Catalog:   catalog.New(),
		Locator:   geo.NewLocator(rev, geo.DefaultBreakerConfig()),
	}, sug, rev
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestNewMCPServer(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)
	if s := NewMCPServer(deps); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPTool_Suggest(t *testing.T) {
	deps, sug, _ := newTestMCPDeps(t)
	handler := mcpSuggest(deps)

	result, err := handler(context.Background(), makeCallToolRequest("suggest_communities_and_events", map[string]interface{}{
		"interests": "hiking, photography",
		"location":  "Salzburg",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var res recommend.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(res.SuggestedEvents) != 2 || res.SuggestedEvents[1] != "Photo Walk" {
		t.Errorf("events = %v", res.SuggestedEvents)
	}
	if sug.calls != 1 {
		t.Errorf("suggester calls = %d, want 1", sug.calls)
	}
}

func TestMCPTool_Suggest_MissingFields(t *testing.T) {
	deps, sug, _ := newTestMCPDeps(t)

	result, _ := mcpSuggest(deps)(context.Background(), makeCallToolRequest("suggest_communities_and_events", map[string]interface{}{
		"interests": "hiking",
	}))
	if !result.IsError || toolText(t, result) != recommend.MissingFieldsMessage {
		t.Errorf("result = %+v", result)
	}
	if sug.calls != 0 {
		t.Error("suggester called for incomplete request")
	}
}

func TestMCPTool_Suggest_Failure(t *testing.T) {
	deps, sug, _ := newTestMCPDeps(t)
	sug.err = errors.New("model offline")

	result, _ := mcpSuggest(deps)(context.Background(), makeCallToolRequest("suggest_communities_and_events", map[string]interface{}{
		"interests": "hiking",
		"location":  "Salzburg",
	}))
	if !result.IsError || !strings.HasPrefix(toolText(t, result), recommend.FailureMessage) {
		t.Errorf("result = %s", toolText(t, result))
	}
}

func TestMCPTool_Search(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result, _ := mcpSearch(deps)(context.Background(), makeCallToolRequest("search_catalog", map[string]interface{}{
		"query": "hike",
	}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	var res catalog.Results
	json.Unmarshal([]byte(toolText(t, result)), &res)
	if len(res.Threads) != 1 {
		t.Errorf("threads = %+v", res.Threads)
	}

	result, _ = mcpSearch(deps)(context.Background(), makeCallToolRequest("search_catalog", nil))
	if !result.IsError {
		t.Error("expected error without query")
	}
}

func TestMCPTool_ResolveLocation(t *testing.T) {
	deps, _, rev := newTestMCPDeps(t)

	result, _ := mcpResolveLocation(deps)(context.Background(), makeCallToolRequest("resolve_location", map[string]interface{}{
		"lat": 47.56,
		"lon": 13.65,
	}))
	var res geo.Resolution
	json.Unmarshal([]byte(toolText(t, result)), &res)
	if res.Location != "Hallstatt" {
		t.Errorf("location = %q", res.Location)
	}

	rev.err = errors.New("timeout")
	result, _ = mcpResolveLocation(deps)(context.Background(), makeCallToolRequest("resolve_location", map[string]interface{}{
		"lat": 47.56,
		"lon": 13.65,
	}))
	json.Unmarshal([]byte(toolText(t, result)), &res)
	if !res.Fallback || res.Location != "Lat: 47.5600, Lon: 13.6500" {
		t.Errorf("fallback = %+v", res)
	}

	result, _ = mcpResolveLocation(deps)(context.Background(), makeCallToolRequest("resolve_location", map[string]interface{}{
		"lat": 120.0,
		"lon": 0.0,
	}))
	if !result.IsError {
		t.Error("expected error for latitude 120")
	}
}

func TestMCPResources(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	tests := []struct {
		uri  string
		load func() any
		want int
	}{
		{"synk://communities", func() any { return deps.Catalog.Communities.List() }, 3},
		{"synk://events", func() any { return deps.Catalog.Events.List() }, 3},
	}
	for _, tt := range tests {
		contents, err := mcpJSONResource(tt.load)(context.Background(), makeReadResourceRequest(tt.uri))
		if err != nil {
			t.Fatalf("%s: %v", tt.uri, err)
		}
		tc, ok := contents[0].(mcp.TextResourceContents)
		if !ok || tc.URI != tt.uri || tc.MIMEType != "application/json" {
			t.Fatalf("%s: contents = %+v", tt.uri, contents[0])
		}
		var items []map[string]any
		if err := json.Unmarshal([]byte(tc.Text), &items); err != nil {
			t.Fatalf("%s: %v", tt.uri, err)
		}
		if len(items) != tt.want {
			t.Errorf("%s: %d items, want %d", tt.uri, len(items), tt.want)
		}
	}
}
