package recommend

import (
	"context"

	"github.com/kalambet/synk/internal/genai"
)

// ErrMalformedOutput is returned when the model reply does not carry both
// suggestion fields.
var ErrMalformedOutput = genai.ErrMalformedOutput

const suggestTemplate = `You are a community and event recommendation expert. Given a user's interests, location, past events, and current groups, you will suggest relevant communities and events.

Interests: {{.Interests}}
Location: {{.Location}}
Past Events: {{.PastEvents}}
Current Groups: {{.Groups}}

Based on this information, suggest communities and events that the user might be interested in. Provide a list of suggested communities and a list of suggested events. Separate the items in the lists by comma.`

var suggestPrompt = genai.NewPrompt("suggestCommunitiesAndEvents", "", suggestTemplate, genai.Schema{
	Type: "object",
	Properties: map[string]genai.SchemaProperty{
		"suggestedCommunities": {Type: "string", Description: "A comma-separated list of suggested communities."},
		"suggestedEvents":      {Type: "string", Description: "A comma-separated list of suggested events."},
	},
	Required: []string{"suggestedCommunities", "suggestedEvents"},
})

// PromptSuggester runs the fixed suggestion prompt through a genai client.
type PromptSuggester struct {
	client *genai.Client
}

func NewPromptSuggester(client *genai.Client) *PromptSuggester {
	return &PromptSuggester{client: client}
}

// Suggest forwards the request fields verbatim and makes exactly one call.
func (s *PromptSuggester) Suggest(ctx context.Context, req Request) (Output, error) {
	var out Output
	if err := s.client.Generate(ctx, suggestPrompt, req, &out); err != nil {
		return Output{}, err
	}
	return out, nil
}
