// Package genai executes named prompt templates against a text-generation
// backend and decodes the structured JSON output.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrMalformedOutput is returned when the backend reply is not a JSON object
// matching the prompt's output schema.
var ErrMalformedOutput = errors.New("malformed model output")

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema describes the expected JSON output structure.
type Schema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty describes a single field within a Schema.
type SchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Completion is one request to a Backend.
type Completion struct {
	Name     string
	Model    string
	Messages []Message
	Schema   *Schema
}

// Backend sends a completion to a model and returns the raw reply text.
type Backend interface {
	Complete(ctx context.Context, c Completion) (string, error)
}

// Prompt is a fixed instruction template bound to an output schema.
type Prompt struct {
	Name     string
	System   string
	Template *template.Template
	Output   Schema
}

// NewPrompt parses tmpl and panics on a malformed template; prompts are
// package-level values.
func NewPrompt(name, system, tmpl string, output Schema) Prompt {
	return Prompt{
		Name:     name,
		System:   system,
		Template: template.Must(template.New(name).Option("missingkey=zero").Parse(tmpl)),
		Output:   output,
	}
}

// Render executes the prompt template with input.
func (p Prompt) Render(input any) (string, error) {
	var buf bytes.Buffer
	if err := p.Template.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", p.Name, err)
	}
	return buf.String(), nil
}

// Client runs prompts against a Backend using a single model.
type Client struct {
	backend Backend
	model   string
}

func NewClient(backend Backend, model string) *Client {
	return &Client{backend: backend, model: model}
}

// Model returns the model name prompts are executed with.
func (c *Client) Model() string { return c.model }

// Generate renders p with input, performs exactly one backend call, and
// decodes the reply into out. Replies that are not JSON objects or that miss
// a required output field yield ErrMalformedOutput.
func (c *Client) Generate(ctx context.Context, p Prompt, input any, out any) error {
	text, err := p.Render(input)
	if err != nil {
		return err
	}

	var messages []Message
	if p.System != "" {
		messages = append(messages, Message{Role: "system", Content: p.System})
	}
	messages = append(messages, Message{Role: "user", Content: text})

	output := p.Output
	raw, err := c.backend.Complete(ctx, Completion{
		Name:     p.Name,
		Model:    c.model,
		Messages: messages,
		Schema:   &output,
	})
	if err != nil {
		return fmt.Errorf("prompt %s: %w", p.Name, err)
	}

	return decodeOutput(raw, p.Output, out)
}

func decodeOutput(raw string, schema Schema, out any) error {
	body := []byte(stripFences(raw))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return fmt.Errorf("%w: not a JSON object", ErrMalformedOutput)
	}
	for _, name := range schema.Required {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: missing field %q", ErrMalformedOutput, name)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// stripFences removes a surrounding ``` or ```json fence some models add
// even when asked for bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
