// Package recommend turns a user's interests and location into suggested
// communities and events via a remote text-generation prompt.
package recommend

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidRequest is matched by every *ValidationError.
	ErrInvalidRequest = errors.New("invalid recommendation request")

	// ErrSuggestionFailed wraps any failure of the remote call. Callers show
	// FailureMessage and may retry.
	ErrSuggestionFailed = errors.New("suggestion failed")

	// ErrInFlight is returned when the user already has a submission pending.
	ErrInFlight = errors.New("a recommendation request is already in progress")
)

const (
	MissingFieldsMessage = "Please enter your interests and location."
	FailureMessage       = "Failed to fetch recommendations. Please try again."
)

// Request is one recommendation submission. Interests and Location are
// required; PastEvents and Groups are optional free text.
type Request struct {
	Interests  string `json:"interests"`
	Location   string `json:"location"`
	PastEvents string `json:"pastEvents"`
	Groups     string `json:"groups"`
}

// Result is the parsed suggestion lists in the order the model returned them.
type Result struct {
	SuggestedCommunities []string `json:"suggestedCommunities"`
	SuggestedEvents      []string `json:"suggestedEvents"`
}

// Output is the raw structured reply: two comma-separated strings.
type Output struct {
	SuggestedCommunities string `json:"suggestedCommunities"`
	SuggestedEvents      string `json:"suggestedEvents"`
}

// Suggester produces raw suggestions for a request.
type Suggester interface {
	Suggest(ctx context.Context, req Request) (Output, error)
}

// ValidationError reports a request rejected before any remote call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

// Validate requires non-blank Interests and Location.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Interests) == "" {
		missing = append(missing, "interests")
	}
	if strings.TrimSpace(r.Location) == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Message: MissingFieldsMessage}
	}
	return nil
}

// ParseList splits raw on commas, trims each item and drops empty ones.
// The result is never nil.
func ParseList(raw string) []string {
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func ParseOutput(o Output) Result {
	return Result{
		SuggestedCommunities: ParseList(o.SuggestedCommunities),
		SuggestedEvents:      ParseList(o.SuggestedEvents),
	}
}
