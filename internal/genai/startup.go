package genai

import (
	"context"
	"fmt"
	"io"
)

// EnsureReady checks that Ollama is running and model is available, pulling
// it with progress written to w when missing. Returns an error if Ollama is
// unreachable or the pull fails.
func EnsureReady(ctx context.Context, o *OllamaBackend, model string, w io.Writer) error {
	if !o.IsRunning(ctx) {
		return fmt.Errorf("Ollama is not running at %s. Start it with: ollama serve", o.baseURL)
	}

	if o.HasModel(ctx, model) {
		fmt.Fprintf(w, "model %s: ready\n", model)
		return nil
	}

	fmt.Fprintf(w, "model %s: pulling...\n", model)
	err := o.PullModel(ctx, model, func(p PullProgress) {
		if p.Total > 0 {
			pct := float64(p.Completed) / float64(p.Total) * 100
			fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, pct)
		} else {
			fmt.Fprintf(w, "  %s\n", p.Status)
		}
	})
	if err != nil {
		return fmt.Errorf("pulling model %s: %w", model, err)
	}
	fmt.Fprintf(w, "model %s: ready\n", model)
	return nil
}
