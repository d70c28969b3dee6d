// Package reasoning drives the language-model backend used for keyword
// classification and content generation.
package reasoning

import "context"

// Backend turns a prompt into free-form text.
type Backend interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (*Completion, error)
}

// Completion is the text returned by a backend with the usage it reported.
type Completion struct {
	Text    string
	Tokens  int
	CostUSD float64
}

// BilledTokens returns the tokens to charge against the budget: the reported
// count when known, otherwise the requested maximum.
func (c *Completion) BilledTokens(maxTokens int) int {
	if c != nil && c.Tokens > 0 {
		return c.Tokens
	}
	return maxTokens
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, prompt string, maxTokens int) (*Completion, error)

// Complete calls f.
func (f BackendFunc) Complete(ctx context.Context, prompt string, maxTokens int) (*Completion, error) {
	return f(ctx, prompt, maxTokens)
}

// Static returns a backend that always answers text.
func Static(text string) Backend {
	return BackendFunc(func(context.Context, string, int) (*Completion, error) {
		return &Completion{Text: text}, nil
	})
}
