// Package llm defines the completion provider used by the response
// generator, with an OpenAI implementation and a deterministic mock.
package llm

import "context"

// Provider produces one assistant completion for a system/user prompt pair.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}
