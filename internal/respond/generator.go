// Package respond renders the assistant's final utterance for a decided
// move, enforcing the reply shape with validation and regeneration passes.
package respond

import (
	"context"
	"strings"

	"github.com/elenacorti/wisp/internal/conversation"
	"github.com/elenacorti/wisp/internal/llm"
)

// Result is the outcome of one generation, including how it was produced.
type Result struct {
	Text          string
	Regenerations int
	Fallback      bool
}

// Generator turns a NextMove into assistant text via the LLM provider.
type Generator struct {
	provider llm.Provider
	// maxRegenerations bounds the validate-and-retry passes after the first
	// completion.
	maxRegenerations int
}

func NewGenerator(provider llm.Provider, maxRegenerations int) *Generator {
	if maxRegenerations < 0 {
		maxRegenerations = 0
	}
	return &Generator{provider: provider, maxRegenerations: maxRegenerations}
}

// Generate never fails the turn: provider errors and persistent contract
// violations both degrade to a deterministic line built from the move itself.
func (g *Generator) Generate(ctx context.Context, move conversation.NextMove, st *conversation.State) Result {
	prompt := buildPrompt(move, st)

	for attempt := 0; attempt <= g.maxRegenerations; attempt++ {
		text, err := g.provider.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			break
		}
		text = strings.TrimSpace(text)

		violations := validateShape(text, move)
		if len(violations) == 0 {
			return Result{Text: text, Regenerations: attempt}
		}
		prompt = buildPrompt(move, st) + correctiveNote(violations)
	}

	return Result{Text: fallbackLine(move), Fallback: true}
}
