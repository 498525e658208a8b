package signal

import (
	"context"
	"fmt"
	"strings"

	"ica/internal/logger"
)

const defaultSystemPrompt = `You are a crypto trading analyst. Given a list of
token symbols, decide for each whether to buy, sell, or hold. Respond with a
JSON array of objects: {"token_symbol": "...", "direction": "buy|sell|hold"}.
Respond with JSON only, no commentary.`

// Chatter is the slice of ChatClient the generator needs.
type Chatter interface {
	CallWithMessages(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ModelGenerator produces signals by prompting a chat model, optionally under
// a persona loaded from the registry.
type ModelGenerator struct {
	client    Chatter
	personas  *PersonaRegistry
	personaID string
}

var _ Generator = (*ModelGenerator)(nil)

// NewModelGenerator builds a generator. personas and personaID may be empty;
// the generator then uses its built-in prompt.
func NewModelGenerator(client Chatter, personas *PersonaRegistry, personaID string) *ModelGenerator {
	return &ModelGenerator{client: client, personas: personas, personaID: strings.TrimSpace(personaID)}
}

func (g *ModelGenerator) Generate(ctx context.Context, watchlist []string) ([]Signal, error) {
	systemPrompt := defaultSystemPrompt
	if g.personas != nil && g.personaID != "" {
		if p, ok := g.personas.Persona(g.personaID); ok {
			if p.SystemPrompt != "" {
				systemPrompt = p.SystemPrompt
			}
			if len(watchlist) == 0 {
				watchlist = p.Watchlist
			}
		} else {
			logger.Warnf("[signal] persona %q not found, using built-in prompt", g.personaID)
		}
	}
	if len(watchlist) == 0 {
		return nil, fmt.Errorf("signal generation requires a watchlist")
	}

	userPrompt := "Tokens: " + strings.Join(watchlist, ", ")
	raw, err := g.client.CallWithMessages(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("signal model call failed: %w", err)
	}
	signals, err := ParseSignals(raw)
	if err != nil {
		return nil, err
	}
	logger.Infof("[signal] model produced %d signals for %d tokens", len(signals), len(watchlist))
	return signals, nil
}
