package store

import (
	"context"

	"ica/internal/portfolio"
)

// PortfolioDocument is the per-agent persistence unit: the symbol-keyed
// holdings map plus the latest derived metrics rows.
type PortfolioDocument struct {
	AgentID string                       `json:"agent_id"`
	Details map[string]portfolio.Holding `json:"portfolio_details"`
	Metrics []portfolio.MetricsRow       `json:"portfolio_metrics"`
}

// PortfolioStore is a keyed document store with upsert semantics. Access is
// read-modify-write per agent id with no transactional guarantee; a race
// between two writers to the same agent resolves last-writer-wins.
type PortfolioStore interface {
	// FindByAgent loads the document for an agent; ok is false when no
	// document exists yet.
	FindByAgent(ctx context.Context, agentID string) (PortfolioDocument, bool, error)
	// Upsert inserts or field-level-replaces the agent's document. A nil
	// metrics slice updates the holdings only and leaves stored metrics
	// untouched; a non-nil slice replaces them.
	Upsert(ctx context.Context, agentID string, details map[string]portfolio.Holding, metrics []portfolio.MetricsRow) error
}
