package memstore

import (
	"context"
	"strings"
	"sync"

	"ica/internal/portfolio"
	"ica/internal/store"
)

// Store is an in-memory PortfolioStore for tests and dry runs.
type Store struct {
	mu   sync.RWMutex
	docs map[string]store.PortfolioDocument
}

var _ store.PortfolioStore = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[string]store.PortfolioDocument)}
}

func (s *Store) FindByAgent(_ context.Context, agentID string) (store.PortfolioDocument, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[strings.TrimSpace(agentID)]
	if !ok {
		return store.PortfolioDocument{}, false, nil
	}
	return cloneDocument(doc), true, nil
}

func (s *Store) Upsert(_ context.Context, agentID string, details map[string]portfolio.Holding, metrics []portfolio.MetricsRow) error {
	agentID = strings.TrimSpace(agentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[agentID]
	if !ok {
		doc = store.PortfolioDocument{AgentID: agentID}
	}
	doc.Details = cloneDetails(details)
	if metrics != nil {
		doc.Metrics = append([]portfolio.MetricsRow(nil), metrics...)
	}
	s.docs[agentID] = doc
	return nil
}

func cloneDocument(doc store.PortfolioDocument) store.PortfolioDocument {
	out := store.PortfolioDocument{AgentID: doc.AgentID, Details: cloneDetails(doc.Details)}
	if doc.Metrics != nil {
		out.Metrics = append([]portfolio.MetricsRow(nil), doc.Metrics...)
	}
	return out
}

func cloneDetails(details map[string]portfolio.Holding) map[string]portfolio.Holding {
	out := make(map[string]portfolio.Holding, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
