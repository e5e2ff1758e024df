package learner

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store persists ledger snapshots keyed by learner id. A session reads the
// ledger once at start and writes back after every mutation; a failed Put
// must be surfaced to the caller, since silently losing a mutation would
// corrupt the progress history.
type Store interface {
	Get(ctx context.Context, learnerID string) (*Ledger, error)
	Put(ctx context.Context, l *Ledger) error
	List(ctx context.Context) ([]*Ledger, error)
}

// MemoryStore is an in-memory Store implementation for tests and
// development.
type MemoryStore struct {
	ledgers map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, learnerID string) (*Ledger, error) {
	s.mu.RLock()
	data, ok := s.ledgers[learnerID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, learnerID)
	}
	return DecodeLedger(data)
}

func (s *MemoryStore) Put(_ context.Context, l *Ledger) error {
	if l.LearnerID == "" {
		return fmt.Errorf("learner id is required")
	}
	data, err := EncodeLedger(l)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ledgers[l.LearnerID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.ledgers))
	for id := range s.ledgers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*Ledger, 0, len(ids))
	for _, id := range ids {
		l, err := DecodeLedger(s.ledgers[id])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
