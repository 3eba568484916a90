package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store used in tests and local development.
// A single mutex serializes upserts, which gives the same guarantee the
// Postgres unique constraint provides: one row per external ID no matter
// how many deliveries race.
type memoryStore struct {
	mu   sync.RWMutex
	rows map[string]*Subscription // keyed by ExternalID
	seq  int64                    // insertion order, breaks CreatedAt ties
	ord  map[string]int64
}

// NewMemoryStore returns an empty in-memory subscription store.
func NewMemoryStore() Store {
	return &memoryStore{
		rows: make(map[string]*Subscription),
		ord:  make(map[string]int64),
	}
}

func (s *memoryStore) UpsertByExternalID(ctx context.Context, params UpsertParams) (*Subscription, error) {
	if params.ExternalID == "" {
		return nil, ErrMissingExternalID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.rows[params.ExternalID]; ok {
		existing.Active = params.Active
		if params.PlanID != nil {
			planID := *params.PlanID
			existing.PlanID = &planID
		}
		existing.UpdatedAt = now
		return copyRow(existing), nil
	}

	row := &Subscription{
		ID:           uuid.New(),
		ExternalID:   params.ExternalID,
		SubscriberID: params.SubscriberID,
		CapperID:     params.CapperID,
		Active:       params.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if params.PlanID != nil {
		planID := *params.PlanID
		row.PlanID = &planID
	}
	s.rows[params.ExternalID] = row
	s.seq++
	s.ord[params.ExternalID] = s.seq
	return copyRow(row), nil
}

func (s *memoryStore) GetByExternalID(ctx context.Context, externalID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[externalID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return copyRow(row), nil
}

func (s *memoryStore) FindActive(ctx context.Context, subscriberID, capperID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Subscription
	var latestOrd int64
	for externalID, row := range s.rows {
		if !row.Active || row.SubscriberID != subscriberID || row.CapperID != capperID {
			continue
		}
		if latest == nil || s.ord[externalID] > latestOrd {
			latest = row
			latestOrd = s.ord[externalID]
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	return copyRow(latest), nil
}

// copyRow returns a defensive copy so callers can't mutate stored state.
func copyRow(row *Subscription) *Subscription {
	cp := *row
	if row.PlanID != nil {
		planID := *row.PlanID
		cp.PlanID = &planID
	}
	return &cp
}
