package picks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu   sync.RWMutex
	rows []Pick
	seq  int64
	ord  map[uuid.UUID]int64
}

// NewMemoryStore returns an empty in-memory pick store for tests and local
// development.
func NewMemoryStore() Store {
	return &memoryStore{ord: make(map[uuid.UUID]int64)}
}

func (s *memoryStore) Create(ctx context.Context, params CreateParams) (*Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pick := Pick{
		ID:         uuid.New(),
		CapperID:   params.CapperID,
		Event:      params.Event,
		Line:       params.Line,
		Sport:      params.Sport,
		Confidence: params.Confidence,
		Analysis:   params.Analysis,
		CreatedAt:  time.Now().UTC(),
	}
	s.rows = append(s.rows, pick)
	s.seq++
	s.ord[pick.ID] = s.seq
	return &pick, nil
}

func (s *memoryStore) ListByCapper(ctx context.Context, capperID uuid.UUID) ([]Pick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Pick
	for _, row := range s.rows {
		if row.CapperID == capperID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.ord[out[i].ID] > s.ord[out[j].ID]
	})
	return out, nil
}
