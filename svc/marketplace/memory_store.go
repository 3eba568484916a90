package marketplace

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store for tests and local development.
type memoryStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*User
	usersByEmail  map[string]uuid.UUID
	cappers       map[uuid.UUID]*Capper
	plans         map[uuid.UUID]*Plan
	verifications map[uuid.UUID]*VerificationRequest // keyed by capper ID
	settings      *PlatformSettings
}

// NewMemoryStore returns an empty in-memory marketplace store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:         make(map[uuid.UUID]*User),
		usersByEmail:  make(map[string]uuid.UUID),
		cappers:       make(map[uuid.UUID]*Capper),
		plans:         make(map[uuid.UUID]*Plan),
		verifications: make(map[uuid.UUID]*VerificationRequest),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *memoryStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, taken := s.usersByEmail[key]; taken {
		return ErrEmailTaken
	}
	cp := *user
	s.users[user.ID] = &cp
	s.usersByEmail[key] = user.ID
	return nil
}

func (s *memoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *memoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *memoryStore) SetBillingCustomerID(ctx context.Context, userID uuid.UUID, customerID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if user.BillingCustomerID == nil {
		user.BillingCustomerID = &customerID
	}
	return copyUser(user), nil
}

func (s *memoryStore) SetPayoutAccountID(ctx context.Context, userID uuid.UUID, accountID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.PayoutAccountID = &accountID
	return copyUser(user), nil
}

func (s *memoryStore) CreateCapper(ctx context.Context, capper *Capper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *capper
	s.cappers[capper.UserID] = &cp
	return nil
}

func (s *memoryStore) GetCapper(ctx context.Context, userID uuid.UUID) (*Capper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	capper, ok := s.cappers[userID]
	if !ok {
		return nil, ErrCapperNotFound
	}
	cp := *capper
	return &cp, nil
}

func (s *memoryStore) ListCappers(ctx context.Context) ([]Capper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Capper, 0, len(s.cappers))
	for _, capper := range s.cappers {
		out = append(out, *capper)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) SetCapperVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	capper, ok := s.cappers[userID]
	if !ok {
		return ErrCapperNotFound
	}
	capper.Verified = verified
	return nil
}

func (s *memoryStore) CreatePlan(ctx context.Context, plan *Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *memoryStore) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := *plan
	return &cp, nil
}

func (s *memoryStore) ListPlansByCapper(ctx context.Context, capperID uuid.UUID) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Plan
	for _, plan := range s.plans {
		if plan.CapperID == capperID {
			out = append(out, *plan)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) UpsertVerificationRequest(ctx context.Context, capperID uuid.UUID, note string) (*VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.verifications[capperID]; ok {
		existing.Status = VerificationPending
		existing.Note = note
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	req := &VerificationRequest{
		ID:        uuid.New(),
		CapperID:  capperID,
		Status:    VerificationPending,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.verifications[capperID] = req
	cp := *req
	return &cp, nil
}

func (s *memoryStore) GetVerificationRequest(ctx context.Context, capperID uuid.UUID) (*VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.verifications[capperID]
	if !ok {
		return nil, ErrVerificationNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *memoryStore) ListPendingVerificationRequests(ctx context.Context) ([]VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []VerificationRequest
	for _, req := range s.verifications {
		if req.Status == VerificationPending {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) SetVerificationStatus(ctx context.Context, capperID uuid.UUID, status VerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.verifications[capperID]
	if !ok {
		return ErrVerificationNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryStore) GetSettings(ctx context.Context) (*PlatformSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	return &cp, nil
}

func (s *memoryStore) UpsertSettings(ctx context.Context, settings *PlatformSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *settings
	cp.UpdatedAt = time.Now().UTC()
	s.settings = &cp
	return nil
}

func copyUser(user *User) *User {
	cp := *user
	if user.BillingCustomerID != nil {
		v := *user.BillingCustomerID
		cp.BillingCustomerID = &v
	}
	if user.PayoutAccountID != nil {
		v := *user.PayoutAccountID
		cp.PayoutAccountID = &v
	}
	return &cp
}
