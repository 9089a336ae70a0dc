package plan

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps plans as marshaled JSON so callers never share mutable
// maps with the store.
type MemoryStore struct {
	mu    sync.Mutex
	plans map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string][]byte)}
}

func (s *MemoryStore) PutPlan(p Plan) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return Plan{}, fmt.Errorf("missing plan id")
	}

	if raw, ok := s.plans[p.ID]; ok {
		var prev Plan
		if err := json.Unmarshal(raw, &prev); err != nil {
			return Plan{}, err
		}
		p.VersionNumber = prev.VersionNumber + 1
		p.CreatedAt = prev.CreatedAt
	} else {
		p.VersionNumber = 1
		if p.CreatedAt == "" {
			p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
	}
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	raw, err := json.Marshal(p)
	if err != nil {
		return Plan{}, err
	}
	s.plans[p.ID] = raw
	return p, nil
}

func (s *MemoryStore) GetPlan(planID string) (Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.plans[planID]
	if !ok {
		return Plan{}, false
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return Plan{}, false
	}
	return p, true
}

func (s *MemoryStore) PutValidation(planID string, v *ValidationVerdict) error {
	return s.update(planID, func(p *Plan) {
		p.FullPlan.Validation = v
	})
}

func (s *MemoryStore) SetPaymentStatus(planID string, status string) error {
	return s.update(planID, func(p *Plan) {
		p.PaymentStatus = status
	})
}

func (s *MemoryStore) ListPlanIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) update(planID string, mutate func(*Plan)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.plans[planID]
	if !ok {
		return fmt.Errorf("plan %s not found", planID)
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	mutate(&p)
	p.VersionNumber++
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	updated, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.plans[planID] = updated
	return nil
}
