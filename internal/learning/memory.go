package learning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opennotary/titleparse/internal/entity"
)

// MemoryStore is the in-memory Store used by tests and learning-disabled
// runs. Same append-then-derive contract as the SQLite store.
type MemoryStore struct {
	mu          sync.RWMutex
	outcomes    []entity.ValidationOutcome
	stats       map[statKey]*entity.RuleStatistic
	corrections map[corrKey]*entity.CorrectionMapping
	counters    Counters
}

type statKey struct{ ruleID, field string }
type corrKey struct{ field, wrong string }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stats:       make(map[statKey]*entity.RuleStatistic),
		corrections: make(map[corrKey]*entity.CorrectionMapping),
	}
}

func (s *MemoryStore) Append(_ context.Context, o entity.ValidationOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	s.outcomes = append(s.outcomes, o)

	key := statKey{o.RuleID, o.Field}
	st := s.stats[key]
	if st == nil {
		st = &entity.RuleStatistic{RuleID: o.RuleID, Field: o.Field}
		s.stats[key] = st
	}
	if o.Confirmed() {
		st.SuccessCount++
		s.counters.Confirmations++
	} else {
		st.FailureCount++
		s.counters.Corrections++

		ck := corrKey{o.Field, o.Extracted}
		cm := s.corrections[ck]
		if cm == nil {
			cm = &entity.CorrectionMapping{Field: o.Field, Wrong: o.Extracted}
			s.corrections[ck] = cm
		}
		cm.Corrected = *o.Corrected
		cm.Occurrences++
	}
	if o.Context != "" {
		st.Examples = append(st.Examples, o.Context)
		if len(st.Examples) > maxExamples {
			st.Examples = st.Examples[len(st.Examples)-maxExamples:]
		}
	}
	s.counters.Outcomes++
	return nil
}

func (s *MemoryStore) RuleAccuracy(_ context.Context, ruleID, field string) (float64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats[statKey{ruleID, field}]
	if st == nil {
		return 0, 0, nil
	}
	return st.Accuracy(), st.Samples(), nil
}

func (s *MemoryStore) Correction(_ context.Context, field, wrong string) (string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cm := s.corrections[corrKey{field, wrong}]
	if cm == nil {
		return "", 0, nil
	}
	return cm.Corrected, cm.Occurrences, nil
}

func (s *MemoryStore) RuleStats(_ context.Context) ([]entity.RuleStatistic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.RuleStatistic, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RuleID != out[j].RuleID {
			return out[i].RuleID < out[j].RuleID
		}
		return out[i].Field < out[j].Field
	})
	return out, nil
}

func (s *MemoryStore) Corrections(_ context.Context) ([]entity.CorrectionMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.CorrectionMapping, 0, len(s.corrections))
	for _, cm := range s.corrections {
		out = append(out, *cm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Wrong < out[j].Wrong
	})
	return out, nil
}

func (s *MemoryStore) Counters(_ context.Context) (Counters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters, nil
}

// Outcomes returns a copy of the raw history, for tests asserting the
// derived views stay reproducible.
func (s *MemoryStore) Outcomes() []entity.ValidationOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.ValidationOutcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

func (s *MemoryStore) Close() error { return nil }
