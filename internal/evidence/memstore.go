package evidence

import (
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and single-run assessments
// that do not need persistence.
type MemStore struct {
	mu       sync.RWMutex
	scores   map[string]map[string][]PairScore // coreSet -> group -> scores
	profiles map[string]map[string]*Profile    // coreSet -> group -> profile
	reports  map[string]*ReportRecord          // run id -> record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		scores:   make(map[string]map[string][]PairScore),
		profiles: make(map[string]map[string]*Profile),
		reports:  make(map[string]*ReportRecord),
	}
}

func (s *MemStore) SavePairScores(coreSet string, scores []PairScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byGroup := s.scores[coreSet]
	if byGroup == nil {
		byGroup = make(map[string][]PairScore)
		s.scores[coreSet] = byGroup
	}
	for _, sc := range scores {
		byGroup[sc.Group] = append(byGroup[sc.Group], sc)
	}
	return nil
}

func (s *MemStore) PairScores(coreSet, group string) ([]PairScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byGroup := s.scores[coreSet]
	if byGroup == nil {
		return nil, nil
	}
	out := make([]PairScore, len(byGroup[group]))
	copy(out, byGroup[group])
	return out, nil
}

func (s *MemStore) AllPairScores(coreSet string) (map[string][]PairScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]PairScore, len(s.scores[coreSet]))
	for g, list := range s.scores[coreSet] {
		cp := make([]PairScore, len(list))
		copy(cp, list)
		out[g] = cp
	}
	return out, nil
}

func (s *MemStore) SaveProfile(coreSet string, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byGroup := s.profiles[coreSet]
	if byGroup == nil {
		byGroup = make(map[string]*Profile)
		s.profiles[coreSet] = byGroup
	}
	byGroup[p.Group] = p
	return nil
}

func (s *MemStore) Profile(coreSet, group string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byGroup := s.profiles[coreSet]
	if byGroup == nil {
		return nil, nil
	}
	return byGroup[group], nil
}

func (s *MemStore) Profiles(coreSet string) (map[string]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Profile, len(s.profiles[coreSet]))
	for g, p := range s.profiles[coreSet] {
		out[g] = p
	}
	return out, nil
}

func (s *MemStore) SaveReport(rec *ReportRecord) error {
	if rec == nil {
		return fmt.Errorf("report record is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[rec.ID] = rec
	return nil
}

func (s *MemStore) GetReport(id string) (*ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports[id], nil
}

func (s *MemStore) ListReports(coreSet string) ([]*ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ReportRecord
	for _, rec := range s.reports {
		if coreSet == "" || rec.CoreSet == coreSet {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) Close() error { return nil }
