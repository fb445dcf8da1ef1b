package pipeline

import (
	"sort"
	"sync"
	"time"
)

// HistoryStore keeps finished run results in memory, queryable by run ID,
// pipeline name, outcome and start time. A positive capacity evicts the
// oldest results first.
type HistoryStore struct {
	mu       sync.RWMutex
	capacity int
	results  map[string]*Result
	order    []string
}

// NewHistoryStore creates a HistoryStore. capacity <= 0 means unbounded.
func NewHistoryStore(capacity int) *HistoryStore {
	return &HistoryStore{
		capacity: capacity,
		results:  make(map[string]*Result),
	}
}

// Save stores a result.
func (s *HistoryStore) Save(r *Result) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[r.RunID]; !exists {
		s.order = append(s.order, r.RunID)
	}
	s.results[r.RunID] = r

	for s.capacity > 0 && len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.results, oldest)
	}
}

// Get retrieves a result by run ID.
func (s *HistoryStore) Get(runID string) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[runID]
	return r, ok
}

// Len returns the number of stored results.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// ListByPipeline returns results for a pipeline, oldest first.
func (s *HistoryStore) ListByPipeline(name string) []*Result {
	return s.filter(func(r *Result) bool { return r.Pipeline == name })
}

// ListBySuccess returns results with the given outcome, oldest first.
func (s *HistoryStore) ListBySuccess(success bool) []*Result {
	return s.filter(func(r *Result) bool { return r.Success == success })
}

// ListByTimeRange returns results started within [start, end].
func (s *HistoryStore) ListByTimeRange(start, end time.Time) []*Result {
	return s.filter(func(r *Result) bool {
		return !r.StartedAt.Before(start) && !r.StartedAt.After(end)
	})
}

func (s *HistoryStore) filter(keep func(*Result) bool) []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Result
	for _, id := range s.order {
		if r := s.results[id]; keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
