package temporal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subjectHistory owns one subject's series. Each subject has its own lock so
// concurrent writers for different subjects never contend.
type subjectHistory struct {
	mu     sync.Mutex
	series map[string][]DataPoint
}

// MemoryRepository is an in-memory Repository used in tests and
// single-process deployments.
type MemoryRepository struct {
	mu       sync.RWMutex
	subjects map[uuid.UUID]*subjectHistory
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{subjects: make(map[uuid.UUID]*subjectHistory)}
}

func (r *MemoryRepository) subject(id uuid.UUID) *subjectHistory {
	r.mu.RLock()
	h, ok := r.subjects[id]
	r.mu.RUnlock()
	if ok {
		return h
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok = r.subjects[id]; ok {
		return h
	}
	h = &subjectHistory{series: make(map[string][]DataPoint)}
	r.subjects[id] = h
	return h
}

func (r *MemoryRepository) Append(_ context.Context, subjectID uuid.UUID, condition string, p DataPoint) error {
	h := r.subject(subjectID)
	h.mu.Lock()
	h.series[condition] = append(h.series[condition], p)
	h.mu.Unlock()
	return nil
}

func (r *MemoryRepository) ListSince(_ context.Context, subjectID uuid.UUID, since time.Time) ([]Series, error) {
	h := r.subject(subjectID)
	h.mu.Lock()
	defer h.mu.Unlock()

	conditions := make([]string, 0, len(h.series))
	for cond := range h.series {
		conditions = append(conditions, cond)
	}
	sort.Strings(conditions)

	var out []Series
	for _, cond := range conditions {
		var points []DataPoint
		for _, p := range h.series[cond] {
			if !p.At.Before(since) {
				points = append(points, p)
			}
		}
		if len(points) == 0 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })
		out = append(out, Series{SubjectID: subjectID, Condition: cond, Points: points})
	}
	return out, nil
}
