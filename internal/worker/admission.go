package worker

import (
	"sync"
)

// Admission is the polling gate bounding how many jobs hold a worker slot.
// It never blocks: callers that fail to acquire back off and retry on the
// dispatch loop's cadence.
type Admission struct {
	mu    sync.Mutex
	slots map[string]struct{}
	limit int
}

func NewAdmission(limit int) *Admission {
	if limit <= 0 {
		limit = 4
	}
	return &Admission{
		slots: make(map[string]struct{}),
		limit: limit,
	}
}

// TryAcquire claims a slot for jobID. Returns false with no side effect
// when the gate is at capacity.
func (a *Admission) TryAcquire(jobID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.slots) >= a.limit {
		return false
	}
	a.slots[jobID] = struct{}{}
	return true
}

// Release frees the slot held by jobID. Idempotent: releasing an absent id
// is a no-op, so overlapping cleanup paths are safe.
func (a *Admission) Release(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.slots, jobID)
}

func (a *Admission) AtCapacity() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots) >= a.limit
}

func (a *Admission) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots)
}

func (a *Admission) Capacity() int {
	return a.limit
}
