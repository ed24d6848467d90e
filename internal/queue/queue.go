package queue

import (
	"context"
	"errors"
	"time"

	"media-fetch-service/internal/entity"
)

var ErrFull = errors.New("queue full")

// Memory is the in-process FIFO feeding the dispatch loop. Pop waits a
// bounded interval so the loop can distinguish "no work" from "no capacity".
type Memory struct {
	ch chan *entity.JobRecord
}

func NewMemory(depth int) *Memory {
	if depth <= 0 {
		depth = 256
	}
	return &Memory{ch: make(chan *entity.JobRecord, depth)}
}

// Push enqueues a record and returns its queue position estimate.
func (q *Memory) Push(rec *entity.JobRecord) (int, error) {
	select {
	case q.ch <- rec:
		return len(q.ch), nil
	default:
		return 0, ErrFull
	}
}

// Pop waits up to wait for the next record. The second return is false on
// an empty-queue timeout or a cancelled context.
func (q *Memory) Pop(ctx context.Context, wait time.Duration) (*entity.JobRecord, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case rec := <-q.ch:
		return rec, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (q *Memory) Len() int {
	return len(q.ch)
}
