package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"media-fetch-service/internal/entity"
	"media-fetch-service/internal/notify"
)

// JobSource is the queue port the dispatch loop pulls from.
type JobSource interface {
	Pop(ctx context.Context, wait time.Duration) (*entity.JobRecord, bool)
}

// RecordStore is the persistence facade port. Upsert is contractually
// infallible: backend errors are contained on the other side.
type RecordStore interface {
	Upsert(ctx context.Context, rec *entity.JobRecord)
}

// Dispatcher is the single driver of job execution: it polls the admission
// gate, pulls queued jobs in FIFO order and supervises each one under its
// derived deadline.
type Dispatcher struct {
	queue     JobSource
	slots     *Admission
	processor *Processor
	store     RecordStore
	notifier  notify.Notifier

	defaultTimeout time.Duration
	pollInterval   time.Duration
}

func NewDispatcher(
	queue JobSource,
	slots *Admission,
	processor *Processor,
	store RecordStore,
	notifier notify.Notifier,
	defaultTimeout, pollInterval time.Duration,
) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Dispatcher{
		queue:          queue,
		slots:          slots,
		processor:      processor,
		store:          store,
		notifier:       notifier,
		defaultTimeout: defaultTimeout,
		pollInterval:   pollInterval,
	}
}

// Run loops until ctx is cancelled. Full admission and an empty queue are
// backpressure, not errors: both just delay the next attempt.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Printf("[dispatch] loop started: capacity=%d", d.slots.Capacity())

	for {
		if ctx.Err() != nil {
			log.Println("[dispatch] loop stopped")
			return
		}

		if d.slots.AtCapacity() {
			if !sleepCtx(ctx, d.pollInterval) {
				return
			}
			continue
		}

		rec, ok := d.queue.Pop(ctx, d.pollInterval)
		if !ok {
			continue
		}

		for !d.slots.TryAcquire(rec.ID) {
			if !sleepCtx(ctx, d.pollInterval) {
				return
			}
		}

		rec.MarkProcessing()
		d.store.Upsert(ctx, rec)

		deadline := Deadline(rec.DurationSeconds, d.defaultTimeout)
		log.Printf("[dispatch] job_id=%s status=processing deadline=%s", rec.ID, deadline)

		go d.supervise(ctx, rec, deadline)
	}
}

// supervise runs one job under its deadline. On expiry the job context is
// cancelled, which kills the external fetch process group; the timeout
// record is only written after the executor goroutine has unwound (its
// defer removes the workdir and releases the slot), so a single goroutine
// ever touches the record at a time.
func (d *Dispatcher) supervise(ctx context.Context, rec *entity.JobRecord, deadline time.Duration) {
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.processor.Execute(jobCtx, rec)
	}()

	select {
	case <-done:
	case <-jobCtx.Done():
		<-done
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			d.failTimeout(rec, deadline)
		}
	}
}

func (d *Dispatcher) failTimeout(rec *entity.JobRecord, deadline time.Duration) {
	msg := fmt.Sprintf("execution exceeded the %s limit", deadline)
	if !rec.Fail(entity.FailTimeout, msg, time.Now().UTC()) {
		// executor reached a terminal state before the deadline write
		return
	}

	log.Printf("[dispatch] job_id=%s status=failed kind=%s deadline=%s", rec.ID, entity.FailTimeout, deadline)

	// the job context is already dead, persist and notify on a fresh one
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.store.Upsert(ctx, rec)
	d.notifier.Failed(ctx, rec)
}

// sleepCtx waits the interval, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
