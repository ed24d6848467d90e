package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-fetch-service/internal/entity"
)

// JobQueue is the small queue port the submission path needs.
type JobQueue interface {
	Push(rec *entity.JobRecord) (int, error)
	Len() int
}

// SlotGauge exposes the admission controller's point-in-time counters.
type SlotGauge interface {
	Active() int
	Capacity() int
}

type JobService struct {
	store *Persistence
	queue JobQueue
	slots SlotGauge
	now   func() time.Time
}

func NewJobService(store *Persistence, queue JobQueue, slots SlotGauge) *JobService {
	return &JobService{store: store, queue: queue, slots: slots, now: time.Now}
}

type SubmitRequest struct {
	SourceURL       string
	FormatSelector  string
	ContentKind     entity.ContentKind
	RequesterID     string
	RequesterName   string
	ReplyChannelID  string
	Title           string
	DurationSeconds float64
	IsBatch         bool
	BatchSize       int
}

type Snapshot struct {
	Queued   int `json:"queued"`
	Active   int `json:"active"`
	Capacity int `json:"capacity"`
}

// Submit validates a request, creates the queued record, persists it and
// enqueues it. Returns the job id and a queue-position estimate.
func (s *JobService) Submit(ctx context.Context, req SubmitRequest) (string, int, error) {
	if !strings.HasPrefix(req.SourceURL, "http://") && !strings.HasPrefix(req.SourceURL, "https://") {
		return "", 0, errors.New("source_url must be an http(s) URL")
	}
	if req.ContentKind != entity.KindVideo && req.ContentKind != entity.KindAudio {
		return "", 0, errors.New("content_kind must be video or audio")
	}

	title := req.Title
	if title == "" {
		title = "unknown"
	}
	duration := req.DurationSeconds
	if duration < 0 {
		duration = 0
	}

	rec := &entity.JobRecord{
		ID:              uuid.New().String(),
		SourceURL:       req.SourceURL,
		FormatSelector:  req.FormatSelector,
		ContentKind:     req.ContentKind,
		RequesterID:     req.RequesterID,
		RequesterName:   req.RequesterName,
		ReplyChannelID:  req.ReplyChannelID,
		SubmittedAt:     s.now().UTC(),
		Title:           title,
		DurationSeconds: duration,
		IsBatch:         req.IsBatch,
		BatchSize:       req.BatchSize,
		Status:          entity.StatusQueued,
	}

	s.store.Upsert(ctx, rec)

	pos, err := s.queue.Push(rec)
	if err != nil {
		rec.Fail(entity.FailFetch, "queue full, submission rejected", s.now().UTC())
		s.store.Upsert(ctx, rec)
		return "", 0, err
	}

	log.Printf("[submit] job_id=%s kind=%s batch=%t position=%d", rec.ID, rec.ContentKind, rec.IsBatch, pos)
	return rec.ID, pos, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*entity.JobRecord, error) {
	return s.store.Lookup(ctx, id)
}

// Snapshot is the read-only view of what the queue is doing right now.
func (s *JobService) Snapshot() Snapshot {
	return Snapshot{
		Queued:   s.queue.Len(),
		Active:   s.slots.Active(),
		Capacity: s.slots.Capacity(),
	}
}

func (s *JobService) Stats(ctx context.Context) entity.Stats {
	return s.store.Stats(ctx)
}
