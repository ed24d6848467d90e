package service

import (
	"context"
	"errors"
	"log"

	"media-fetch-service/internal/entity"
)

var ErrNotFound = errors.New("record not found")

// DocumentStore is the primary persistence tier (implementation:
// postgresql.RecordRepository).
type DocumentStore interface {
	Upsert(ctx context.Context, rec *entity.JobRecord) error
	GetByID(ctx context.Context, id string) (*entity.JobRecord, error)
	Stats(ctx context.Context) (entity.Stats, error)
}

// FileStore is the durable local fallback tier.
type FileStore interface {
	Upsert(ctx context.Context, rec *entity.JobRecord) error
	GetByID(ctx context.Context, id string) (*entity.JobRecord, error)
	Stats(ctx context.Context) (entity.Stats, error)
}

// RecordCache is the advisory fast tier for status lookups.
type RecordCache interface {
	Put(ctx context.Context, rec *entity.JobRecord) error
	Get(ctx context.Context, id string) (*entity.JobRecord, error)
}

// Persistence degrades across three tiers: an optional cache, an optional
// document store, and the file store. Upsert never fails; every backend
// error is logged and contained here so a persistence problem can never
// become a job's terminal status.
type Persistence struct {
	cache    RecordCache
	primary  DocumentStore
	fallback FileStore
}

func NewPersistence(cache RecordCache, primary DocumentStore, fallback FileStore) *Persistence {
	return &Persistence{cache: cache, primary: primary, fallback: fallback}
}

// Upsert stores the record keyed by job_id, falling back to the file store
// when the document store is absent or failing. The advisory cache copy is
// refreshed on every transition so lookups never serve a stale status.
func (p *Persistence) Upsert(ctx context.Context, rec *entity.JobRecord) {
	p.cachePut(ctx, rec)

	if p.primary != nil {
		err := p.primary.Upsert(ctx, rec)
		if err == nil {
			return
		}
		log.Printf("[persist] job_id=%s document store error=%v, falling back to file store", rec.ID, err)
	}
	if err := p.fallback.Upsert(ctx, rec); err != nil {
		log.Printf("[persist] job_id=%s file store error=%v", rec.ID, err)
	}
}

func (p *Persistence) cachePut(ctx context.Context, rec *entity.JobRecord) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, rec); err != nil {
		log.Printf("[persist] job_id=%s cache write error=%v", rec.ID, err)
	}
}

// Lookup reads a record by id: cache first, then document store, then file
// store.
func (p *Persistence) Lookup(ctx context.Context, id string) (*entity.JobRecord, error) {
	if p.cache != nil {
		if rec, err := p.cache.Get(ctx, id); err == nil {
			return rec, nil
		}
	}
	if p.primary != nil {
		if rec, err := p.primary.GetByID(ctx, id); err == nil {
			return rec, nil
		}
	}
	rec, err := p.fallback.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Stats scans the persisted record set, preferring the document store.
func (p *Persistence) Stats(ctx context.Context) entity.Stats {
	if p.primary != nil {
		stats, err := p.primary.Stats(ctx)
		if err == nil {
			return stats
		}
		log.Printf("[persist] stats from document store error=%v, falling back", err)
	}
	stats, err := p.fallback.Stats(ctx)
	if err != nil {
		log.Printf("[persist] stats from file store error=%v", err)
		return entity.Stats{}
	}
	return stats
}
