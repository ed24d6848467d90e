package filestore_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-fetch-service/internal/entity"
	"media-fetch-service/internal/repository/filestore"
)

func tempStore(t *testing.T) (*filestore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	return filestore.New(path), path
}

func TestStore_UpsertIsIdempotentPerJobID(t *testing.T) {
	ctx := context.Background()
	store, path := tempStore(t)

	rec := &entity.JobRecord{ID: "job-1", Status: entity.StatusQueued, Title: "first"}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.Status = entity.StatusCompleted
	rec.Title = "second"
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	var records []entity.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("unmarshal records: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records))
	}
	if records[0].Status != entity.StatusCompleted || records[0].Title != "second" {
		t.Fatalf("expected latest fields, got %+v", records[0])
	}
}

func TestStore_ToleratesMissingAndCorruptFile(t *testing.T) {
	ctx := context.Background()
	store, path := tempStore(t)

	// missing file: lookups miss, stats are zero
	if _, err := store.GetByID(ctx, "nope"); err != filestore.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil || stats.Total != 0 {
		t.Fatalf("expected zero stats, got %+v err=%v", stats, err)
	}

	// corrupt file: treated as empty, next upsert rebuilds it
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if err := store.Upsert(ctx, &entity.JobRecord{ID: "job-2", Status: entity.StatusQueued}); err != nil {
		t.Fatalf("upsert over corrupt file: %v", err)
	}
	got, err := store.GetByID(ctx, "job-2")
	if err != nil || got.ID != "job-2" {
		t.Fatalf("expected record after rebuild, got %+v err=%v", got, err)
	}
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	store, _ := tempStore(t)
	now := time.Now().UTC()

	seed := []entity.JobRecord{
		{ID: "1", Status: entity.StatusCompleted, RequesterID: "u1", RequesterName: "ana"},
		{ID: "2", Status: entity.StatusCompleted, RequesterID: "u1", RequesterName: "ana"},
		{ID: "3", Status: entity.StatusFailed, RequesterID: "u2", RequesterName: "ben", CompletedAt: &now},
		{ID: "4", Status: entity.StatusQueued, RequesterID: "u3", RequesterName: "cam"},
		{ID: "5", Status: entity.StatusProcessing, RequesterID: "u1", RequesterName: "ana"},
	}
	for i := range seed {
		if err := store.Upsert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 5 || stats.Completed != 2 || stats.Failed != 1 || stats.InProgress != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if len(stats.TopRequesters) == 0 || stats.TopRequesters[0].RequesterID != "u1" || stats.TopRequesters[0].Count != 3 {
		t.Fatalf("expected u1 on top with 3, got %+v", stats.TopRequesters)
	}
}

func TestStore_ConcurrentUpsertsDoNotLoseRecords(t *testing.T) {
	ctx := context.Background()
	store, _ := tempStore(t)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			rec := &entity.JobRecord{ID: string(rune('a' + n)), Status: entity.StatusCompleted}
			_ = store.Upsert(ctx, rec)
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 8 {
		t.Fatalf("expected 8 records after concurrent upserts, got %d", stats.Total)
	}
}
