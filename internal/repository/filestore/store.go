package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"media-fetch-service/internal/entity"
)

var ErrNotFound = errors.New("not found")

// Store is the durable local fallback: a JSON array of records, one entry
// per job_id, rewritten whole on every upsert. The mutex guards against
// lost updates when several jobs finalize concurrently.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Upsert replaces the record with matching job_id, or appends it.
func (s *Store) Upsert(_ context.Context, rec *entity.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()

	replaced := false
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = *rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, *rec)
	}

	return s.write(records)
}

func (s *Store) GetByID(_ context.Context, id string) (*entity.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.load() {
		if rec.ID == id {
			r := rec
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) Stats(_ context.Context) (entity.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats entity.Stats
	byRequester := map[string]*entity.RequesterCount{}

	for _, rec := range s.load() {
		stats.Total++
		switch rec.Status {
		case entity.StatusCompleted:
			stats.Completed++
		case entity.StatusFailed:
			stats.Failed++
		default:
			stats.InProgress++
		}
		if rec.RequesterID == "" {
			continue
		}
		rc, ok := byRequester[rec.RequesterID]
		if !ok {
			rc = &entity.RequesterCount{RequesterID: rec.RequesterID, RequesterName: rec.RequesterName}
			byRequester[rec.RequesterID] = rc
		}
		rc.Count++
	}

	for _, rc := range byRequester {
		stats.TopRequesters = append(stats.TopRequesters, *rc)
	}
	sort.Slice(stats.TopRequesters, func(i, j int) bool {
		a, b := stats.TopRequesters[i], stats.TopRequesters[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.RequesterID < b.RequesterID
	})
	if len(stats.TopRequesters) > 5 {
		stats.TopRequesters = stats.TopRequesters[:5]
	}
	return stats, nil
}

// load reads the record set, treating a missing or corrupt file as empty.
func (s *Store) load() []entity.JobRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[filestore] read %s error=%v", s.path, err)
		}
		return nil
	}

	var records []entity.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("[filestore] corrupt record set in %s, starting empty: %v", s.path, err)
		return nil
	}
	return records
}

// write rewrites the whole set atomically via a temp file and rename.
func (s *Store) write(records []entity.JobRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
