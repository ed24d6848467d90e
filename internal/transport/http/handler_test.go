package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"media-fetch-service/internal/entity"
	"media-fetch-service/internal/queue"
	"media-fetch-service/internal/repository/filestore"
	"media-fetch-service/internal/service"
	httptransport "media-fetch-service/internal/transport/http"
	"media-fetch-service/internal/worker"
)

func newTestRouter(t *testing.T) (http.Handler, *service.JobService, *filestore.Store) {
	t.Helper()

	files := filestore.New(filepath.Join(t.TempDir(), "records.json"))
	store := service.NewPersistence(nil, nil, files)
	svc := service.NewJobService(store, queue.NewMemory(16), worker.NewAdmission(4))
	return httptransport.Routes(httptransport.NewHandler(svc)), svc, files
}

func submitBody() []byte {
	b, _ := json.Marshal(map[string]any{
		"source_url":       "https://example.com/watch?v=1",
		"format_selector":  "bestaudio/best",
		"content_kind":     "audio",
		"requester_id":     "u1",
		"requester_name":   "ana",
		"reply_channel_id": "c1",
		"title":            "some song",
		"duration_seconds": 240,
	})
	return b
}

func TestHTTP_SubmitJob_201(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(submitBody()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		ID            string `json:"job_id"`
		QueuePosition int    `json:"queue_position"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Fatalf("expected uuid job id, got %q", resp.ID)
	}
	if resp.QueuePosition != 1 {
		t.Fatalf("expected position 1, got %d", resp.QueuePosition)
	}
}

func TestHTTP_SubmitJob_400OnBadPayload(t *testing.T) {
	router, _, _ := newTestRouter(t)

	cases := map[string][]byte{
		"invalid json":     []byte("{nope"),
		"bad url scheme":   mustJSON(map[string]any{"source_url": "file:///etc/passwd", "content_kind": "video"}),
		"bad content kind": mustJSON(map[string]any{"source_url": "https://example.com/v", "content_kind": "gif"}),
	}

	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func TestHTTP_GetJob(t *testing.T) {
	router, svc, _ := newTestRouter(t)

	id, _, err := svc.Submit(context.Background(), service.SubmitRequest{
		SourceURL:   "https://example.com/watch?v=2",
		ContentKind: entity.KindVideo,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var rec entity.JobRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.ID != id || rec.Status != entity.StatusQueued {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// unknown id
	req = httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHTTP_SnapshotAndStats(t *testing.T) {
	router, svc, files := newTestRouter(t)

	if _, _, err := svc.Submit(context.Background(), service.SubmitRequest{
		SourceURL:   "https://example.com/watch?v=3",
		ContentKind: entity.KindAudio,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = files.Upsert(context.Background(), &entity.JobRecord{ID: "done", Status: entity.StatusCompleted})

	req := httptest.NewRequest(http.MethodGet, "/queue", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", rr.Code)
	}
	var snap service.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Queued != 1 || snap.Capacity != 4 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	req = httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rr.Code)
	}
	var stats entity.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.InProgress != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
