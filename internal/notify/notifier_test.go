package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"media-fetch-service/internal/entity"
	"media-fetch-service/internal/notify"
)

func testRecord() *entity.JobRecord {
	return &entity.JobRecord{
		ID:             "job-1",
		Title:          "some clip",
		ReplyChannelID: "chan-9",
		FailureKind:    entity.FailFetch,
		Error:          "yt-dlp failed",
		Files: []entity.FileInfo{
			{Name: "clip.mp4", Size: 1024},
		},
	}
}

func capture(t *testing.T) (*notify.Webhook, *[]map[string]any) {
	t.Helper()

	var events []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		events = append(events, payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	return notify.NewWebhook(srv.URL), &events
}

func TestWebhookFailedPayload(t *testing.T) {
	wh, events := capture(t)

	wh.Failed(context.Background(), testRecord())

	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(*events))
	}
	got := (*events)[0]
	if got["event"] != "failed" || got["job_id"] != "job-1" {
		t.Fatalf("unexpected payload %v", got)
	}
	if got["reason_kind"] != string(entity.FailFetch) || got["message"] != "yt-dlp failed" {
		t.Fatalf("unexpected failure fields %v", got)
	}
}

func TestWebhookCompletedPayload(t *testing.T) {
	wh, events := capture(t)

	wh.Completed(context.Background(), testRecord())

	got := (*events)[0]
	if got["event"] != "completed" || got["title"] != "some clip" || got["channel"] != "chan-9" {
		t.Fatalf("unexpected payload %v", got)
	}
	files, ok := got["files"].([]any)
	if !ok || len(files) != 1 {
		t.Fatalf("expected one file in payload, got %v", got["files"])
	}
}

func TestWebhookTruncatedPayload(t *testing.T) {
	wh, events := capture(t)

	wh.Truncated(context.Background(), testRecord(), 12, 10)

	got := (*events)[0]
	if got["event"] != "truncated" || got["total_files"] != float64(12) || got["sent_count"] != float64(10) {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestWebhookDeliveryFailureIsSilent(t *testing.T) {
	wh := notify.NewWebhook("http://127.0.0.1:0/unreachable")

	// Must not panic or block the caller.
	wh.Started(context.Background(), testRecord())
	wh.Failed(context.Background(), testRecord())
}
