package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"media-fetch-service/internal/entity"
)

// Notifier delivers job lifecycle events to the front end. Delivery is
// best-effort everywhere: a failed send is logged and never affects the
// job's status.
type Notifier interface {
	Started(ctx context.Context, rec *entity.JobRecord)
	Completed(ctx context.Context, rec *entity.JobRecord)
	Failed(ctx context.Context, rec *entity.JobRecord)
	TooLarge(ctx context.Context, rec *entity.JobRecord, file entity.FileInfo)
	Truncated(ctx context.Context, rec *entity.JobRecord, total, sent int)
}

// Webhook posts events as JSON to a configured endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) post(ctx context.Context, event string, payload map[string]any) {
	payload["event"] = event

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[notify] event=%s marshal error=%v", event, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[notify] event=%s request error=%v", event, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		log.Printf("[notify] event=%s send error=%v", event, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("[notify] event=%s status=%d", event, resp.StatusCode)
	}
}

func (w *Webhook) Started(ctx context.Context, rec *entity.JobRecord) {
	w.post(ctx, "started", map[string]any{
		"job_id":  rec.ID,
		"title":   rec.Title,
		"channel": rec.ReplyChannelID,
	})
}

func (w *Webhook) Completed(ctx context.Context, rec *entity.JobRecord) {
	w.post(ctx, "completed", map[string]any{
		"job_id":  rec.ID,
		"title":   rec.Title,
		"channel": rec.ReplyChannelID,
		"files":   rec.Files,
	})
}

func (w *Webhook) Failed(ctx context.Context, rec *entity.JobRecord) {
	w.post(ctx, "failed", map[string]any{
		"job_id":      rec.ID,
		"channel":     rec.ReplyChannelID,
		"reason_kind": rec.FailureKind,
		"message":     rec.Error,
	})
}

func (w *Webhook) TooLarge(ctx context.Context, rec *entity.JobRecord, file entity.FileInfo) {
	w.post(ctx, "too_large", map[string]any{
		"job_id":    rec.ID,
		"channel":   rec.ReplyChannelID,
		"file_name": file.Name,
		"size":      file.Size,
	})
}

func (w *Webhook) Truncated(ctx context.Context, rec *entity.JobRecord, total, sent int) {
	w.post(ctx, "truncated", map[string]any{
		"job_id":      rec.ID,
		"channel":     rec.ReplyChannelID,
		"total_files": total,
		"sent_count":  sent,
	})
}

// Log is the fallback notifier when no webhook is configured.
type Log struct{}

func NewLog() Log { return Log{} }

func (Log) Started(_ context.Context, rec *entity.JobRecord) {
	log.Printf("[notify] event=started job_id=%s title=%q", rec.ID, rec.Title)
}

func (Log) Completed(_ context.Context, rec *entity.JobRecord) {
	log.Printf("[notify] event=completed job_id=%s files=%d", rec.ID, len(rec.Files))
}

func (Log) Failed(_ context.Context, rec *entity.JobRecord) {
	log.Printf("[notify] event=failed job_id=%s kind=%s message=%q", rec.ID, rec.FailureKind, rec.Error)
}

func (Log) TooLarge(_ context.Context, rec *entity.JobRecord, file entity.FileInfo) {
	log.Printf("[notify] event=too_large job_id=%s file=%q size=%d", rec.ID, file.Name, file.Size)
}

func (Log) Truncated(_ context.Context, rec *entity.JobRecord, total, sent int) {
	log.Printf("[notify] event=truncated job_id=%s total=%d sent=%d", rec.ID, total, sent)
}
