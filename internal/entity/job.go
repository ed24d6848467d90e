package entity

import (
	"time"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

type ContentKind string

const (
	KindVideo ContentKind = "video"
	KindAudio ContentKind = "audio"
)

// FailureKind classifies terminal failures for user-facing messages.
type FailureKind string

const (
	FailAccessRestricted FailureKind = "access_restricted"
	FailFetch            FailureKind = "fetch_failed"
	FailNoOutput         FailureKind = "no_output"
	FailTimeout          FailureKind = "timeout"
)

// MaxResultFiles bounds how many produced files a record keeps; the true
// total survives in FilesTotal.
const MaxResultFiles = 10

// MaxErrorLen bounds stored/displayed error text.
const MaxErrorLen = 500

type FileInfo struct {
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	Compressed     bool   `json:"compressed"`
	CompressedSize int64  `json:"compressed_size,omitempty"`
}

// JobRecord is the unit of work and its audit trail. ID is the idempotency
// key for persistence upserts.
type JobRecord struct {
	ID              string      `json:"job_id"`
	SourceURL       string      `json:"source_url"`
	FormatSelector  string      `json:"format_selector"`
	ContentKind     ContentKind `json:"content_kind"`
	RequesterID     string      `json:"requester_id"`
	RequesterName   string      `json:"requester_name"`
	ReplyChannelID  string      `json:"reply_channel_id"`
	SubmittedAt     time.Time   `json:"submitted_at"`
	Title           string      `json:"title"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
	IsBatch         bool        `json:"is_batch"`
	BatchSize       int         `json:"batch_size,omitempty"`
	Status          JobStatus   `json:"status"`
	FailureKind     FailureKind `json:"failure_kind,omitempty"`
	Error           string      `json:"error,omitempty"`
	Files           []FileInfo  `json:"files,omitempty"`
	FilesTotal      int         `json:"files_total,omitempty"`
	FilesSent       int         `json:"files_sent,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

func (r *JobRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// MarkProcessing moves a queued record to processing. Returns false if the
// record is not queued; transitions are one-directional.
func (r *JobRecord) MarkProcessing() bool {
	if r.Status != StatusQueued {
		return false
	}
	r.Status = StatusProcessing
	return true
}

// Complete finalizes the record with its result files. No-op on a record
// that already reached a terminal state.
func (r *JobRecord) Complete(files []FileInfo, total int, now time.Time) bool {
	if r.Terminal() {
		return false
	}
	if len(files) > MaxResultFiles {
		files = files[:MaxResultFiles]
	}
	r.Status = StatusCompleted
	r.Files = files
	r.FilesTotal = total
	r.FilesSent = len(files)
	r.CompletedAt = &now
	return true
}

// Fail finalizes the record with a classified, length-bounded error.
func (r *JobRecord) Fail(kind FailureKind, msg string, now time.Time) bool {
	if r.Terminal() {
		return false
	}
	r.Status = StatusFailed
	r.FailureKind = kind
	r.Error = TruncateError(msg)
	r.CompletedAt = &now
	return true
}

func TruncateError(msg string) string {
	if len(msg) > MaxErrorLen {
		return msg[:MaxErrorLen]
	}
	return msg
}
