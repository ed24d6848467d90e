package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"media-fetch-service/internal/entity"
	"media-fetch-service/internal/service"
)

type Handler struct {
	jobSvc *service.JobService
}

func NewHandler(jobSvc *service.JobService) *Handler {
	return &Handler{jobSvc: jobSvc}
}

type submitJobDTO struct {
	SourceURL       string  `json:"source_url"`
	FormatSelector  string  `json:"format_selector"`
	ContentKind     string  `json:"content_kind"` // video | audio
	RequesterID     string  `json:"requester_id"`
	RequesterName   string  `json:"requester_name"`
	ReplyChannelID  string  `json:"reply_channel_id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	IsBatch         bool    `json:"is_batch"`
	BatchSize       int     `json:"batch_size"`
}

type submitJobResp struct {
	ID            string `json:"job_id"`
	QueuePosition int    `json:"queue_position"`
}

// SubmitJob godoc
// @Summary Submit a media-fetch job
// @Description Creates the job record (queued) and enqueues it for background execution.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body submitJobDTO true "job request"
// @Success 201 {object} submitJobResp
// @Failure 400 {object} apiError
// @Router /jobs [post]
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var dto submitJobDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, pos, err := h.jobSvc.Submit(r.Context(), service.SubmitRequest{
		SourceURL:       dto.SourceURL,
		FormatSelector:  dto.FormatSelector,
		ContentKind:     entity.ContentKind(dto.ContentKind),
		RequesterID:     dto.RequesterID,
		RequesterName:   dto.RequesterName,
		ReplyChannelID:  dto.ReplyChannelID,
		Title:           dto.Title,
		DurationSeconds: dto.DurationSeconds,
		IsBatch:         dto.IsBatch,
		BatchSize:       dto.BatchSize,
	})
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, submitJobResp{ID: id, QueuePosition: pos})
}

// GetJob godoc
// @Summary Get job record by id
// @Tags jobs
// @Produce json
// @Param id path string true "job id (uuid)"
// @Success 200 {object} entity.JobRecord
// @Failure 404 {object} apiError
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.jobSvc.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// GetSnapshot godoc
// @Summary Current queue depth and active-job count
// @Tags queue
// @Produce json
// @Success 200 {object} service.Snapshot
// @Router /queue [get]
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.jobSvc.Snapshot())
}

// GetStats godoc
// @Summary Aggregate stats over the persisted record set
// @Tags queue
// @Produce json
// @Success 200 {object} entity.Stats
// @Router /stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.jobSvc.Stats(r.Context()))
}
