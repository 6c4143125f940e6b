package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	ingestdomain "github.com/pharmadesk/pharmadesk/internal/ingest/domain"
	"github.com/pharmadesk/pharmadesk/internal/ingest/progress"
)

// maxUploadBytes bounds a single submission. Real statements run well under
// this; anything larger is almost certainly a mistaken upload.
const maxUploadBytes = 32 << 20

type submitReceiptsRequest struct {
	Text      string `json:"text"`
	SourceRef string `json:"source_ref"`
}

// SubmitReceipts accepts a raw receipt dump, either as a text/plain body or
// as a JSON envelope. Small bodies are parsed inline and answered with the
// full ledger; larger ones are queued on a background worker.
func (s *Server) SubmitReceipts(c *gin.Context) {
	req := submitReceiptsRequest{}

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	} else {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.Text = string(body)
	}

	resp, err := s.ingestSvc.Submit(c.Request.Context(), ingestdomain.SubmitRequest{
		SourceKind: ingestdomain.SourceReceiptText,
		SourceRef:  strings.TrimSpace(req.SourceRef),
		Text:       req.Text,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusAccepted
	if resp.Status == ingestdomain.StatusCompleted {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// SubmitStatement accepts a spreadsheet export as a multipart upload.
func (s *Server) SubmitStatement(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		AbortWithError(c, ingestdomain.ErrUnsupportedSource)
		return
	}
	if file.Size > maxUploadBytes {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	src, err := file.Open()
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}
	defer src.Close()

	payload, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}

	resp, err := s.ingestSvc.Submit(c.Request.Context(), ingestdomain.SubmitRequest{
		SourceKind: ingestdomain.SourceStatement,
		SourceRef:  file.Filename,
		Payload:    payload,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetJob returns one job's status, progress and stats.
func (s *Server) GetJob(c *gin.Context) {
	job, err := s.ingestSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs returns recent jobs, newest first.
func (s *Server) ListJobs(c *gin.Context) {
	jobs, err := s.ingestSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// DeleteJob cancels a running job and removes its history.
func (s *Server) DeleteJob(c *gin.Context) {
	if err := s.ingestSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamJobEvents streams a job's progress as server-sent events. The stream
// ends after the terminal event. Subscribing to an already-finished job
// replays a single terminal event built from the persisted row.
func (s *Server) StreamJobEvents(c *gin.Context) {
	if s.events == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	jobID := strings.TrimSpace(c.Param("id"))
	if jobID == "" {
		AbortWithError(c, ingestdomain.ErrInvalidJobID)
		return
	}

	// Subscribe before the lookup so a terminal event landing between the
	// two cannot be missed.
	subscription, err := s.events.Subscribe(jobID)
	if err != nil && err != progress.ErrTopicClosed {
		AbortWithError(c, ingestdomain.ErrInvalidJobID)
		return
	}
	if subscription != nil {
		defer subscription.Close()
	}

	job, jobErr := s.ingestSvc.Get(c.Request.Context(), jobID)
	if jobErr != nil {
		AbortWithError(c, jobErr)
		return
	}

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	flusher.Flush()

	if job.Terminal() {
		_ = writeJobEvent(writer, terminalEventFromJob(job))
		flusher.Flush()
		return
	}

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-subscription.Events():
			if !open {
				return
			}
			if err := writeJobEvent(writer, event); err != nil {
				return
			}
			flusher.Flush()
			if event.Terminal {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func terminalEventFromJob(job ingestdomain.Job) progress.Event {
	event := progress.Event{
		JobID:    job.ID.String(),
		Progress: job.Progress,
		Status:   job.Status,
		Terminal: true,
		Error:    job.Error,
	}
	if job.Status == ingestdomain.StatusCompleted && len(job.Stats) > 0 {
		event.Stats = job.Stats
	}
	return event
}

func writeJobEvent(w io.Writer, event progress.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
