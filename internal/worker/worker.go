package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"siteqa-reports/internal/dispatch"
	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/models"
	"siteqa-reports/internal/repository"

	"github.com/nats-io/nats.go"
)

// ArtifactStore persists rendered report artifacts
type ArtifactStore interface {
	ReportKey(organizationID, reportID, ext string) string
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Worker consumes report jobs from NATS and drives the worker-side
// transitions: queued -> processing -> completed or failed. It communicates
// progress and completion only by mutating the queue row.
type Worker struct {
	repo    repository.ReportRepository
	store   ArtifactStore
	metrics *metrics.Metrics
	conn    *nats.Conn
	subject string
	queue   string
}

// NewWorker creates a worker consuming from the given subject
func NewWorker(repo repository.ReportRepository, store ArtifactStore, metrics *metrics.Metrics, conn *nats.Conn, subject string) *Worker {
	return &Worker{
		repo:    repo,
		store:   store,
		metrics: metrics,
		conn:    conn,
		subject: subject,
		queue:   "report-workers",
	}
}

// Run subscribes and processes jobs until the context is cancelled
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.conn.QueueSubscribe(w.subject, w.queue, func(msg *nats.Msg) {
		var job dispatch.ReportJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Printf("worker: dropping undecodable job: %v", err)
			return
		}
		w.ProcessJob(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.subject, err)
	}
	log.Printf("worker started, subject=%s queue=%s", w.subject, w.queue)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.Printf("worker: error draining subscription: %v", err)
	}
	return ctx.Err()
}

// ProcessJob runs one report job end to end
func (w *Worker) ProcessJob(ctx context.Context, job dispatch.ReportJob) {
	if err := w.repo.MarkProcessing(ctx, job.ReportID); err != nil {
		// Another worker already picked it up, or the row is gone.
		log.Printf("report_id=%s: skipping, not in queued state: %v", job.ReportID, err)
		return
	}
	log.Printf("report_id=%s: processing, type=%s format=%s", job.ReportID, job.ReportType, job.Format)

	if err := w.generate(ctx, job); err != nil {
		if failErr := w.repo.MarkFailed(ctx, job.ReportID, err.Error()); failErr != nil {
			log.Printf("report_id=%s: error marking failed: %v", job.ReportID, failErr)
			return
		}
		w.metrics.IncrementFailed()
		log.Printf("report_id=%s: failed: %v", job.ReportID, err)
	}
}

func (w *Worker) generate(ctx context.Context, job dispatch.ReportJob) error {
	w.updateProgress(ctx, job.ReportID, 10, "Rendering report")
	data, contentType, err := renderReport(job)
	if err != nil {
		return err
	}

	w.updateProgress(ctx, job.ReportID, 70, "Uploading artifact")
	ext := string(job.Format)
	if job.Format == models.FormatExcel {
		ext = "csv"
	}
	key := w.store.ReportKey(job.OrganizationID, job.ReportID, ext)

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fileRef, err := w.store.UploadReport(uploadCtx, key, data, contentType)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if err := w.repo.MarkCompleted(ctx, job.ReportID, fileRef, int64(len(data))); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	w.metrics.IncrementCompleted()
	log.Printf("report_id=%s: completed, file=%s size=%d", job.ReportID, fileRef, len(data))
	return nil
}

func (w *Worker) updateProgress(ctx context.Context, reportID string, progress int, step string) {
	if err := w.repo.UpdateProgress(ctx, reportID, progress, step); err != nil {
		// Progress is advisory only
		log.Printf("report_id=%s: progress update failed: %v", reportID, err)
	}
}
