package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"siteqa-reports/internal/models"

	"github.com/nats-io/nats.go"
)

// ReportJob is the one-way "start or resume report generation" message sent
// to the external worker. The worker never calls back; it communicates
// progress and completion by mutating the queue row.
type ReportJob struct {
	ReportID       string                 `json:"reportId"`
	ReportType     models.ReportType      `json:"reportType"`
	Format         models.ReportFormat    `json:"format"`
	Parameters     map[string]interface{} `json:"parameters"`
	OrganizationID string                 `json:"organizationId"`
	RequestedBy    string                 `json:"requestedBy"`
}

// JobForEntry builds the dispatch message for a queue entry. Retries carry
// the original requester, not the retry actor.
func JobForEntry(entry *models.ReportQueueEntry) ReportJob {
	return ReportJob{
		ReportID:       entry.ID,
		ReportType:     entry.ReportType,
		Format:         entry.Format,
		Parameters:     entry.Parameters,
		OrganizationID: entry.OrganizationID,
		RequestedBy:    entry.RequestedBy,
	}
}

// Dispatcher notifies the external worker that a report needs generating.
// Fire-and-forget: success means the notification left this process, not
// that the worker picked it up.
type Dispatcher interface {
	DispatchReportJob(ctx context.Context, job ReportJob) error
}

// NATSDispatcher publishes report jobs to a NATS subject
type NATSDispatcher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSDispatcher connects to NATS
func NewNATSDispatcher(url, subject string) (*NATSDispatcher, error) {
	conn, err := nats.Connect(url,
		nats.Name("siteqa-report-dispatcher"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSDispatcher{conn: conn, subject: subject}, nil
}

// Close drains and closes the connection
func (d *NATSDispatcher) Close() {
	if err := d.conn.Drain(); err != nil {
		log.Printf("error draining NATS connection: %v", err)
	}
}

// DispatchReportJob publishes the job and flushes so a broken connection
// surfaces as an error instead of silently buffering.
func (d *NATSDispatcher) DispatchReportJob(ctx context.Context, job ReportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode report job: %w", err)
	}
	if err := d.conn.Publish(d.subject, data); err != nil {
		return fmt.Errorf("failed to publish report job: %w", err)
	}
	if err := d.conn.FlushTimeout(2 * time.Second); err != nil {
		return fmt.Errorf("failed to flush report job: %w", err)
	}
	log.Printf("report_id=%s: dispatched to %s", job.ReportID, d.subject)
	return nil
}
