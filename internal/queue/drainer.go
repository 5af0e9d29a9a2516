// internal/queue/drainer.go
//
// Outbound message queue over the wa_logs table.
//
/*
Context
--------
Outbound WhatsApp messages are not sent inline; handlers enqueue a row in
`wa_logs` and a background drainer delivers them through the gateway.  That
keeps webhook latency flat and survives gateway flaps: a failed send is
marked `failed` and stays visible in the log table.

Claiming is a single UPDATE over a SKIP LOCKED subselect, tagging each
claimed row with this worker's uuid before any send happens.  Two drainers
running at once (overlapping ticks, or two instances) therefore claim
disjoint rows and nothing is double-sent.

Batch size is fixed at 10 rows per pass; the gateway applies its own
per-target delay, so a pass is already paced.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/indoai-web/web-sub001/internal/metrics"
	"github.com/indoai-web/web-sub001/internal/wa"
)

const batchSize = 10

// Row statuses in wa_logs.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSent       = "sent"
	StatusFailed     = "failed"
)

// Message is one claimed wa_logs row.
type Message struct {
	ID      int64  `db:"id"`
	Target  string `db:"target"`
	Message string `db:"message"`
}

// Sender is the slice of the gateway client the drainer needs.
type Sender interface {
	Send(ctx context.Context, req wa.SendRequest) (json.RawMessage, error)
}

// Drainer claims and delivers pending outbound messages.
type Drainer struct {
	db       *sqlx.DB
	sender   Sender
	workerID string
}

// NewDrainer returns a Drainer with a fresh worker id.
func NewDrainer(db *sqlx.DB, sender Sender) *Drainer {
	return &Drainer{db: db, sender: sender, workerID: uuid.NewString()}
}

// Enqueue appends one pending outbound message.
func Enqueue(ctx context.Context, db *sqlx.DB, target, message string) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO wa_logs (target, message, status, created_at)
        VALUES ($1, $2, $3, NOW())`,
		target, message, StatusPending)
	return err
}

// Run drains every interval until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := d.DrainOnce(ctx); err != nil {
				zap.S().Errorw("queue drain failed", "err", err)
			} else if n > 0 {
				zap.S().Infow("queue drained", "sent", n)
			}
		}
	}
}

// DrainOnce claims up to one batch and delivers it.  It returns the number
// of rows marked sent.
func (d *Drainer) DrainOnce(ctx context.Context) (int, error) {
	msgs, err := d.claim(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		_, err := d.sender.Send(ctx, wa.SendRequest{
			Targets: []string{m.Target},
			Message: m.Message,
		})
		status := StatusSent
		if err != nil {
			status = StatusFailed
			zap.S().Warnw("outbound send failed", "id", m.ID, "target", m.Target, "err", err)
		} else {
			sent++
		}
		if mErr := d.mark(ctx, m.ID, status); mErr != nil {
			// The row stays in processing; it is visible in the table for
			// manual follow-up rather than eligible for a re-send.
			zap.S().Errorw("marking queue row failed", "id", m.ID, "status", status, "err", mErr)
		}
		metrics.QueueDrainedTotal.WithLabelValues(status).Inc()
	}
	return sent, nil
}

// claim tags up to batchSize pending rows with this worker's id and returns
// them.  SKIP LOCKED keeps concurrent claimants on disjoint rows.
func (d *Drainer) claim(ctx context.Context) ([]Message, error) {
	const q = `
        UPDATE wa_logs
        SET    status = $1, worker_id = $2
        WHERE  id IN (
            SELECT id FROM wa_logs
            WHERE  status = $3
            ORDER  BY created_at
            LIMIT  $4
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, target, message`
	var msgs []Message
	err := d.db.SelectContext(ctx, &msgs, q,
		StatusProcessing, d.workerID, StatusPending, batchSize)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (d *Drainer) mark(ctx context.Context, id int64, status string) error {
	_, err := d.db.ExecContext(ctx, `
        UPDATE wa_logs
        SET    status = $1, processed_at = NOW()
        WHERE  id = $2 AND worker_id = $3`,
		status, id, d.workerID)
	return err
}
