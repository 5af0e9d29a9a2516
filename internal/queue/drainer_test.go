// internal/queue/drainer_test.go
//
// Drain semantics: claim-then-process, per-row outcomes, disjoint claims.
//
// Run: go test ./internal/queue -v

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/indoai-web/web-sub001/internal/wa"
)

// scriptedSender fails targets listed in failFor and records every call.
type scriptedSender struct {
	failFor map[string]bool
	sent    []string
}

func (s *scriptedSender) Send(_ context.Context, req wa.SendRequest) (json.RawMessage, error) {
	target := req.Targets[0]
	s.sent = append(s.sent, target)
	if s.failFor[target] {
		return nil, errors.New("gateway unavailable")
	}
	return json.RawMessage(`{}`), nil
}

func newMockDrainer(t *testing.T, sender Sender) (*Drainer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	d := NewDrainer(sqlx.NewDb(db, "sqlmock"), sender)
	return d, mock
}

func claimRows(pairs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "target", "message"})
	for i := 0; i+1 < len(pairs); i += 2 {
		rows.AddRow(int64(i/2+1), pairs[i], pairs[i+1])
	}
	return rows
}

func TestDrainSendsClaimedBatch(t *testing.T) {
	sender := &scriptedSender{}
	d, mock := newMockDrainer(t, sender)

	mock.ExpectQuery(`UPDATE wa_logs`).
		WithArgs(StatusProcessing, d.workerID, StatusPending, batchSize).
		WillReturnRows(claimRows("628111", "hi", "628222", "there"))
	mock.ExpectExec(`UPDATE wa_logs`).
		WithArgs(StatusSent, int64(1), d.workerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE wa_logs`).
		WithArgs(StatusSent, int64(2), d.workerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := d.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce error: %v", err)
	}
	if n != 2 {
		t.Fatalf("sent = %d, want 2", n)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("gateway calls = %d, want 2", len(sender.sent))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDrainMarksFailedRowAndContinues(t *testing.T) {
	sender := &scriptedSender{failFor: map[string]bool{"628111": true}}
	d, mock := newMockDrainer(t, sender)

	mock.ExpectQuery(`UPDATE wa_logs`).
		WillReturnRows(claimRows("628111", "hi", "628222", "there"))
	mock.ExpectExec(`UPDATE wa_logs`).
		WithArgs(StatusFailed, int64(1), d.workerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE wa_logs`).
		WithArgs(StatusSent, int64(2), d.workerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := d.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce error: %v", err)
	}
	if n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDrainEmptyQueueSendsNothing(t *testing.T) {
	sender := &scriptedSender{}
	d, mock := newMockDrainer(t, sender)

	mock.ExpectQuery(`UPDATE wa_logs`).WillReturnRows(claimRows())

	n, err := d.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce error: %v", err)
	}
	if n != 0 || len(sender.sent) != 0 {
		t.Fatalf("sent %d rows, gateway calls %d; want zero", n, len(sender.sent))
	}
}

func TestWorkerIDsAreDistinct(t *testing.T) {
	a := NewDrainer(nil, nil)
	b := NewDrainer(nil, nil)
	if a.workerID == b.workerID {
		t.Fatal("two drainers share a worker id")
	}
}

func TestEnqueueInsertsPendingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO wa_logs`).
		WithArgs("628111", "welcome", StatusPending).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := Enqueue(context.Background(), sqlx.NewDb(db, "sqlmock"), "628111", "welcome"); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
