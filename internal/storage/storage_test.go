package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/tracker"
	"github.com/predictkit/predictkit/pkg/types"
)

func testRecord() *FillRecord {
	return RecordFromEvent(tracker.Event{
		Type: tracker.EventPartialFill,
		Order: types.Order{
			ID:       "order-1",
			MarketID: "mkt-1",
			Outcome:  "Yes",
			Side:     types.Buy,
			Price:    0.42,
			Size:     10,
			Filled:   4,
		},
		FillSize: 4,
	})
}

func TestRecordFromEvent(t *testing.T) {
	record := testRecord()

	if record.ID == "" {
		t.Fatal("expected a generated record id")
	}
	if record.OrderID != "order-1" {
		t.Errorf("expected order id order-1, got %s", record.OrderID)
	}
	if record.Side != "BUY" {
		t.Errorf("expected side BUY, got %s", record.Side)
	}
	if record.Event != "partial_fill" {
		t.Errorf("expected event partial_fill, got %s", record.Event)
	}
	if record.FillSize != 4 {
		t.Errorf("expected fill size 4, got %f", record.FillSize)
	}
	if record.RecordedAt.IsZero() {
		t.Error("expected a recorded-at timestamp")
	}
}

func TestRecordFromEventUniqueIDs(t *testing.T) {
	a := testRecord()
	b := testRecord()
	if a.ID == b.ID {
		t.Error("expected distinct record ids")
	}
}

func TestConsoleStorage_StoreFill(t *testing.T) {
	storage := NewConsoleStorage(zap.NewNop())
	defer storage.Close()

	if err := storage.StoreFill(context.Background(), testRecord()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestPostgresStorage_StoreFill(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	storage := NewPostgresStorageFromDB(db, zap.NewNop())
	defer storage.Close()

	record := testRecord()

	mock.ExpectExec("INSERT INTO order_fills").
		WithArgs(
			record.ID, record.OrderID, record.MarketID, record.Outcome,
			record.Side, record.Event, record.Price, record.FillSize,
			record.FilledSize, record.OrderSize, record.RecordedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectClose()

	if err := storage.StoreFill(context.Background(), record); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := storage.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStorage_StoreFillError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	storage := NewPostgresStorageFromDB(db, zap.NewNop())
	defer db.Close()

	mock.ExpectExec("INSERT INTO order_fills").
		WillReturnError(errors.New("connection reset"))

	if err := storage.StoreFill(context.Background(), testRecord()); err == nil {
		t.Error("expected an error")
	}
}
