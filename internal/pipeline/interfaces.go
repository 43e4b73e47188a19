package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/flatten"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/infra/postgres"
)

// InvoiceSource fetches invoice documents for a target date. The Fullbay
// API client is the production implementation; tests substitute a mock.
type InvoiceSource interface {
	FetchInvoicesForDate(ctx context.Context, date time.Time) ([]fullbay.Document, error)
}

// Repository is the persistence surface the pipeline needs. *postgres.Store
// is the production implementation; tests substitute a mock.
type Repository interface {
	StoreRawInvoice(ctx context.Context, fullbayInvoiceID string, raw json.RawMessage) (int64, error)
	MarkRawProcessed(ctx context.Context, rawDataID int64) error
	MarkRawFailed(ctx context.Context, fullbayInvoiceID string, procErr error) error
	InsertLineItems(ctx context.Context, items []*flatten.LineItem) (int, error)
	StartRun(ctx context.Context, executionID, shopID, targetDate string) error
	FinishRun(ctx context.Context, executionID string, result postgres.RunResult) error
}
