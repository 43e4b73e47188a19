package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/flatten"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/infra/postgres"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
)

// Step 1: StartRunStep records the ingestion run as RUNNING.
type StartRunStep struct {
	Repo Repository
}

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.StartRun(ctx, state.ExecutionID, state.ShopID, state.TargetDate); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("execution_id", state.ExecutionID).
		Str("shop_id", state.ShopID).
		Str("target_date", state.TargetDate).
		Msg("ingestion run started")
	return nil
}

// Step 2: FetchInvoicesStep pulls the invoice documents for the target date.
type FetchInvoicesStep struct {
	Source InvoiceSource
}

func (s *FetchInvoicesStep) Execute(ctx context.Context, state *PipelineState) error {
	date, err := time.Parse("2006-01-02", state.TargetDate)
	if err != nil {
		return fmt.Errorf("invalid target date %q: %w", state.TargetDate, err)
	}

	docs, err := s.Source.FetchInvoicesForDate(ctx, date)
	if err != nil {
		return err
	}
	state.Documents = docs

	log := logger.FromContext(ctx)
	log.Info().
		Str("shop_id", state.ShopID).
		Int("invoices", len(docs)).
		Msg("fetched invoices")
	return nil
}

// Step 3: ProcessInvoicesStep stores, flattens and inserts every fetched
// invoice. Each invoice succeeds or fails on its own: a bad document is
// counted, its raw row (if any) is marked failed, and the loop moves on.
type ProcessInvoicesStep struct {
	Repo Repository
}

func (s *ProcessInvoicesStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	for _, doc := range state.Documents {
		invoiceID := doc.Invoice.PrimaryKey.String()

		if err := s.processOne(ctx, state, &doc); err != nil {
			state.InvoicesFailed++
			state.FailedInvoices = append(state.FailedInvoices, invoiceID)
			log.Error().Err(err).
				Str("invoice_id", invoiceID).
				Msg("invoice failed, continuing with remaining invoices")
			continue
		}
		state.InvoicesProcessed++
	}

	log.Info().
		Int("processed", state.InvoicesProcessed).
		Int("failed", state.InvoicesFailed).
		Int("line_items", state.LineItemsCreated).
		Msg("invoice processing finished")
	return nil
}

func (s *ProcessInvoicesStep) processOne(ctx context.Context, state *PipelineState, doc *fullbay.Document) error {
	invoiceID := doc.Invoice.PrimaryKey.String()
	if invoiceID == "" {
		return &flatten.MissingInvoiceIDError{InvoiceNumber: doc.Invoice.InvoiceNumber}
	}

	rawID, err := s.Repo.StoreRawInvoice(ctx, invoiceID, doc.Raw)
	if err != nil {
		return fmt.Errorf("storing raw invoice: %w", err)
	}
	state.RawRecordsStored++

	items, warnings, err := flatten.Flatten(doc.Invoice, rawID)
	if err != nil {
		s.markRawFailed(ctx, invoiceID, err)
		return fmt.Errorf("flattening invoice: %w", err)
	}
	for _, w := range warnings {
		state.Warnings = append(state.Warnings, fmt.Sprintf("invoice %s: %s", invoiceID, w))
	}

	inserted, err := s.Repo.InsertLineItems(ctx, items)
	if err != nil {
		s.markRawFailed(ctx, invoiceID, err)
		return fmt.Errorf("inserting line items: %w", err)
	}
	state.LineItemsCreated += inserted

	if err := s.Repo.MarkRawProcessed(ctx, rawID); err != nil {
		return fmt.Errorf("marking raw invoice processed: %w", err)
	}
	return nil
}

func (s *ProcessInvoicesStep) markRawFailed(ctx context.Context, invoiceID string, procErr error) {
	if err := s.Repo.MarkRawFailed(ctx, invoiceID, procErr); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Str("invoice_id", invoiceID).
			Msg("could not record processing error on raw row")
	}
}

// Step 4: FinishRunStep closes out the run with its final status and
// counters.
type FinishRunStep struct {
	Repo Repository
}

func (s *FinishRunStep) Execute(ctx context.Context, state *PipelineState) error {
	status := "SUCCESS"
	errMsg := ""
	switch {
	case state.InvoicesFailed > 0 && state.InvoicesProcessed == 0:
		status = "FAILED"
		errMsg = fmt.Sprintf("all %d invoices failed", state.InvoicesFailed)
	case state.InvoicesFailed > 0:
		status = "PARTIAL_SUCCESS"
		errMsg = fmt.Sprintf("%d of %d invoices failed", state.InvoicesFailed,
			state.InvoicesFailed+state.InvoicesProcessed)
	}

	result := postgres.RunResult{
		Status:           status,
		RecordsProcessed: state.InvoicesProcessed,
		RecordsInserted:  state.LineItemsCreated,
		RawRecordsStored: state.RawRecordsStored,
		LineItemsCreated: state.LineItemsCreated,
		ErrorsCount:      state.InvoicesFailed,
		ErrorMessage:     errMsg,
	}
	if err := s.Repo.FinishRun(ctx, state.ExecutionID, result); err != nil {
		return err
	}

	successRate := 100.0
	if total := state.InvoicesProcessed + state.InvoicesFailed; total > 0 {
		successRate = 100.0 * float64(state.InvoicesProcessed) / float64(total)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("execution_id", state.ExecutionID).
		Str("status", status).
		Int("invoices_processed", state.InvoicesProcessed).
		Int("invoices_failed", state.InvoicesFailed).
		Int("raw_records_stored", state.RawRecordsStored).
		Int("line_items_created", state.LineItemsCreated).
		Int("warnings", len(state.Warnings)).
		Float64("success_rate", successRate).
		Dur("duration", time.Since(state.StartedAt)).
		Msg("ingestion run finished")
	return nil
}
