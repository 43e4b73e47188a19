// Package pipeline orchestrates one ingestion run: fetch the invoices for a
// shop and date, store each raw payload, flatten it into line items, insert
// the rows, and record the run outcome. A failure on one invoice never
// aborts the run; it is counted and the remaining invoices proceed.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/infra/postgres"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	ExecutionID string
	ShopID      string
	ShopName    string
	TargetDate  string
	StartedAt   time.Time

	Documents []fullbay.Document

	// Counters accumulated by ProcessInvoicesStep.
	InvoicesProcessed int
	InvoicesFailed    int
	RawRecordsStored  int
	LineItemsCreated  int
	Warnings          []string
	FailedInvoices    []string
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewIngestionPipeline creates the standard 4-step pipeline for ingesting
// one shop's invoices for one target date.
func NewIngestionPipeline(source InvoiceSource, repo Repository) *Pipeline {
	return NewPipeline(
		&StartRunStep{Repo: repo},
		&FetchInvoicesStep{Source: source},
		&ProcessInvoicesStep{Repo: repo},
		&FinishRunStep{Repo: repo},
	)
}

// Run executes a full ingestion for one shop and date and returns the final
// state. TargetDate is YYYY-MM-DD.
func Run(ctx context.Context, source InvoiceSource, repo Repository, shopID, shopName, targetDate string) (*PipelineState, error) {
	state := &PipelineState{
		ExecutionID: uuid.NewString(),
		ShopID:      shopID,
		ShopName:    shopName,
		TargetDate:  targetDate,
		StartedAt:   time.Now().UTC(),
	}
	if err := NewIngestionPipeline(source, repo).Execute(ctx, state); err != nil {
		// Best effort: leave a FAILED marker so the run is not stuck RUNNING.
		_ = repo.FinishRun(ctx, state.ExecutionID, postgres.RunResult{
			Status:       "FAILED",
			ErrorsCount:  1,
			ErrorMessage: err.Error(),
		})
		return state, err
	}
	return state, nil
}
