package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// QualityReport aggregates data-quality counters over the line-item table
// for one ingestion window.
type QualityReport struct {
	TotalLineItems        int64
	MissingInvoiceNumbers int64
	MissingCustomerInfo   int64
	MissingUnitInfo       int64
	ZeroPrices            int64
	NullLaborHours        int64
	MissingPartNumbers    int64
	QualityScore          float64
}

// DataQuality computes quality counters for rows ingested on the given
// target date (invoice_date, YYYY-MM-DD). An empty date covers all rows.
func (s *Store) DataQuality(ctx context.Context, targetDate string) (*QualityReport, error) {
	base := s.db.WithContext(ctx).Model(&LineItemRow{})
	if targetDate != "" {
		base = base.Where("invoice_date = ?", targetDate)
	}

	report := &QualityReport{}

	counts := []struct {
		dst  *int64
		cond string
		args []interface{}
	}{
		{&report.TotalLineItems, "", nil},
		{&report.MissingInvoiceNumbers, "invoice_number IS NULL OR invoice_number = ''", nil},
		{&report.MissingCustomerInfo, "customer_title IS NULL OR customer_title = ''", nil},
		{&report.MissingUnitInfo, "(unit_vin IS NULL OR unit_vin = '') AND (unit IS NULL OR unit = '')", nil},
		{&report.ZeroPrices, "line_item_type = ? AND line_total = 0", []interface{}{"PART"}},
		{&report.NullLaborHours, "line_item_type = ? AND so_hours IS NULL", []interface{}{"LABOR"}},
		{&report.MissingPartNumbers, "line_item_type = ? AND (shop_part_number IS NULL OR shop_part_number = '')", []interface{}{"PART"}},
	}

	for _, c := range counts {
		q := base.Session(&gorm.Session{})
		if c.cond != "" {
			q = q.Where(c.cond, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("DataQuality: %w", err)
		}
	}

	if report.TotalLineItems > 0 {
		issues := report.MissingInvoiceNumbers +
			report.MissingCustomerInfo +
			report.MissingUnitInfo +
			report.ZeroPrices +
			report.NullLaborHours +
			report.MissingPartNumbers
		score := 100.0 * (1.0 - float64(issues)/float64(report.TotalLineItems*6))
		if score < 0 {
			score = 0
		}
		report.QualityScore = score
	} else {
		report.QualityScore = 100.0
	}

	return report, nil
}

// TypeCount is the number of line items of one type.
type TypeCount struct {
	LineItemType string
	Count        int64
}

// Stats summarizes the contents of the store.
type Stats struct {
	RawInvoices      int64
	UnprocessedRaw   int64
	LineItems        int64
	ItemsByType      []TypeCount
	IngestionRuns    int64
	LastRunStatus    string
	LastRunExecution string
}

// Statistics reports overall ingestion totals and the per-type line-item
// breakdown.
func (s *Store) Statistics(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&RawInvoice{}).Count(&stats.RawInvoices).Error; err != nil {
		return nil, fmt.Errorf("Statistics: counting raw invoices: %w", err)
	}
	if err := db.Model(&RawInvoice{}).Where("processed = ?", false).
		Count(&stats.UnprocessedRaw).Error; err != nil {
		return nil, fmt.Errorf("Statistics: counting unprocessed raw invoices: %w", err)
	}
	if err := db.Model(&LineItemRow{}).Count(&stats.LineItems).Error; err != nil {
		return nil, fmt.Errorf("Statistics: counting line items: %w", err)
	}

	if err := db.Model(&LineItemRow{}).
		Select("line_item_type, count(*) as count").
		Group("line_item_type").
		Order("count desc").
		Scan(&stats.ItemsByType).Error; err != nil {
		return nil, fmt.Errorf("Statistics: grouping by type: %w", err)
	}

	if err := db.Model(&IngestionRun{}).Count(&stats.IngestionRuns).Error; err != nil {
		return nil, fmt.Errorf("Statistics: counting runs: %w", err)
	}
	if stats.IngestionRuns > 0 {
		var last IngestionRun
		if err := db.Order("start_time desc").First(&last).Error; err != nil {
			return nil, fmt.Errorf("Statistics: reading last run: %w", err)
		}
		stats.LastRunStatus = last.Status
		stats.LastRunExecution = last.ExecutionID
	}

	return stats, nil
}

// RecentRuns returns the most recent ingestion executions, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]IngestionRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []IngestionRun
	err := s.db.WithContext(ctx).
		Order("start_time desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("RecentRuns: %w", err)
	}
	return runs, nil
}

// LineItemsForDate loads all line-item rows for one invoice date, used by
// the CSV export.
func (s *Store) LineItemsForDate(ctx context.Context, targetDate string) ([]LineItemRow, error) {
	var rows []LineItemRow
	q := s.db.WithContext(ctx).Order("fullbay_invoice_id, id")
	if targetDate != "" {
		q = q.Where("invoice_date = ?", targetDate)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("LineItemsForDate: %w", err)
	}
	return rows, nil
}
