package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/flatten"
)

// Store persists raw invoice payloads, flattened line items and ingestion
// run metadata to Postgres.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("Open: connecting to postgres: %w", err)
	}

	if err := db.AutoMigrate(&RawInvoice{}, &LineItemRow{}, &IngestionRun{}); err != nil {
		return nil, fmt.Errorf("Open: migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing gorm connection (used by tests).
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// StoreRawInvoice upserts one raw invoice payload keyed by its Fullbay
// invoice id and returns the row id. Re-ingesting an invoice replaces the
// payload and resets its processed state.
func (s *Store) StoreRawInvoice(ctx context.Context, fullbayInvoiceID string, raw json.RawMessage) (int64, error) {
	if fullbayInvoiceID == "" {
		return 0, fmt.Errorf("StoreRawInvoice: invoice id is empty")
	}

	row := RawInvoice{
		FullbayInvoiceID:   fullbayInvoiceID,
		RawJSONData:        []byte(raw),
		IngestionTimestamp: time.Now().UTC(),
		Processed:          false,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fullbay_invoice_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"raw_json_data":       []byte(raw),
			"ingestion_timestamp": time.Now().UTC(),
			"processed":           false,
			"processing_errors":   nil,
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("StoreRawInvoice: upserting raw data: %w", err)
	}

	// On conflict gorm does not refresh the generated id; read it back.
	if row.ID == 0 {
		var existing RawInvoice
		if err := s.db.WithContext(ctx).
			Where("fullbay_invoice_id = ?", fullbayInvoiceID).
			First(&existing).Error; err != nil {
			return 0, fmt.Errorf("StoreRawInvoice: reading back raw row: %w", err)
		}
		row.ID = existing.ID
	}

	return row.ID, nil
}

// MarkRawProcessed flags a raw invoice as successfully flattened.
func (s *Store) MarkRawProcessed(ctx context.Context, rawDataID int64) error {
	err := s.db.WithContext(ctx).Model(&RawInvoice{}).
		Where("id = ?", rawDataID).
		Updates(map[string]interface{}{"processed": true, "processing_errors": nil}).Error
	if err != nil {
		return fmt.Errorf("MarkRawProcessed: %w", err)
	}
	return nil
}

// MarkRawFailed records a processing error against a raw invoice.
func (s *Store) MarkRawFailed(ctx context.Context, fullbayInvoiceID string, procErr error) error {
	msg := procErr.Error()
	err := s.db.WithContext(ctx).Model(&RawInvoice{}).
		Where("fullbay_invoice_id = ?", fullbayInvoiceID).
		Update("processing_errors", &msg).Error
	if err != nil {
		return fmt.Errorf("MarkRawFailed: %w", err)
	}
	return nil
}

// InsertLineItems writes the flattened rows for one invoice, replacing any
// rows from a previous ingestion of the same invoice.
func (s *Store) InsertLineItems(ctx context.Context, items []*flatten.LineItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	rows := make([]*LineItemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, newLineItemRow(item))
	}

	invoiceID := rows[0].FullbayInvoiceID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fullbay_invoice_id = ?", invoiceID).
			Delete(&LineItemRow{}).Error; err != nil {
			return fmt.Errorf("deleting stale rows: %w", err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("InsertLineItems: %w", err)
	}

	return len(rows), nil
}

// newLineItemRow flattens the layered line-item record into the wide
// reporting row. This is the single point where ancestor context collapses
// into denormalized columns.
func newLineItemRow(item *flatten.LineItem) *LineItemRow {
	inv := item.Invoice

	row := &LineItemRow{
		RawDataID:        item.RawDataID,
		FullbayInvoiceID: inv.FullbayInvoiceID,
		InvoiceNumber:    strPtr(inv.InvoiceNumber),
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		ShopTitle:        strPtr(inv.ShopTitle),
		ShopEmail:        strPtr(inv.ShopEmail),
		ShopAddress:      strPtr(inv.ShopAddress),

		CustomerID:             inv.CustomerID,
		CustomerTitle:          strPtr(inv.CustomerTitle),
		CustomerExternalID:     strPtr(inv.CustomerExternalID),
		CustomerMainPhone:      strPtr(inv.CustomerMainPhone),
		CustomerSecondaryPhone: strPtr(inv.CustomerSecondaryPhone),
		CustomerBillingAddress: strPtr(inv.CustomerBillingAddress),

		FullbayServiceOrderID:      strPtr(inv.ServiceOrderID),
		RepairOrderNumber:          strPtr(inv.RepairOrderNumber),
		ServiceOrderCreated:        inv.ServiceOrderCreated,
		ServiceOrderStartDate:      inv.ServiceOrderStartDate,
		ServiceOrderCompletionDate: inv.ServiceOrderCompletionDate,

		UnitID:           strPtr(inv.UnitID),
		Unit:             strPtr(inv.Unit),
		UnitType:         strPtr(inv.UnitType),
		UnitYear:         strPtr(inv.UnitYear),
		UnitMake:         strPtr(inv.UnitMake),
		UnitModel:        strPtr(inv.UnitModel),
		UnitVIN:          strPtr(inv.UnitVIN),
		UnitLicensePlate: strPtr(inv.UnitLicensePlate),

		PrimaryTechnician:       strPtr(inv.PrimaryTechnician),
		PrimaryTechnicianNumber: strPtr(inv.PrimaryTechnicianNumber),

		LineItemType: string(item.Type),

		Quantity:             item.Quantity,
		ToBeReturnedQuantity: item.ToBeReturnedQuantity,
		ReturnedQuantity:     item.ReturnedQuantity,
		SOHours:              item.SOHours,
		TechnicianPortion:    item.TechnicianPortion,

		UnitCost:        item.UnitCost,
		UnitPrice:       item.UnitPrice,
		LineTotal:       item.LineTotal,
		PriceOverridden: item.PriceOverridden,

		Taxable:    item.Taxable,
		LineTax:    item.LineTax,
		SalesTotal: item.SalesTotal,

		InventoryItem: item.InventoryItem,
		CoreType:      strPtr(item.CoreType),
		Sublet:        item.Sublet,

		SOSuppliesTotal:    floatPtr(inv.SuppliesTotal),
		IngestionTimestamp: time.Now().UTC(),
		IngestionSource:    "fullbay_api",
	}

	if item.TaxRate > 0 {
		row.TaxRate = floatPtr(item.TaxRate)
	}

	if c := item.Complaint; c != nil {
		row.FullbayComplaintID = c.ComplaintID
		row.ComplaintType = strPtr(c.Type)
		row.ComplaintSubtype = strPtr(c.SubType)
		row.ComplaintNote = strPtr(c.Note)
		row.ComplaintCause = strPtr(c.Cause)
		authorized := c.Authorized
		row.ComplaintAuthorized = &authorized
	}

	if c := item.Correction; c != nil {
		row.FullbayCorrectionID = c.CorrectionID
		row.CorrectionTitle = strPtr(c.Title)
		row.GlobalComponent = strPtr(c.GlobalComponent)
		row.GlobalSystem = strPtr(c.GlobalSystem)
		row.GlobalService = strPtr(c.GlobalService)
		row.RecommendedCorrection = strPtr(c.RecommendedCorrection)
		row.ServiceDescription = strPtr(c.ServiceDescription)
	}

	if p := item.Part; p != nil {
		row.FullbayPartID = p.FullbayPartID
		row.PartDescription = strPtr(p.Description)
		row.ShopPartNumber = strPtr(p.ShopPartNumber)
		row.VendorPartNumber = strPtr(p.VendorPartNumber)
		row.PartCategory = strPtr(p.Category)
	}

	if l := item.Labor; l != nil {
		row.LaborDescription = strPtr(l.Description)
		row.LaborRateType = strPtr(l.RateType)
		row.AssignedTechnician = strPtr(l.Technician)
		row.AssignedTechnicianNumber = strPtr(l.TechnicianNumber)
	}

	return row
}

// StartRun records the beginning of an ingestion execution.
func (s *Store) StartRun(ctx context.Context, executionID, shopID, targetDate string) error {
	run := IngestionRun{
		ExecutionID: executionID,
		ShopID:      shopID,
		TargetDate:  targetDate,
		StartTime:   time.Now().UTC(),
		Status:      "RUNNING",
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("StartRun: %w", err)
	}
	return nil
}

// RunResult summarizes one finished ingestion execution.
type RunResult struct {
	Status           string
	RecordsProcessed int
	RecordsInserted  int
	RawRecordsStored int
	LineItemsCreated int
	ErrorsCount      int
	ErrorMessage     string
}

// FinishRun closes out an ingestion execution with its final counters.
func (s *Store) FinishRun(ctx context.Context, executionID string, result RunResult) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"end_time":           &now,
		"status":             result.Status,
		"records_processed":  result.RecordsProcessed,
		"records_inserted":   result.RecordsInserted,
		"raw_records_stored": result.RawRecordsStored,
		"line_items_created": result.LineItemsCreated,
		"errors_count":       result.ErrorsCount,
	}
	if result.ErrorMessage != "" {
		updates["error_message"] = &result.ErrorMessage
	}

	err := s.db.WithContext(ctx).Model(&IngestionRun{}).
		Where("execution_id = ?", executionID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("FinishRun: %w", err)
	}
	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func floatPtr(f float64) *float64 { return &f }
