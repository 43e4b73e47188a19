package postgres

import (
	"time"

	"gorm.io/datatypes"
)

// RawInvoice is the raw JSON backup of one fetched invoice document, kept
// verbatim so line items can always be recomputed from source.
type RawInvoice struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement"`
	FullbayInvoiceID   string         `gorm:"size:50;uniqueIndex;not null"`
	RawJSONData        datatypes.JSON `gorm:"type:jsonb;not null"`
	IngestionTimestamp time.Time      `gorm:"index;autoCreateTime"`
	Processed          bool           `gorm:"default:false"`
	ProcessingErrors   *string
}

// TableName implements gorm's Tabler.
func (RawInvoice) TableName() string { return "fullbay_raw_data" }

// LineItemRow is the wide, denormalized reporting row: one billable line
// item carrying every ancestor's context verbatim. Nullable columns use
// pointers so synthesized rows (shop supplies, misc charges) store NULL for
// the complaint/correction context they do not have.
type LineItemRow struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	RawDataID int64       `gorm:"index;not null"`
	RawData   *RawInvoice `gorm:"foreignKey:RawDataID;constraint:OnDelete:CASCADE"`

	// Invoice level
	FullbayInvoiceID string     `gorm:"size:50;index;not null"`
	InvoiceNumber    *string    `gorm:"size:50;index"`
	InvoiceDate      *time.Time `gorm:"type:date;index"`
	DueDate          *time.Time `gorm:"type:date"`
	ShopTitle        *string    `gorm:"size:255"`
	ShopEmail        *string    `gorm:"size:255"`
	ShopAddress      *string

	// Customer
	CustomerID             *int64  `gorm:"index"`
	CustomerTitle          *string `gorm:"size:255"`
	CustomerExternalID     *string `gorm:"size:50"`
	CustomerMainPhone      *string `gorm:"size:50"`
	CustomerSecondaryPhone *string `gorm:"size:50"`
	CustomerBillingAddress *string

	// Service order
	FullbayServiceOrderID      *string `gorm:"size:50"`
	RepairOrderNumber          *string `gorm:"size:50;index"`
	ServiceOrderCreated        *time.Time
	ServiceOrderStartDate      *time.Time
	ServiceOrderCompletionDate *time.Time

	// Unit / vehicle
	UnitID           *string `gorm:"size:50"`
	Unit             *string `gorm:"size:50"`
	UnitType         *string `gorm:"size:100"`
	UnitYear         *string `gorm:"size:10"`
	UnitMake         *string `gorm:"size:100"`
	UnitModel        *string `gorm:"size:100"`
	UnitVIN          *string `gorm:"size:50;index"`
	UnitLicensePlate *string `gorm:"size:20"`

	// Primary technician
	PrimaryTechnician       *string `gorm:"size:255"`
	PrimaryTechnicianNumber *string `gorm:"size:50"`

	// Complaint
	FullbayComplaintID  *int64
	ComplaintType       *string `gorm:"size:100"`
	ComplaintSubtype    *string `gorm:"size:100"`
	ComplaintNote       *string
	ComplaintCause      *string
	ComplaintAuthorized *bool

	// Correction
	FullbayCorrectionID   *int64
	CorrectionTitle       *string `gorm:"size:255"`
	GlobalComponent       *string `gorm:"size:255"`
	GlobalSystem          *string `gorm:"size:255"`
	GlobalService         *string `gorm:"size:255"`
	RecommendedCorrection *string
	ServiceDescription    *string

	// Line item
	LineItemType string `gorm:"size:50;index;not null"`

	FullbayPartID    *int64
	PartDescription  *string
	ShopPartNumber   *string `gorm:"size:100;index"`
	VendorPartNumber *string `gorm:"size:100"`
	PartCategory     *string `gorm:"size:255"`

	LaborDescription         *string
	LaborRateType            *string `gorm:"size:50"`
	AssignedTechnician       *string `gorm:"size:255;index"`
	AssignedTechnicianNumber *string `gorm:"size:50"`

	Quantity             *float64 `gorm:"type:decimal(10,3)"`
	ToBeReturnedQuantity *float64 `gorm:"type:decimal(10,3)"`
	ReturnedQuantity     *float64 `gorm:"type:decimal(10,3)"`

	SOHours           *float64 `gorm:"column:so_hours;type:decimal(8,2)"`
	TechnicianPortion *int64

	UnitCost        *float64 `gorm:"type:decimal(10,2)"`
	UnitPrice       *float64 `gorm:"type:decimal(10,2)"`
	LineTotal       float64  `gorm:"type:decimal(10,2)"`
	PriceOverridden bool     `gorm:"default:false"`

	Taxable    bool     `gorm:"default:true"`
	TaxRate    *float64 `gorm:"type:decimal(5,2)"`
	LineTax    float64  `gorm:"type:decimal(10,2)"`
	SalesTotal float64  `gorm:"type:decimal(10,2)"`

	InventoryItem bool    `gorm:"default:false"`
	CoreType      *string `gorm:"size:50"`
	Sublet        bool    `gorm:"default:false"`

	SOSuppliesTotal *float64 `gorm:"column:so_supplies_total;type:decimal(10,2)"`

	IngestionTimestamp time.Time `gorm:"index;autoCreateTime"`
	IngestionSource    string    `gorm:"size:100;default:'fullbay_api'"`
}

// TableName implements gorm's Tabler.
func (LineItemRow) TableName() string { return "fullbay_line_items" }

// IngestionRun records one ingestion execution for monitoring and audit.
type IngestionRun struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	ExecutionID      string `gorm:"size:255;uniqueIndex;not null"`
	ShopID           string `gorm:"size:50"`
	TargetDate       string `gorm:"size:10"`
	StartTime        time.Time
	EndTime          *time.Time
	Status           string `gorm:"size:50;not null"`
	RecordsProcessed int    `gorm:"default:0"`
	RecordsInserted  int    `gorm:"default:0"`
	RawRecordsStored int    `gorm:"default:0"`
	LineItemsCreated int    `gorm:"default:0"`
	ErrorsCount      int    `gorm:"default:0"`
	ErrorMessage     *string
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

// TableName implements gorm's Tabler.
func (IngestionRun) TableName() string { return "ingestion_runs" }
