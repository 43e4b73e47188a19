package flatten

import "time"

// LineItemType classifies one flattened row.
type LineItemType string

const (
	TypePart         LineItemType = "PART"
	TypeLabor        LineItemType = "LABOR"
	TypeShopSupplies LineItemType = "SHOP SUPPLIES"
	// Misc charges use the dynamic form "MISC(<quickbooksItemType>)",
	// built by miscType.
)

// miscType builds the line item type for a miscellaneous charge.
func miscType(quickbooksItemType string) LineItemType {
	if quickbooksItemType == "" {
		quickbooksItemType = "UNKNOWN"
	}
	return LineItemType("MISC(" + quickbooksItemType + ")")
}

// InvoiceContext carries the invoice-level fields repeated on every line
// item: shop, customer, service order, unit and primary technician.
type InvoiceContext struct {
	FullbayInvoiceID string
	InvoiceNumber    string
	InvoiceDate      *time.Time
	DueDate          *time.Time

	ShopTitle   string
	ShopEmail   string
	ShopAddress string

	CustomerID             *int64
	CustomerTitle          string
	CustomerExternalID     string
	CustomerMainPhone      string
	CustomerSecondaryPhone string
	CustomerBillingAddress string

	ServiceOrderID             string
	RepairOrderNumber          string
	ServiceOrderCreated        *time.Time
	ServiceOrderStartDate      *time.Time
	ServiceOrderCompletionDate *time.Time

	UnitID           string
	Unit             string
	UnitType         string
	UnitYear         string
	UnitMake         string
	UnitModel        string
	UnitVIN          string
	UnitLicensePlate string

	PrimaryTechnician       string
	PrimaryTechnicianNumber string

	SuppliesTotal float64
	TaxRate       float64
}

// ComplaintContext layers complaint fields on top of an invoice context.
type ComplaintContext struct {
	Invoice *InvoiceContext

	ComplaintID *int64
	Type        string
	SubType     string
	Note        string
	Cause       string
	Authorized  bool
}

// CorrectionContext layers correction fields on top of a complaint context.
// ServiceDescription is the correction's actualCorrection text.
type CorrectionContext struct {
	Complaint *ComplaintContext

	CorrectionID          *int64
	Title                 string
	GlobalComponent       string
	GlobalSystem          string
	GlobalService         string
	RecommendedCorrection string
	ServiceDescription    string
}

// PartDetail holds the part-specific fields of a PART (or synthesized
// supplies/misc) row.
type PartDetail struct {
	FullbayPartID    *int64
	Description      string
	ShopPartNumber   string
	VendorPartNumber string
	Category         string
}

// LaborDetail holds the labor-specific fields of a LABOR row.
type LaborDetail struct {
	Description      string
	RateType         string
	Technician       string
	TechnicianNumber string
}

// LineItem is one flattened, billable row. Invoice context is always
// present; Complaint and Correction are nil on synthesized rows (shop
// supplies, misc charges), which carry no correction-level context.
type LineItem struct {
	RawDataID int64
	Type      LineItemType

	Invoice    InvoiceContext
	Complaint  *ComplaintContext
	Correction *CorrectionContext
	Part       *PartDetail
	Labor      *LaborDetail

	Quantity             *float64
	ToBeReturnedQuantity *float64
	ReturnedQuantity     *float64

	SOHours           *float64
	TechnicianPortion *int64

	UnitCost        *float64
	UnitPrice       *float64
	LineTotal       float64
	PriceOverridden bool

	Taxable    bool
	TaxRate    float64
	LineTax    float64
	SalesTotal float64

	InventoryItem bool
	CoreType      string
	Sublet        bool
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int64) *int64       { return &i }
