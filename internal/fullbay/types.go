package fullbay

// Invoice is one Fullbay invoice document as returned by the getInvoices
// endpoint. The tree nests four levels deep: invoice → service order →
// complaints → corrections → parts. Field names mirror the API payload;
// the coercion types in coerce.go absorb its loose typing.
type Invoice struct {
	PrimaryKey             ID     `json:"primaryKey"`
	InvoiceNumber          string `json:"invoiceNumber"`
	InvoiceDate            string `json:"invoiceDate"`
	DueDate                string `json:"dueDate"`
	ShopTitle              string `json:"shopTitle"`
	ShopEmail              string `json:"shopEmail"`
	ShopPhysicalAddress    string `json:"shopPhysicalAddress"`
	CustomerBillingAddress string `json:"customerBillingAddress"`

	SuppliesTotal Money `json:"suppliesTotal"`
	MiscTotal     Money `json:"miscChargeTotal"`
	TaxRate       Money `json:"taxRate"`
	Total         Money `json:"total"`

	Customer     *Customer    `json:"Customer"`
	ServiceOrder ServiceOrder `json:"ServiceOrder"`
	MiscCharges  []MiscCharge `json:"miscCharges"`
}

// Customer appears both at the invoice level and embedded in the service
// order; the service-order copy wins when both are present.
type Customer struct {
	CustomerID     IntString `json:"customerId"`
	Title          string    `json:"title"`
	ExternalID     string    `json:"externalId"`
	MainPhone      string    `json:"mainPhone"`
	SecondaryPhone string    `json:"secondaryPhone"`
}

// ServiceOrder is the work order nested under an invoice.
type ServiceOrder struct {
	PrimaryKey         ID     `json:"primaryKey"`
	RepairOrderNumber  string `json:"repairOrderNumber"`
	Created            string `json:"created"`
	StartDateTime      string `json:"startDateTime"`
	CompletionDateTime string `json:"completionDateTime"`
	Technician         string `json:"technician"`
	TechnicianNumber   string `json:"technicianNumber"`

	Customer   *Customer   `json:"Customer"`
	Unit       Unit        `json:"Unit"`
	Complaints []Complaint `json:"Complaints"`
}

// Unit is the vehicle the service order was opened against.
type Unit struct {
	CustomerUnitID ID     `json:"customerUnitId"`
	Number         string `json:"number"`
	Type           string `json:"type"`
	Year           string `json:"year"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	VIN            string `json:"vin"`
	LicensePlate   string `json:"licensePlate"`
}

// Complaint is one customer-reported or shop-identified issue.
type Complaint struct {
	PrimaryKey IntString `json:"primaryKey"`
	Type       string    `json:"type"`
	SubType    string    `json:"subType"`
	Note       string    `json:"note"`
	Cause      string    `json:"cause"`
	Authorized YesNo     `json:"authorized"`

	AssignedTechnicians []AssignedTechnician `json:"AssignedTechnicians"`
	Corrections         []Correction         `json:"Corrections"`
}

// AssignedTechnician is one technician's share of a complaint's labor.
// Portion is a percentage of the correction's labor total; the API omits it
// for single-technician complaints, in which case it means 100.
type AssignedTechnician struct {
	Technician       string     `json:"technician"`
	TechnicianNumber string     `json:"technicianNumber"`
	ActualHours      Money      `json:"actualHours"`
	Portion          *IntString `json:"portion"`
}

// PortionOrDefault returns the technician's percentage share, defaulting to
// 100 when the API omitted the field.
func (t AssignedTechnician) PortionOrDefault() int64 {
	if t.Portion == nil {
		return 100
	}
	return t.Portion.Int64()
}

// Correction is one discrete repair action under a complaint; parts and
// labor attach here.
type Correction struct {
	PrimaryKey            IntString   `json:"primaryKey"`
	Title                 string      `json:"title"`
	GlobalComponent       string      `json:"globalComponent"`
	GlobalSystem          string      `json:"globalSystem"`
	GlobalService         string      `json:"globalService"`
	RecommendedCorrection string      `json:"recommendedCorrection"`
	ActualCorrection      string      `json:"actualCorrection"`
	LaborRate             string      `json:"laborRate"`
	LaborHoursTotal       Money       `json:"laborHoursTotal"`
	LaborTotal            Money       `json:"laborTotal"`
	Taxable               TaxableFlag `json:"taxable"`

	Parts []Part `json:"Parts"`
}

// Part is one part entry on a correction.
type Part struct {
	PrimaryKey             IntString `json:"primaryKey"`
	Description            string    `json:"description"`
	ShopPartNumber         string    `json:"shopPartNumber"`
	VendorPartNumber       string    `json:"vendorPartNumber"`
	PartCategory           string    `json:"partCategory"`
	Quantity               Money     `json:"quantity"`
	ToBeReturnedQuantity   Money     `json:"toBeReturnedQuantity"`
	ReturnedQuantity       Money     `json:"returnedQuantity"`
	Cost                   Money     `json:"cost"`
	SellingPrice           Money     `json:"sellingPrice"`
	SellingPriceOverridden YesNo     `json:"sellingPriceOverridden"`
	Taxable                YesNo     `json:"taxable"`
	Inventory              YesNo     `json:"inventory"`
	CoreType               string    `json:"coreType"`
	Sublet                 YesNo     `json:"sublet"`
}

// EffectiveQuantity is the quantity actually billed: original quantity less
// what has already been returned. toBeReturnedQuantity is tracked but never
// subtracted here.
func (p Part) EffectiveQuantity() float64 {
	return p.Quantity.Float64() - p.ReturnedQuantity.Float64()
}

// MiscCharge is one invoice-level miscellaneous charge.
type MiscCharge struct {
	QuickbooksItemType string `json:"quickbooksItemType"`
	Amount             Money  `json:"amount"`
}
