package flatten

import (
	"errors"
	"math"
	"testing"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// baseInvoice builds a minimal valid invoice to mutate per test.
func baseInvoice() *fullbay.Invoice {
	return &fullbay.Invoice{
		PrimaryKey:    fullbay.ID("910179"),
		InvoiceNumber: "INV-1001",
		InvoiceDate:   "2026-08-15",
		ShopTitle:     "Kerry Bros Truck Repair",
		SuppliesTotal: fullbay.Money(25.50),
		TaxRate:       fullbay.Money(6),
		Customer: &fullbay.Customer{
			CustomerID: fullbay.IntString(42),
			Title:      "Acme Trucking",
		},
		ServiceOrder: fullbay.ServiceOrder{
			PrimaryKey:        fullbay.ID("555001"),
			RepairOrderNumber: "RO-2001",
			Technician:        "Pat Jones",
			TechnicianNumber:  "T-7",
			Unit: fullbay.Unit{
				Number: "TRK-12",
				VIN:    "1FUJGLDR0CLBP8834",
				Make:   "Freightliner",
				Model:  "Cascadia",
			},
		},
	}
}

func withComplaint(inv *fullbay.Invoice, c fullbay.Complaint) *fullbay.Invoice {
	inv.ServiceOrder.Complaints = append(inv.ServiceOrder.Complaints, c)
	return inv
}

func partLines(items []*LineItem) []*LineItem {
	var out []*LineItem
	for _, item := range items {
		if item.Type == TypePart {
			out = append(out, item)
		}
	}
	return out
}

func laborLines(items []*LineItem) []*LineItem {
	var out []*LineItem
	for _, item := range items {
		if item.Type == TypeLabor {
			out = append(out, item)
		}
	}
	return out
}

func TestFlattenMissingInvoiceID(t *testing.T) {
	inv := baseInvoice()
	inv.PrimaryKey = ""

	_, _, err := Flatten(inv, 1)
	if err == nil {
		t.Fatal("expected error for invoice without primaryKey")
	}
	var missingErr *MissingInvoiceIDError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingInvoiceIDError, got %T: %v", err, err)
	}
	if missingErr.InvoiceNumber != "INV-1001" {
		t.Errorf("InvoiceNumber = %q, want INV-1001", missingErr.InvoiceNumber)
	}
}

func TestFlattenEmptyInvoiceEmitsSuppliesSentinel(t *testing.T) {
	items, warnings, err := Flatten(baseInvoice(), 7)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("got %d items, want exactly the shop supplies row", len(items))
	}
	item := items[0]
	if item.Type != TypeShopSupplies {
		t.Errorf("Type = %q, want %q", item.Type, TypeShopSupplies)
	}
	if item.Quantity == nil || *item.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", item.Quantity)
	}
	if !item.Taxable {
		t.Error("shop supplies row must be taxable")
	}
	if item.Complaint != nil || item.Correction != nil {
		t.Error("shop supplies row must carry no complaint or correction context")
	}
	if !almostEqual(item.LineTotal, 25.50) {
		t.Errorf("LineTotal = %v, want 25.50", item.LineTotal)
	}
	if item.RawDataID != 7 {
		t.Errorf("RawDataID = %d, want 7", item.RawDataID)
	}

	// An invoice with no complaints still flattens, with warnings.
	if len(warnings) == 0 {
		t.Error("expected data-quality warnings for complaint-less invoice")
	}
}

func TestFlattenPartReturns(t *testing.T) {
	tests := []struct {
		name         string
		quantity     float64
		returned     float64
		wantRows     int
		wantQuantity float64
		wantTotal    float64
	}{
		{"no returns", 5, 0, 1, 5, 50},
		{"partial return", 5, 2, 1, 3, 30},
		{"full return", 5, 5, 0, 0, 0},
		{"over-returned", 5, 6, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := withComplaint(baseInvoice(), fullbay.Complaint{
				PrimaryKey: fullbay.IntString(1),
				Corrections: []fullbay.Correction{{
					PrimaryKey: fullbay.IntString(11),
					Parts: []fullbay.Part{{
						PrimaryKey:       fullbay.IntString(101),
						Description:      "Air filter",
						ShopPartNumber:   "AF-100",
						Quantity:         fullbay.Money(tt.quantity),
						ReturnedQuantity: fullbay.Money(tt.returned),
						SellingPrice:     fullbay.Money(10),
						Taxable:          fullbay.YesNo(true),
					}},
				}},
			})

			items, _, err := Flatten(inv, 1)
			if err != nil {
				t.Fatalf("Flatten: %v", err)
			}

			parts := partLines(items)
			if len(parts) != tt.wantRows {
				t.Fatalf("got %d part rows, want %d", len(parts), tt.wantRows)
			}
			if tt.wantRows == 0 {
				return
			}
			p := parts[0]
			if p.Quantity == nil || !almostEqual(*p.Quantity, tt.wantQuantity) {
				t.Errorf("Quantity = %v, want %v", p.Quantity, tt.wantQuantity)
			}
			if !almostEqual(p.LineTotal, tt.wantTotal) {
				t.Errorf("LineTotal = %v, want %v", p.LineTotal, tt.wantTotal)
			}
		})
	}
}

func TestFlattenPartGrouping(t *testing.T) {
	makePart := func(num string, qty, price float64) fullbay.Part {
		return fullbay.Part{
			PrimaryKey:     fullbay.IntString(100),
			Description:    "Brake pad",
			ShopPartNumber: num,
			Quantity:       fullbay.Money(qty),
			SellingPrice:   fullbay.Money(price),
			Taxable:        fullbay.YesNo(true),
		}
	}

	inv := withComplaint(baseInvoice(), fullbay.Complaint{
		PrimaryKey: fullbay.IntString(1),
		Corrections: []fullbay.Correction{{
			PrimaryKey: fullbay.IntString(11),
			Parts: []fullbay.Part{
				makePart("BP-1", 2, 40),
				makePart("BP-2", 1, 15),
				makePart("BP-1", 3, 40), // same SKU and price, merges with first
				makePart("BP-1", 1, 45), // same SKU, new price, own group
			},
		}},
	})

	items, _, err := Flatten(inv, 1)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	parts := partLines(items)
	if len(parts) != 3 {
		t.Fatalf("got %d part rows, want 3 groups", len(parts))
	}

	// First-appearance order.
	if got := parts[0].Part.ShopPartNumber; got != "BP-1" {
		t.Errorf("group 0 part number = %q, want BP-1", got)
	}
	if parts[0].Quantity == nil || *parts[0].Quantity != 5 {
		t.Errorf("merged group quantity = %v, want 5", parts[0].Quantity)
	}
	if !almostEqual(parts[0].LineTotal, 200) {
		t.Errorf("merged group total = %v, want 200", parts[0].LineTotal)
	}

	if got := parts[1].Part.ShopPartNumber; got != "BP-2" {
		t.Errorf("group 1 part number = %q, want BP-2", got)
	}

	if parts[2].UnitPrice == nil || *parts[2].UnitPrice != 45 {
		t.Errorf("price-split group unit price = %v, want 45", parts[2].UnitPrice)
	}
	if parts[2].Quantity == nil || *parts[2].Quantity != 1 {
		t.Errorf("price-split group quantity = %v, want 1", parts[2].Quantity)
	}
}

func TestFlattenLaborSplit(t *testing.T) {
	portion60 := fullbay.IntString(60)
	portion40 := fullbay.IntString(40)

	inv := withComplaint(baseInvoice(), fullbay.Complaint{
		PrimaryKey: fullbay.IntString(1),
		AssignedTechnicians: []fullbay.AssignedTechnician{
			{Technician: "Alex Kim", TechnicianNumber: "T-1", ActualHours: fullbay.Money(1.5), Portion: &portion60},
			{Technician: "Sam Lee", TechnicianNumber: "T-2", ActualHours: fullbay.Money(0.5), Portion: &portion40},
		},
		Corrections: []fullbay.Correction{{
			PrimaryKey:       fullbay.IntString(11),
			ActualCorrection: "Replaced alternator",
			LaborHoursTotal:  fullbay.Money(2),
			LaborTotal:       fullbay.Money(200),
		}},
	})
	inv.TaxRate = 0

	items, _, err := Flatten(inv, 1)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	labor := laborLines(items)
	if len(labor) != 2 {
		t.Fatalf("got %d labor rows, want 2", len(labor))
	}

	first, second := labor[0], labor[1]
	if first.Labor.Technician != "Alex Kim" || second.Labor.Technician != "Sam Lee" {
		t.Fatalf("technician order = %q, %q", first.Labor.Technician, second.Labor.Technician)
	}
	if !almostEqual(first.LineTotal, 120) || !almostEqual(second.LineTotal, 80) {
		t.Errorf("split totals = %v, %v, want 120, 80", first.LineTotal, second.LineTotal)
	}
	if first.SOHours == nil || *first.SOHours != 1.5 {
		t.Errorf("first SOHours = %v, want 1.5", first.SOHours)
	}
	if second.SOHours == nil || *second.SOHours != 0.5 {
		t.Errorf("second SOHours = %v, want 0.5", second.SOHours)
	}
	if first.TechnicianPortion == nil || *first.TechnicianPortion != 60 {
		t.Errorf("first portion = %v, want 60", first.TechnicianPortion)
	}
	if first.Labor.Description != "Replaced alternator" {
		t.Errorf("labor description = %q", first.Labor.Description)
	}
}

func TestFlattenLaborPortionDefaults(t *testing.T) {
	// A single technician without an explicit portion gets 100%, and
	// portions are never normalized to sum to 100.
	portion30 := fullbay.IntString(30)

	inv := withComplaint(baseInvoice(), fullbay.Complaint{
		PrimaryKey: fullbay.IntString(1),
		AssignedTechnicians: []fullbay.AssignedTechnician{
			{Technician: "Alex Kim", ActualHours: fullbay.Money(1)},
			{Technician: "Sam Lee", ActualHours: fullbay.Money(1), Portion: &portion30},
		},
		Corrections: []fullbay.Correction{{
			PrimaryKey: fullbay.IntString(11),
			LaborTotal: fullbay.Money(100),
		}},
	})
	inv.TaxRate = 0

	items, _, err := Flatten(inv, 1)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	labor := laborLines(items)
	if len(labor) != 2 {
		t.Fatalf("got %d labor rows, want 2", len(labor))
	}
	if labor[0].TechnicianPortion == nil || *labor[0].TechnicianPortion != 100 {
		t.Errorf("defaulted portion = %v, want 100", labor[0].TechnicianPortion)
	}
	if !almostEqual(labor[0].LineTotal, 100) {
		t.Errorf("defaulted portion total = %v, want 100", labor[0].LineTotal)
	}
	if !almostEqual(labor[1].LineTotal, 30) {
		t.Errorf("explicit 30%% total = %v, want 30", labor[1].LineTotal)
	}
}

func TestFlattenLaborNoTechnicians(t *testing.T) {
	tests := []struct {
		name       string
		laborHours float64
		laborTotal float64
		wantRows   int
	}{
		{"positive hours fall back to primary technician", 2.5, 180, 1},
		{"zero hours emit nothing", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := withComplaint(baseInvoice(), fullbay.Complaint{
				PrimaryKey: fullbay.IntString(1),
				Corrections: []fullbay.Correction{{
					PrimaryKey:      fullbay.IntString(11),
					LaborHoursTotal: fullbay.Money(tt.laborHours),
					LaborTotal:      fullbay.Money(tt.laborTotal),
				}},
			})

			items, _, err := Flatten(inv, 1)
			if err != nil {
				t.Fatalf("Flatten: %v", err)
			}

			labor := laborLines(items)
			if len(labor) != tt.wantRows {
				t.Fatalf("got %d labor rows, want %d", len(labor), tt.wantRows)
			}
			if tt.wantRows == 0 {
				return
			}
			row := labor[0]
			if row.Labor.Technician != "Pat Jones" {
				t.Errorf("fallback technician = %q, want the service order's primary technician", row.Labor.Technician)
			}
			if row.TechnicianPortion == nil || *row.TechnicianPortion != 100 {
				t.Errorf("fallback portion = %v, want 100", row.TechnicianPortion)
			}
			if row.SOHours == nil || *row.SOHours != 2.5 {
				t.Errorf("fallback SOHours = %v, want 2.5", row.SOHours)
			}
		})
	}
}

func TestFlattenMiscCharges(t *testing.T) {
	inv := baseInvoice()
	inv.MiscCharges = []fullbay.MiscCharge{
		{QuickbooksItemType: "Environmental Fee", Amount: fullbay.Money(15)},
		{Amount: fullbay.Money(5)},
	}

	items, _, err := Flatten(inv, 1)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	// Supplies sentinel plus the two misc charges.
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[1].Type != "MISC(Environmental Fee)" {
		t.Errorf("misc type = %q, want MISC(Environmental Fee)", items[1].Type)
	}
	if items[2].Type != "MISC(UNKNOWN)" {
		t.Errorf("untyped misc type = %q, want MISC(UNKNOWN)", items[2].Type)
	}
	if !almostEqual(items[1].LineTotal, 15) {
		t.Errorf("misc total = %v, want 15", items[1].LineTotal)
	}
	if items[1].Complaint != nil || items[1].Correction != nil {
		t.Error("misc rows must carry no complaint or correction context")
	}
}

func TestFlattenEndToEnd(t *testing.T) {
	portion100 := fullbay.IntString(100)

	inv := withComplaint(baseInvoice(), fullbay.Complaint{
		PrimaryKey: fullbay.IntString(3001),
		Type:       "Brakes",
		Authorized: fullbay.YesNo(true),
		AssignedTechnicians: []fullbay.AssignedTechnician{
			{Technician: "Alex Kim", TechnicianNumber: "T-1", ActualHours: fullbay.Money(2), Portion: &portion100},
		},
		Corrections: []fullbay.Correction{{
			PrimaryKey:       fullbay.IntString(4001),
			Title:            "Replace front brake pads",
			ActualCorrection: "Replaced pads and rotors",
			LaborHoursTotal:  fullbay.Money(2),
			LaborTotal:       fullbay.Money(100),
			Parts: []fullbay.Part{
				{
					PrimaryKey:     fullbay.IntString(5001),
					Description:    "Brake pad set",
					ShopPartNumber: "BP-100",
					Quantity:       fullbay.Money(2),
					SellingPrice:   fullbay.Money(50),
					Taxable:        fullbay.YesNo(true),
				},
			},
		}},
	})
	inv.MiscCharges = []fullbay.MiscCharge{
		{QuickbooksItemType: "Disposal", Amount: fullbay.Money(10)},
	}

	items, _, err := Flatten(inv, 99)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	// 1 part group + 1 labor + supplies + 1 misc.
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}

	wantOrder := []LineItemType{TypePart, TypeLabor, TypeShopSupplies, "MISC(Disposal)"}
	for i, want := range wantOrder {
		if items[i].Type != want {
			t.Errorf("item %d type = %q, want %q", i, items[i].Type, want)
		}
	}

	for i, item := range items {
		if item.RawDataID != 99 {
			t.Errorf("item %d RawDataID = %d, want 99", i, item.RawDataID)
		}
		if item.Invoice.FullbayInvoiceID != "910179" {
			t.Errorf("item %d invoice id = %q, want 910179", i, item.Invoice.FullbayInvoiceID)
		}
	}

	part := items[0]
	if part.Complaint == nil || part.Complaint.ComplaintID == nil || *part.Complaint.ComplaintID != 3001 {
		t.Error("part row missing complaint context")
	}
	if part.Correction == nil || part.Correction.CorrectionID == nil || *part.Correction.CorrectionID != 4001 {
		t.Error("part row missing correction context")
	}
	if part.Correction.ServiceDescription != "Replaced pads and rotors" {
		t.Errorf("service description = %q", part.Correction.ServiceDescription)
	}

	// 6% tax on the taxable 100.00 part.
	if !almostEqual(part.LineTax, 6) || !almostEqual(part.SalesTotal, 106) {
		t.Errorf("part tax = %v/%v, want 6/106", part.LineTax, part.SalesTotal)
	}
}

func TestFlattenCustomerPrecedence(t *testing.T) {
	inv := baseInvoice()
	inv.ServiceOrder.Customer = &fullbay.Customer{
		CustomerID: fullbay.IntString(77),
		Title:      "Acme Trucking West",
	}

	items, _, err := Flatten(inv, 1)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	got := items[0].Invoice
	if got.CustomerID == nil || *got.CustomerID != 77 {
		t.Errorf("CustomerID = %v, want service order customer 77", got.CustomerID)
	}
	if got.CustomerTitle != "Acme Trucking West" {
		t.Errorf("CustomerTitle = %q, want the service order copy", got.CustomerTitle)
	}
}
