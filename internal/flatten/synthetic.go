package flatten

import "github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"

// shopSuppliesItem synthesizes the per-invoice SHOP SUPPLIES row from the
// invoice-level supplies total. Exactly one is emitted per invoice, even
// when the total is zero; it carries no complaint or correction context.
func shopSuppliesItem(invoice *InvoiceContext) *LineItem {
	return &LineItem{
		Type:    TypeShopSupplies,
		Invoice: *invoice,
		Part: &PartDetail{
			Description: "Shop Supplies",
			Category:    "Shop Supplies",
		},

		Quantity:             floatPtr(1),
		ToBeReturnedQuantity: floatPtr(0),
		ReturnedQuantity:     floatPtr(0),

		LineTotal: invoice.SuppliesTotal,
		Taxable:   true,
		TaxRate:   invoice.TaxRate,
	}
}

// miscChargeItem synthesizes one MISC(<quickbooksItemType>) row from an
// invoice-level miscellaneous charge. Like shop supplies, it carries no
// complaint or correction context.
func miscChargeItem(charge *fullbay.MiscCharge, invoice *InvoiceContext) *LineItem {
	itemType := charge.QuickbooksItemType
	if itemType == "" {
		itemType = "UNKNOWN"
	}

	return &LineItem{
		Type:    miscType(charge.QuickbooksItemType),
		Invoice: *invoice,
		Part: &PartDetail{
			Description: "Misc Charge - " + itemType,
			Category:    "Misc Charges - " + itemType,
		},

		Quantity:             floatPtr(1),
		ToBeReturnedQuantity: floatPtr(0),
		ReturnedQuantity:     floatPtr(0),

		LineTotal: charge.Amount.Float64(),
		Taxable:   true,
		TaxRate:   invoice.TaxRate,
	}
}
