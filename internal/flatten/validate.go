package flatten

import (
	"fmt"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
)

// validateDocument inspects the incoming document and reports data-quality
// warnings. Nothing here is fatal: missing VINs, zero totals, zero labor
// hours and negative line totals are all legitimate business states
// (incomplete vehicle records, credits, returns) and are only observed.
func validateDocument(doc *fullbay.Invoice) []string {
	var warnings []string

	if doc.InvoiceNumber == "" {
		warnings = append(warnings, "missing invoice number")
	}

	so := doc.ServiceOrder
	if so.PrimaryKey.IsZero() {
		warnings = append(warnings, "missing service order ID")
	}
	if so.RepairOrderNumber == "" {
		warnings = append(warnings, "missing repair order number")
	}

	if doc.Customer == nil && so.Customer == nil {
		warnings = append(warnings, "missing customer data")
	} else {
		customer := doc.Customer
		if so.Customer != nil {
			customer = so.Customer
		}
		if customer.CustomerID == 0 {
			warnings = append(warnings, "missing customer ID")
		}
		if customer.Title == "" {
			warnings = append(warnings, "missing customer name")
		}
	}

	if len(so.Complaints) == 0 {
		warnings = append(warnings, "no complaints/work items found")
	}
	for i, complaint := range so.Complaints {
		if complaint.PrimaryKey == 0 {
			warnings = append(warnings, fmt.Sprintf("complaint %d missing ID", i+1))
		}
		if len(complaint.Corrections) == 0 {
			warnings = append(warnings, fmt.Sprintf("complaint %d has no corrections", i+1))
		}
		for j, correction := range complaint.Corrections {
			if correction.PrimaryKey == 0 {
				warnings = append(warnings, fmt.Sprintf("correction %d in complaint %d missing ID", j+1, i+1))
			}
		}
	}

	return warnings
}

// validateAndClean drops rows that somehow lack their invoice id or type
// (defensive; the emitters always populate both) and normalizes the few
// fields downstream arithmetic depends on. Negative quantities and totals
// are preserved: they represent returns and credits.
func validateAndClean(items []*LineItem) ([]*LineItem, []string) {
	cleaned := make([]*LineItem, 0, len(items))
	var warnings []string

	for i, item := range items {
		if item.Invoice.FullbayInvoiceID == "" {
			warnings = append(warnings, fmt.Sprintf("line item %d missing invoice ID - dropped", i))
			continue
		}
		if item.Type == "" {
			warnings = append(warnings, fmt.Sprintf("line item %d missing type - dropped", i))
			continue
		}

		switch item.Type {
		case TypePart:
			if item.Part == nil || item.Part.ShopPartNumber == "" {
				warnings = append(warnings, fmt.Sprintf("part line item %d missing part number", i))
			}
			if item.Quantity == nil {
				warnings = append(warnings, fmt.Sprintf("part line item %d has no quantity - defaulting to 1", i))
				item.Quantity = floatPtr(1)
			}
		case TypeLabor:
			if item.SOHours == nil {
				// 0.0 hours is valid; only a missing value is defaulted.
				item.SOHours = floatPtr(0)
			}
			if item.Labor == nil || item.Labor.Technician == "" {
				warnings = append(warnings, fmt.Sprintf("labor line item %d missing technician assignment", i))
			}
		}

		cleaned = append(cleaned, item)
	}

	return cleaned, warnings
}
