// Package flatten converts one hierarchical Fullbay invoice document into a
// flat, denormalized set of line-item rows (parts, labor, shop supplies,
// misc charges) ready for relational storage and reporting.
//
// The transformation is pure: it performs no I/O, holds no state across
// invocations, and may be called concurrently for different documents.
package flatten

import (
	"fmt"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
)

// MissingInvoiceIDError is the only fatal flattening error: the document
// lacks its primaryKey, so its rows could never be joined back to the
// invoice. Every other anomaly is absorbed with defaults and reported as a
// warning.
type MissingInvoiceIDError struct {
	InvoiceNumber string
}

func (e *MissingInvoiceIDError) Error() string {
	if e.InvoiceNumber != "" {
		return fmt.Sprintf("invoice %q missing primaryKey", e.InvoiceNumber)
	}
	return "invoice missing primaryKey"
}

// Flatten converts one invoice document into its ordered line-item rows.
// rawDataID is the id of the stored raw payload; it is stamped on every row.
//
// Output order is stable: complaint order, correction order within each
// complaint, part groups in first-appearance order, then labor rows, then
// the shop-supplies sentinel, then misc charges.
//
// Warnings report data-quality observations (missing ids, empty complaint
// lists) that the caller may log; they never prevent row emission.
func Flatten(doc *fullbay.Invoice, rawDataID int64) ([]*LineItem, []string, error) {
	if doc.PrimaryKey.IsZero() {
		return nil, nil, &MissingInvoiceIDError{InvoiceNumber: doc.InvoiceNumber}
	}

	warnings := validateDocument(doc)

	invoiceCtx := extractInvoiceContext(doc)

	var items []*LineItem
	for _, complaint := range doc.ServiceOrder.Complaints {
		complaintCtx := extractComplaintContext(&complaint, invoiceCtx)

		for _, correction := range complaint.Corrections {
			correctionCtx := extractCorrectionContext(&correction, complaintCtx)

			items = append(items, processParts(correction.Parts, correctionCtx)...)
			items = append(items, processLabor(&correction, &complaint, correctionCtx)...)
		}
	}

	// The supplies sentinel is always emitted, even for an invoice with no
	// complaints and a zero supplies total.
	items = append(items, shopSuppliesItem(invoiceCtx))

	for _, charge := range doc.MiscCharges {
		items = append(items, miscChargeItem(&charge, invoiceCtx))
	}

	items, cleanupWarnings := validateAndClean(items)
	warnings = append(warnings, cleanupWarnings...)

	for _, item := range items {
		item.RawDataID = rawDataID
		ApplyTax(item)
	}

	return items, warnings, nil
}
