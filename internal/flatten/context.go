package flatten

import (
	"time"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
)

// extractInvoiceContext builds the row template shared by every line item of
// one invoice. The service order's embedded customer record wins over the
// invoice-level one when both are present.
func extractInvoiceContext(inv *fullbay.Invoice) *InvoiceContext {
	so := inv.ServiceOrder

	customer := inv.Customer
	if so.Customer != nil {
		customer = so.Customer
	}

	ctx := &InvoiceContext{
		FullbayInvoiceID: inv.PrimaryKey.String(),
		InvoiceNumber:    inv.InvoiceNumber,
		InvoiceDate:      parseDate(inv.InvoiceDate),
		DueDate:          parseDate(inv.DueDate),

		ShopTitle:   inv.ShopTitle,
		ShopEmail:   inv.ShopEmail,
		ShopAddress: inv.ShopPhysicalAddress,

		CustomerBillingAddress: inv.CustomerBillingAddress,

		ServiceOrderID:             so.PrimaryKey.String(),
		RepairOrderNumber:          so.RepairOrderNumber,
		ServiceOrderCreated:        parseDateTime(so.Created),
		ServiceOrderStartDate:      parseDateTime(so.StartDateTime),
		ServiceOrderCompletionDate: parseDateTime(so.CompletionDateTime),

		UnitID:           so.Unit.CustomerUnitID.String(),
		Unit:             so.Unit.Number,
		UnitType:         so.Unit.Type,
		UnitYear:         so.Unit.Year,
		UnitMake:         so.Unit.Make,
		UnitModel:        so.Unit.Model,
		UnitVIN:          so.Unit.VIN,
		UnitLicensePlate: so.Unit.LicensePlate,

		PrimaryTechnician:       so.Technician,
		PrimaryTechnicianNumber: so.TechnicianNumber,

		SuppliesTotal: inv.SuppliesTotal.Float64(),
		TaxRate:       inv.TaxRate.Float64(),
	}

	if customer != nil {
		if customer.CustomerID != 0 {
			ctx.CustomerID = intPtr(customer.CustomerID.Int64())
		}
		ctx.CustomerTitle = customer.Title
		ctx.CustomerExternalID = customer.ExternalID
		ctx.CustomerMainPhone = customer.MainPhone
		ctx.CustomerSecondaryPhone = customer.SecondaryPhone
	}

	return ctx
}

// extractComplaintContext layers one complaint over the invoice context.
func extractComplaintContext(c *fullbay.Complaint, inv *InvoiceContext) *ComplaintContext {
	ctx := &ComplaintContext{
		Invoice:    inv,
		Type:       c.Type,
		SubType:    c.SubType,
		Note:       c.Note,
		Cause:      c.Cause,
		Authorized: c.Authorized.Bool(),
	}
	if c.PrimaryKey != 0 {
		ctx.ComplaintID = intPtr(c.PrimaryKey.Int64())
	}
	return ctx
}

// extractCorrectionContext layers one correction over the complaint context.
func extractCorrectionContext(c *fullbay.Correction, complaint *ComplaintContext) *CorrectionContext {
	ctx := &CorrectionContext{
		Complaint:             complaint,
		Title:                 c.Title,
		GlobalComponent:       c.GlobalComponent,
		GlobalSystem:          c.GlobalSystem,
		GlobalService:         c.GlobalService,
		RecommendedCorrection: c.RecommendedCorrection,
		ServiceDescription:    c.ActualCorrection,
	}
	if c.PrimaryKey != 0 {
		ctx.CorrectionID = intPtr(c.PrimaryKey.Int64())
	}
	return ctx
}

// parseDate parses a YYYY-MM-DD date string. Anything unparseable is nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// parseDateTime parses the handful of timestamp formats the API emits.
func parseDateTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999",
		"2006-01-02T15:04:05.999999",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
