package flatten

import "github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"

// processLabor turns a correction's labor charge into LABOR line items, one
// per technician assigned to the parent complaint.
//
// Each technician's hours come from their own actualHours field; their cost
// is the correction's labor total scaled by their percentage portion.
// Portions are taken as-is from the source system and are not validated to
// sum to 100 across technicians.
//
// When the complaint lists no technicians but the correction has positive
// labor hours, a single row is emitted against the service order's primary
// technician at 100%. No technicians and no hours emits nothing.
func processLabor(correction *fullbay.Correction, complaint *fullbay.Complaint, ctx *CorrectionContext) []*LineItem {
	description := correction.ActualCorrection
	if description == "" {
		description = correction.RecommendedCorrection
	}

	taxable := correction.Taxable.Bool()
	laborTotal := correction.LaborTotal.Float64()

	techs := complaint.AssignedTechnicians
	if len(techs) == 0 {
		if correction.LaborHoursTotal.Float64() <= 0 {
			return nil
		}

		invoice := ctx.Complaint.Invoice
		return []*LineItem{{
			Type:       TypeLabor,
			Invoice:    *invoice,
			Complaint:  ctx.Complaint,
			Correction: ctx,
			Labor: &LaborDetail{
				Description:      description,
				RateType:         correction.LaborRate,
				Technician:       invoice.PrimaryTechnician,
				TechnicianNumber: invoice.PrimaryTechnicianNumber,
			},

			SOHours:           floatPtr(correction.LaborHoursTotal.Float64()),
			TechnicianPortion: intPtr(100),

			LineTotal: laborTotal,
			Taxable:   taxable,
			TaxRate:   invoice.TaxRate,
		}}
	}

	items := make([]*LineItem, 0, len(techs))
	for _, tech := range techs {
		portion := tech.PortionOrDefault()

		items = append(items, &LineItem{
			Type:       TypeLabor,
			Invoice:    *ctx.Complaint.Invoice,
			Complaint:  ctx.Complaint,
			Correction: ctx,
			Labor: &LaborDetail{
				Description:      description,
				RateType:         correction.LaborRate,
				Technician:       tech.Technician,
				TechnicianNumber: tech.TechnicianNumber,
			},

			SOHours:           floatPtr(tech.ActualHours.Float64()),
			TechnicianPortion: intPtr(portion),

			LineTotal: laborTotal * float64(portion) / 100.0,
			Taxable:   taxable,
			TaxRate:   ctx.Complaint.Invoice.TaxRate,
		})
	}

	return items
}
