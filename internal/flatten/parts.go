package flatten

import (
	"fmt"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/fullbay"
)

// partGroup accumulates parts that share a shop part number and selling
// price within one correction. The same SKU at two different point-in-time
// prices stays in two groups.
type partGroup struct {
	first             *fullbay.Part
	effectiveQuantity float64
	extendedTotal     float64
	toBeReturned      float64
	returned          float64
}

// processParts turns a correction's parts list into PART line items.
//
// Each part's effective quantity is quantity − returnedQuantity; parts whose
// effective quantity is zero or negative are fully returned and contribute
// nothing. Surviving parts are grouped by (shopPartNumber, sellingPrice) and
// each group becomes one row: quantity is the summed effective quantity,
// line total the summed extended totals, and descriptive fields come from
// the group's first member.
func processParts(parts []fullbay.Part, ctx *CorrectionContext) []*LineItem {
	if len(parts) == 0 {
		return nil
	}

	groups := make(map[string]*partGroup)
	var order []string

	for i := range parts {
		part := &parts[i]

		effectiveQty := part.EffectiveQuantity()
		if effectiveQty <= 0 {
			continue
		}

		price := part.SellingPrice.Float64()
		key := fmt.Sprintf("%s|%v", part.ShopPartNumber, price)

		group, ok := groups[key]
		if !ok {
			group = &partGroup{first: part}
			groups[key] = group
			order = append(order, key)
		}
		group.effectiveQuantity += effectiveQty
		group.extendedTotal += price * effectiveQty
		group.toBeReturned += part.ToBeReturnedQuantity.Float64()
		group.returned += part.ReturnedQuantity.Float64()
	}

	items := make([]*LineItem, 0, len(order))
	for _, key := range order {
		group := groups[key]
		first := group.first

		detail := &PartDetail{
			Description:      first.Description,
			ShopPartNumber:   first.ShopPartNumber,
			VendorPartNumber: first.VendorPartNumber,
			Category:         first.PartCategory,
		}
		if first.PrimaryKey != 0 {
			detail.FullbayPartID = intPtr(first.PrimaryKey.Int64())
		}

		items = append(items, &LineItem{
			Type:       TypePart,
			Invoice:    *ctx.Complaint.Invoice,
			Complaint:  ctx.Complaint,
			Correction: ctx,
			Part:       detail,

			Quantity:             floatPtr(group.effectiveQuantity),
			ToBeReturnedQuantity: floatPtr(group.toBeReturned),
			ReturnedQuantity:     floatPtr(group.returned),

			UnitCost:        floatPtr(first.Cost.Float64()),
			UnitPrice:       floatPtr(first.SellingPrice.Float64()),
			LineTotal:       group.extendedTotal,
			PriceOverridden: first.SellingPriceOverridden.Bool(),

			Taxable:       first.Taxable.Bool(),
			TaxRate:       ctx.Complaint.Invoice.TaxRate,
			InventoryItem: first.Inventory.Bool(),
			CoreType:      first.CoreType,
			Sublet:        first.Sublet.Bool(),
		})
	}

	return items
}
