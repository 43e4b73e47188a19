package flatten

import "math"

// ApplyTax computes LineTax and SalesTotal for one line item.
//
// The tax rate is a whole-number percentage (6 means 6%). Tax applies only
// when the item is taxable, the rate is positive, and the line total is
// strictly positive: a negative total is a return or credit and never
// accrues tax. When tax does not apply, SalesTotal is the line total
// unchanged.
func ApplyTax(item *LineItem) {
	if item.Taxable && item.TaxRate > 0 && item.LineTotal > 0 {
		item.LineTax = round2(item.LineTotal * item.TaxRate / 100.0)
		item.SalesTotal = round2(item.LineTotal + item.LineTax)
		return
	}
	item.LineTax = 0.0
	item.SalesTotal = item.LineTotal
}

// round2 rounds to two decimal places, half away from zero.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
