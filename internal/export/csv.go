// Package export renders stored line-item rows as CSV for spreadsheet
// consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/infra/postgres"
)

// Header is the canonical CSV column order. It mirrors the line-item table
// so an export can be diffed against the database directly.
var Header = []string{
	"fullbay_invoice_id",
	"invoice_number",
	"invoice_date",
	"due_date",
	"shop_title",
	"customer_id",
	"customer_title",
	"customer_external_id",
	"fullbay_service_order_id",
	"repair_order_number",
	"unit_id",
	"unit",
	"unit_type",
	"unit_year",
	"unit_make",
	"unit_model",
	"unit_vin",
	"unit_license_plate",
	"primary_technician",
	"fullbay_complaint_id",
	"complaint_type",
	"complaint_note",
	"fullbay_correction_id",
	"correction_title",
	"service_description",
	"line_item_type",
	"fullbay_part_id",
	"part_description",
	"shop_part_number",
	"vendor_part_number",
	"part_category",
	"labor_description",
	"assigned_technician",
	"technician_portion",
	"quantity",
	"to_be_returned_quantity",
	"returned_quantity",
	"so_hours",
	"unit_cost",
	"unit_price",
	"line_total",
	"price_overridden",
	"taxable",
	"tax_rate",
	"line_tax",
	"sales_total",
	"inventory_item",
	"core_type",
	"sublet",
	"so_supplies_total",
}

// WriteCSV streams the rows to w with the canonical header.
func WriteCSV(w io.Writer, rows []postgres.LineItemRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(record(&rows[i])); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func record(r *postgres.LineItemRow) []string {
	return []string{
		r.FullbayInvoiceID,
		str(r.InvoiceNumber),
		date(r.InvoiceDate),
		date(r.DueDate),
		str(r.ShopTitle),
		i64(r.CustomerID),
		str(r.CustomerTitle),
		str(r.CustomerExternalID),
		str(r.FullbayServiceOrderID),
		str(r.RepairOrderNumber),
		str(r.UnitID),
		str(r.Unit),
		str(r.UnitType),
		str(r.UnitYear),
		str(r.UnitMake),
		str(r.UnitModel),
		str(r.UnitVIN),
		str(r.UnitLicensePlate),
		str(r.PrimaryTechnician),
		i64(r.FullbayComplaintID),
		str(r.ComplaintType),
		str(r.ComplaintNote),
		i64(r.FullbayCorrectionID),
		str(r.CorrectionTitle),
		str(r.ServiceDescription),
		r.LineItemType,
		i64(r.FullbayPartID),
		str(r.PartDescription),
		str(r.ShopPartNumber),
		str(r.VendorPartNumber),
		str(r.PartCategory),
		str(r.LaborDescription),
		str(r.AssignedTechnician),
		i64(r.TechnicianPortion),
		f64(r.Quantity),
		f64(r.ToBeReturnedQuantity),
		f64(r.ReturnedQuantity),
		f64(r.SOHours),
		f64(r.UnitCost),
		f64(r.UnitPrice),
		money(r.LineTotal),
		boolean(r.PriceOverridden),
		boolean(r.Taxable),
		f64(r.TaxRate),
		money(r.LineTax),
		money(r.SalesTotal),
		boolean(r.InventoryItem),
		str(r.CoreType),
		boolean(r.Sublet),
		f64(r.SOSuppliesTotal),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func i64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func f64(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func boolean(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
