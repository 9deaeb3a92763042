// Package inventory provides stock browsing across stores and
// warehouses, the canonical stock status policy, and inventory export.
package inventory

// StockStatus classifies a quantity for the inventory endpoints.
// This is the single canonical threshold policy; status is always
// derived from quantity, never stored.
func StockStatus(quantity int) string {
	switch {
	case quantity > 20:
		return "in-stock"
	case quantity > 0:
		return "low-stock"
	default:
		return "out-of-stock"
	}
}

// StockBand is the coarser High/Medium/Low grading used by the
// warehouse browse view.
func StockBand(quantity int) string {
	switch {
	case quantity >= 200:
		return "High"
	case quantity >= 50:
		return "Medium"
	default:
		return "Low"
	}
}
