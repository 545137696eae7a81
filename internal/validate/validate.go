// Package validate holds the input predicates shared by the service layer
// and the CSV import path.
package validate

import (
	"regexp"

	"tillpoint/internal/domain"
)

// barcodePattern accepts digits and uppercase letters, four characters
// minimum. Lowercase is rejected, not normalized.
var barcodePattern = regexp.MustCompile(`^[0-9A-Z]{4,}$`)

func Barcode(s string) bool {
	return barcodePattern.MatchString(s)
}

func Product(p domain.Product) bool {
	if p.Barcode == "" || p.Name == "" || p.Category == "" {
		return false
	}
	return p.PriceCents >= 0 && p.CostCents >= 0 && p.Stock >= 0
}

// StockAdjustment checks qty against the adjustment type. "remove" may not
// take more than is on hand; "add" and "set" accept any non-negative qty.
func StockAdjustment(adjType string, qty, current int) bool {
	if qty < 0 {
		return false
	}
	switch adjType {
	case domain.AdjustAdd, domain.AdjustSet:
		return true
	case domain.AdjustRemove:
		return qty <= current
	}
	return false
}
