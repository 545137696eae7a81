// Package calc holds the pure money and aggregate calculations. Everything
// here is deterministic over its inputs; persistence and clocks stay out.
package calc

import (
	"math"
	"time"

	"tillpoint/internal/domain"
)

// TaxRate is applied to the cart subtotal at checkout. Fixed, not
// configurable at runtime.
const TaxRate = 0.08

// LowStockThreshold marks products needing reorder attention.
const LowStockThreshold = 10

func Subtotal(lines []domain.CartLine) int64 {
	var sum int64
	for _, line := range lines {
		sum += line.PriceCents * int64(line.Quantity)
	}
	return sum
}

// Tax rounds half away from zero on whole cents.
func Tax(subtotalCents int64) int64 {
	return int64(math.Round(float64(subtotalCents) * TaxRate))
}

func Total(subtotalCents, taxCents int64) int64 {
	return subtotalCents + taxCents
}

// Profit is revenue minus the cost of goods sold, costed from the live
// catalog. A sale line whose product no longer exists contributes zero cost.
func Profit(sales []domain.Sale, products []domain.Product) int64 {
	costs := make(map[string]int64, len(products))
	for _, p := range products {
		costs[p.Barcode] = p.CostCents
	}

	var profit int64
	for _, sale := range sales {
		profit += sale.TotalCents
		for _, line := range sale.Items {
			profit -= costs[line.Barcode] * int64(line.Quantity)
		}
	}
	return profit
}

func InventoryValue(products []domain.Product) int64 {
	var value int64
	for _, p := range products {
		value += p.PriceCents * int64(p.Stock)
	}
	return value
}

func LowStockCount(products []domain.Product) int {
	n := 0
	for _, p := range products {
		if p.Stock < LowStockThreshold {
			n++
		}
	}
	return n
}

// DashboardStats aggregates the full sale ledger and catalog. Only the
// transaction count is today-restricted (calendar-date equality in UTC
// against now); revenue, profit, taxes and the sale average cover all sales.
func DashboardStats(products []domain.Product, sales []domain.Sale, now time.Time) domain.DashboardStats {
	today := now.UTC().Format("2006-01-02")
	transactions := 0
	for _, sale := range sales {
		if sale.CreatedAt.UTC().Format("2006-01-02") == today {
			transactions++
		}
	}

	var revenue, taxes int64
	for _, sale := range sales {
		revenue += sale.TotalCents
		taxes += sale.TaxCents
	}
	var avg int64
	if len(sales) > 0 {
		avg = revenue / int64(len(sales))
	}
	return domain.DashboardStats{
		RevenueCents:        revenue,
		ProfitCents:         Profit(sales, products),
		TaxesCents:          taxes,
		Transactions:        transactions,
		Products:            len(products),
		InventoryValueCents: InventoryValue(products),
		LowStock:            LowStockCount(products),
		AvgSaleCents:        avg,
	}
}

// ReportStats aggregates over a pre-filtered slice of sales, costing profit
// from the live catalog.
func ReportStats(products []domain.Product, sales []domain.Sale) domain.ReportStats {
	var revenue, taxes int64
	items := 0
	for _, sale := range sales {
		revenue += sale.TotalCents
		taxes += sale.TaxCents
		for _, line := range sale.Items {
			items += line.Quantity
		}
	}
	var avg int64
	if len(sales) > 0 {
		avg = revenue / int64(len(sales))
	}
	return domain.ReportStats{
		RevenueCents: revenue,
		ProfitCents:  Profit(sales, products),
		TaxesCents:   taxes,
		Transactions: len(sales),
		ItemsSold:    items,
		AvgSaleCents: avg,
	}
}

// FilterSalesByDateRange keeps sales whose UTC calendar date falls within
// [start, end], both expressed as YYYY-MM-DD. Comparison is on the date
// string, so time-of-day never matters.
func FilterSalesByDateRange(sales []domain.Sale, start, end string) []domain.Sale {
	filtered := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		day := sale.CreatedAt.UTC().Format("2006-01-02")
		if day >= start && day <= end {
			filtered = append(filtered, sale)
		}
	}
	return filtered
}

// DefaultReportRange is the last 30 days through today, inclusive.
func DefaultReportRange(now time.Time) (start, end string) {
	end = now.UTC().Format("2006-01-02")
	start = now.UTC().AddDate(0, 0, -30).Format("2006-01-02")
	return start, end
}
