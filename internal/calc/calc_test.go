package calc

import (
	"testing"
	"time"

	"tillpoint/internal/domain"
)

func TestSubtotalTaxTotal(t *testing.T) {
	lines := []domain.CartLine{
		{Barcode: "1001", PriceCents: 1299, CostCents: 750, Quantity: 2},
		{Barcode: "1002", PriceCents: 349, CostCents: 180, Quantity: 1},
	}
	subtotal := Subtotal(lines)
	if subtotal != 2947 {
		t.Fatalf("subtotal = %d, want 2947", subtotal)
	}
	tax := Tax(subtotal)
	if tax != 236 {
		t.Fatalf("tax = %d, want 236", tax)
	}
	if got := Total(subtotal, tax); got != 3183 {
		t.Fatalf("total = %d, want 3183", got)
	}
}

func TestTaxRounding(t *testing.T) {
	cases := []struct {
		subtotal int64
		want     int64
	}{
		{0, 0},
		{100, 8},
		{106, 8},   // 8.48 rounds down
		{107, 9},   // 8.56 rounds up
		{1299, 104}, // 103.92
	}
	for _, tc := range cases {
		if got := Tax(tc.subtotal); got != tc.want {
			t.Errorf("Tax(%d) = %d, want %d", tc.subtotal, got, tc.want)
		}
	}
}

func TestProfitUsesLiveCosts(t *testing.T) {
	sales := []domain.Sale{
		{
			TotalCents: 3183,
			Items: []domain.CartLine{
				{Barcode: "1001", PriceCents: 1299, CostCents: 750, Quantity: 2},
				{Barcode: "1002", PriceCents: 349, CostCents: 180, Quantity: 1},
			},
		},
	}
	products := []domain.Product{
		{Barcode: "1001", CostCents: 750},
		{Barcode: "1002", CostCents: 180},
	}

	// 3183 - (750*2 + 180)
	if got := Profit(sales, products); got != 1503 {
		t.Fatalf("profit = %d, want 1503", got)
	}

	// The catalog cost, not the sale-line snapshot, is what counts.
	products[0].CostCents = 800
	if got := Profit(sales, products); got != 1403 {
		t.Fatalf("profit after cost change = %d, want 1403", got)
	}
}

func TestProfitMissingProductCostsZero(t *testing.T) {
	sales := []domain.Sale{
		{
			TotalCents: 3183,
			Items: []domain.CartLine{
				{Barcode: "1001", CostCents: 750, Quantity: 2},
				{Barcode: "1002", CostCents: 180, Quantity: 1},
			},
		},
	}
	products := []domain.Product{
		{Barcode: "1002", CostCents: 180},
	}

	// 1001 was deleted from the catalog; its lines contribute zero cost.
	if got := Profit(sales, products); got != 3183-180 {
		t.Fatalf("profit = %d, want %d", got, 3183-180)
	}
}

func TestDashboardStatsAggregatesAllSales(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	products := []domain.Product{
		{Barcode: "1001", PriceCents: 1299, Stock: 45},
		{Barcode: "1002", PriceCents: 349, Stock: 3},
	}
	sales := []domain.Sale{
		{TotalCents: 3183, TaxCents: 236, CreatedAt: now.Add(-2 * time.Hour)},
		{TotalCents: 1000, TaxCents: 74, CreatedAt: now.AddDate(0, 0, -1)},
	}

	stats := DashboardStats(products, sales, now)
	// Only the transaction count is restricted to today's calendar date.
	if stats.Transactions != 1 {
		t.Fatalf("transactions = %d, want 1", stats.Transactions)
	}
	if stats.RevenueCents != 4183 {
		t.Fatalf("revenue = %d, want 4183", stats.RevenueCents)
	}
	if stats.TaxesCents != 310 {
		t.Fatalf("taxes = %d, want 310", stats.TaxesCents)
	}
	if stats.Products != 2 {
		t.Fatalf("products = %d, want 2", stats.Products)
	}
	if want := int64(1299*45 + 349*3); stats.InventoryValueCents != want {
		t.Fatalf("inventory value = %d, want %d", stats.InventoryValueCents, want)
	}
	if stats.LowStock != 1 {
		t.Fatalf("low stock = %d, want 1", stats.LowStock)
	}
	if stats.AvgSaleCents != 2091 {
		t.Fatalf("avg sale = %d, want 2091", stats.AvgSaleCents)
	}
}

func TestDashboardStatsEmpty(t *testing.T) {
	stats := DashboardStats(nil, nil, time.Now())
	if stats.AvgSaleCents != 0 || stats.Transactions != 0 || stats.RevenueCents != 0 {
		t.Fatalf("empty stats not zeroed: %+v", stats)
	}
}

func TestReportStats(t *testing.T) {
	sales := []domain.Sale{
		{
			TotalCents: 3183, TaxCents: 236,
			Items: []domain.CartLine{
				{Barcode: "1001", CostCents: 750, Quantity: 2},
				{Barcode: "1002", CostCents: 180, Quantity: 1},
			},
		},
		{
			TotalCents: 1080, TaxCents: 80,
			Items: []domain.CartLine{
				{Barcode: "1003", CostCents: 400, Quantity: 1},
			},
		},
	}
	products := []domain.Product{
		{Barcode: "1001", CostCents: 750},
		{Barcode: "1002", CostCents: 180},
		{Barcode: "1003", CostCents: 400},
	}

	stats := ReportStats(products, sales)
	if stats.Transactions != 2 {
		t.Fatalf("transactions = %d, want 2", stats.Transactions)
	}
	if stats.ItemsSold != 4 {
		t.Fatalf("items sold = %d, want 4", stats.ItemsSold)
	}
	if stats.RevenueCents != 4263 {
		t.Fatalf("revenue = %d, want 4263", stats.RevenueCents)
	}
	if stats.AvgSaleCents != 2131 {
		t.Fatalf("avg sale = %d, want 2131", stats.AvgSaleCents)
	}
	// 4263 - (750*2 + 180 + 400)
	if stats.ProfitCents != 2183 {
		t.Fatalf("profit = %d, want 2183", stats.ProfitCents)
	}
}

func TestFilterSalesByDateRange(t *testing.T) {
	day := func(d string) time.Time {
		ts, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatalf("parse %s: %v", d, err)
		}
		return ts.Add(13 * time.Hour)
	}
	sales := []domain.Sale{
		{ID: "a", CreatedAt: day("2026-03-01")},
		{ID: "b", CreatedAt: day("2026-03-10")},
		{ID: "c", CreatedAt: day("2026-03-20")},
	}

	got := FilterSalesByDateRange(sales, "2026-03-01", "2026-03-10")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("inclusive range filter wrong: %+v", got)
	}

	if got := FilterSalesByDateRange(sales, "2026-04-01", "2026-04-30"); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestDefaultReportRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	start, end := DefaultReportRange(now)
	if end != "2026-03-15" {
		t.Fatalf("end = %s, want 2026-03-15", end)
	}
	if start != "2026-02-13" {
		t.Fatalf("start = %s, want 2026-02-13", start)
	}
}
