package validate

import (
	"testing"

	"tillpoint/internal/domain"
)

func TestBarcode(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"1001", true},
		{"ABCD", true},
		{"A1B2C3", true},
		{"100", false},
		{"", false},
		{"abcd", false},
		{"10 01", false},
		{"1001-X", false},
	}
	for _, tc := range cases {
		if got := Barcode(tc.in); got != tc.want {
			t.Errorf("Barcode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestProduct(t *testing.T) {
	base := domain.Product{
		Barcode:    "1001",
		Name:       "Organic Coffee Beans",
		Category:   "Beverages",
		PriceCents: 1299,
		CostCents:  750,
		Stock:      45,
	}
	if !Product(base) {
		t.Fatal("valid product rejected")
	}

	cases := []struct {
		name   string
		mutate func(p *domain.Product)
	}{
		{"empty barcode", func(p *domain.Product) { p.Barcode = "" }},
		{"empty name", func(p *domain.Product) { p.Name = "" }},
		{"empty category", func(p *domain.Product) { p.Category = "" }},
		{"negative price", func(p *domain.Product) { p.PriceCents = -1 }},
		{"negative cost", func(p *domain.Product) { p.CostCents = -1 }},
		{"negative stock", func(p *domain.Product) { p.Stock = -1 }},
	}
	for _, tc := range cases {
		p := base
		tc.mutate(&p)
		if Product(p) {
			t.Errorf("%s: expected invalid", tc.name)
		}
	}
}

func TestStockAdjustment(t *testing.T) {
	cases := []struct {
		adjType string
		qty     int
		current int
		want    bool
	}{
		{domain.AdjustAdd, 5, 0, true},
		{domain.AdjustAdd, 0, 0, true},
		{domain.AdjustAdd, -1, 10, false},
		{domain.AdjustRemove, 5, 10, true},
		{domain.AdjustRemove, 10, 10, true},
		{domain.AdjustRemove, 11, 10, false},
		{domain.AdjustSet, 0, 50, true},
		{domain.AdjustSet, 100, 0, true},
		{domain.AdjustSet, -5, 0, false},
		{"destroy", 5, 10, false},
	}
	for _, tc := range cases {
		if got := StockAdjustment(tc.adjType, tc.qty, tc.current); got != tc.want {
			t.Errorf("StockAdjustment(%q, %d, %d) = %v, want %v", tc.adjType, tc.qty, tc.current, got, tc.want)
		}
	}
}
