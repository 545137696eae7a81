package domain

import "time"

type Product struct {
	Barcode    string `json:"barcode"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Stock      int    `json:"stock"`
}

type ProductCreateRequest struct {
	Barcode    string `json:"barcode"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Stock      int    `json:"stock"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	CostCents  *int64  `json:"cost_cents,omitempty"`
	Stock      *int    `json:"stock,omitempty"`
}

// CartLine freezes the product's price and cost at scan time. Later catalog
// edits never change lines already in a cart or in a recorded sale.
type CartLine struct {
	Barcode    string `json:"barcode"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Quantity   int    `json:"quantity"`
}

type Sale struct {
	ID            string     `json:"id"`
	Items         []CartLine `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
	PaymentMethod string     `json:"payment_method"`
	Cashier       string     `json:"cashier,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ScanRequest struct {
	TerminalID string `json:"terminal_id"`
	Barcode    string `json:"barcode"`
}

type QuantityRequest struct {
	TerminalID string `json:"terminal_id"`
	Barcode    string `json:"barcode"`
	Delta      int    `json:"delta"`
}

type RemoveLineRequest struct {
	TerminalID string `json:"terminal_id"`
	Barcode    string `json:"barcode"`
}

type ClearCartRequest struct {
	TerminalID string `json:"terminal_id"`
	Confirm    bool   `json:"confirm"`
}

type CartResponse struct {
	TerminalID    string     `json:"terminal_id"`
	Items         []CartLine `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
}

type CheckoutRequest struct {
	TerminalID    string `json:"terminal_id"`
	PaymentMethod string `json:"payment_method"`
}

type StockAdjustmentRequest struct {
	Barcode string `json:"barcode"`
	Type    string `json:"type"`
	Qty     int    `json:"qty"`
}

type InventorySummary struct {
	Products        []Product `json:"products"`
	TotalValueCents int64     `json:"total_value_cents"`
	TotalUnits      int       `json:"total_units"`
	LowStock        []Product `json:"low_stock"`
}

type DashboardStats struct {
	RevenueCents        int64 `json:"revenue_cents"`
	ProfitCents         int64 `json:"profit_cents"`
	TaxesCents          int64 `json:"taxes_cents"`
	Transactions        int   `json:"transactions"`
	Products            int   `json:"products"`
	InventoryValueCents int64 `json:"inventory_value_cents"`
	LowStock            int   `json:"low_stock"`
	AvgSaleCents        int64 `json:"avg_sale_cents"`
}

type ReportStats struct {
	RevenueCents int64 `json:"revenue_cents"`
	ProfitCents  int64 `json:"profit_cents"`
	TaxesCents   int64 `json:"taxes_cents"`
	Transactions int   `json:"transactions"`
	ItemsSold    int   `json:"items_sold"`
	AvgSaleCents int64 `json:"avg_sale_cents"`
}

type SalesReport struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Stats     ReportStats `json:"stats"`
	Sales     []Sale      `json:"sales"`
}

type ImportResult struct {
	Imported int `json:"imported"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CashierUser is the public view of a cashier account; it never carries
// the password hash.
type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	PaymentCash    = "cash"
	PaymentCard    = "card"
	PaymentDigital = "digital"
)

const (
	AdjustAdd    = "add"
	AdjustRemove = "remove"
	AdjustSet    = "set"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigital:
		return true
	}
	return false
}
