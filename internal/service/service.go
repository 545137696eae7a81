package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"tillpoint/internal/cache"
	"tillpoint/internal/calc"
	"tillpoint/internal/cart"
	"tillpoint/internal/domain"
	"tillpoint/internal/store"
	"tillpoint/internal/txid"
	"tillpoint/internal/validate"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const dashboardCacheKey = "dashboard:stats"

type Service struct {
	repo     store.Repository
	stats    cache.StatsCache
	statsTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	carts map[string]*cart.Cart
}

func New(repo store.Repository, stats cache.StatsCache, statsTTL time.Duration) *Service {
	if stats == nil {
		stats = cache.NoopStatsCache{}
	}
	if statsTTL <= 0 {
		statsTTL = 15 * time.Second
	}

	return &Service{
		repo:     repo,
		stats:    stats,
		statsTTL: statsTTL,
		now:      func() time.Time { return time.Now().UTC() },
		carts:    make(map[string]*cart.Cart),
	}
}

// cartFor returns the terminal's cart, creating it on first use. One cart
// per terminal id; callers hold no locks.
func (s *Service) cartFor(terminalID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[terminalID]
	if !ok {
		c = cart.New()
		s.carts[terminalID] = c
	}
	return c
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, barcode string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Barcode:    strings.TrimSpace(req.Barcode),
		Name:       strings.TrimSpace(req.Name),
		Category:   strings.TrimSpace(req.Category),
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Stock:      req.Stock,
	}

	if !validate.Barcode(product.Barcode) || !validate.Product(product) {
		return domain.Product{}, store.ErrInvalidProduct
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateStats(ctx)
	log.Printf("[service] product created barcode=%s name=%q", created.Barcode, created.Name)
	return *created, nil
}

// UpdateProduct applies the partial update. The barcode is the identity and
// never changes.
func (s *Service) UpdateProduct(ctx context.Context, barcode string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceCents != nil {
		updated.PriceCents = *req.PriceCents
	}
	if req.CostCents != nil {
		updated.CostCents = *req.CostCents
	}
	if req.Stock != nil {
		updated.Stock = *req.Stock
	}

	if !validate.Product(updated) {
		return domain.Product{}, store.ErrInvalidProduct
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateStats(ctx)
	return *saved, nil
}

// DeleteProduct removes the catalog entry. Recorded sales keep their frozen
// line snapshots, so history survives the delete.
func (s *Service) DeleteProduct(ctx context.Context, barcode string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, strings.TrimSpace(barcode)); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *Service) AdjustStock(ctx context.Context, req domain.StockAdjustmentRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(req.Barcode))
	if err != nil {
		return domain.Product{}, err
	}

	if !validate.StockAdjustment(req.Type, req.Qty, product.Stock) {
		return domain.Product{}, store.ErrInvalidAdjustment
	}

	next := product.Stock
	switch req.Type {
	case domain.AdjustAdd:
		next += req.Qty
	case domain.AdjustRemove:
		next -= req.Qty
		if next < 0 {
			next = 0
		}
	case domain.AdjustSet:
		next = req.Qty
	}

	updated, err := s.repo.SetProductStock(ctx, product.Barcode, next)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateStats(ctx)
	log.Printf("[service] stock adjusted barcode=%s type=%s qty=%d stock=%d", updated.Barcode, req.Type, req.Qty, updated.Stock)
	return *updated, nil
}

func (s *Service) InventorySummary(ctx context.Context) (domain.InventorySummary, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.InventorySummary{}, err
	}

	summary := domain.InventorySummary{
		Products: products,
		LowStock: make([]domain.Product, 0),
	}
	for _, p := range products {
		summary.TotalValueCents += p.PriceCents * int64(p.Stock)
		summary.TotalUnits += p.Stock
		if p.Stock < calc.LowStockThreshold {
			summary.LowStock = append(summary.LowStock, p)
		}
	}
	return summary, nil
}

// ScanProduct adds one unit of the product to the terminal's cart and
// returns the cart state.
func (s *Service) ScanProduct(ctx context.Context, req domain.ScanRequest) (domain.CartResponse, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(req.Barcode))
	if err != nil {
		return domain.CartResponse{}, err
	}

	c := s.cartFor(req.TerminalID)
	s.mu.Lock()
	err = c.Scan(*product)
	s.mu.Unlock()
	if err != nil {
		return domain.CartResponse{}, err
	}
	return s.cartResponse(req.TerminalID, c), nil
}

func (s *Service) ChangeQuantity(ctx context.Context, req domain.QuantityRequest) (domain.CartResponse, error) {
	c := s.cartFor(req.TerminalID)

	s.mu.Lock()
	has := c.HasLine(req.Barcode)
	s.mu.Unlock()
	if !has {
		// missing line is a silent no-op
		return s.cartResponse(req.TerminalID, c), nil
	}

	product, err := s.repo.GetProduct(ctx, req.Barcode)
	if err != nil {
		return domain.CartResponse{}, err
	}

	s.mu.Lock()
	err = c.ChangeQuantity(req.Barcode, req.Delta, product.Stock)
	s.mu.Unlock()
	if err != nil {
		return domain.CartResponse{}, err
	}
	return s.cartResponse(req.TerminalID, c), nil
}

func (s *Service) RemoveLine(_ context.Context, req domain.RemoveLineRequest) (domain.CartResponse, error) {
	c := s.cartFor(req.TerminalID)
	s.mu.Lock()
	c.Remove(req.Barcode)
	s.mu.Unlock()
	return s.cartResponse(req.TerminalID, c), nil
}

func (s *Service) ClearCart(_ context.Context, req domain.ClearCartRequest) (domain.CartResponse, error) {
	c := s.cartFor(req.TerminalID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.Empty() && !req.Confirm {
		return domain.CartResponse{}, store.ErrConfirmationRequired
	}
	c.Clear()
	return domain.CartResponse{TerminalID: req.TerminalID, Items: c.Lines()}, nil
}

func (s *Service) Cart(_ context.Context, terminalID string) domain.CartResponse {
	c := s.cartFor(terminalID)
	return s.cartResponse(terminalID, c)
}

func (s *Service) cartResponse(terminalID string, c *cart.Cart) domain.CartResponse {
	s.mu.Lock()
	lines := c.Lines()
	s.mu.Unlock()

	subtotal := calc.Subtotal(lines)
	tax := calc.Tax(subtotal)
	return domain.CartResponse{
		TerminalID:    terminalID,
		Items:         lines,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    calc.Total(subtotal, tax),
	}
}

// Checkout materializes the terminal's cart into a Sale. The sale append
// and the stock decrements run as one repository call, and the cart empties
// only after that call succeeds.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return domain.Sale{}, store.ErrInvalidPayment
	}

	c := s.cartFor(req.TerminalID)
	s.mu.Lock()
	lines := c.Lines()
	s.mu.Unlock()

	if len(lines) == 0 {
		return domain.Sale{}, store.ErrEmptyCart
	}

	subtotal := calc.Subtotal(lines)
	tax := calc.Tax(subtotal)
	sale := domain.Sale{
		ID:            txid.New(),
		Items:         lines,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    calc.Total(subtotal, tax),
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     s.now(),
	}
	if actor, ok := ActorFromContext(ctx); ok {
		sale.Cashier = actor.Username
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("checkout: %w", err)
	}

	s.mu.Lock()
	c.Clear()
	s.mu.Unlock()

	s.invalidateStats(ctx)
	log.Printf("[service] checkout id=%s terminal=%s items=%d total=%d", created.ID, req.TerminalID, len(created.Items), created.TotalCents)
	return *created, nil
}

func (s *Service) ListSales(ctx context.Context, startDate, endDate string) ([]domain.Sale, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	if startDate == "" && endDate == "" {
		return sales, nil
	}
	start, end, err := s.resolveRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return calc.FilterSalesByDateRange(sales, start, end), nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) SalesReport(ctx context.Context, startDate, endDate string) (domain.SalesReport, error) {
	start, end, err := s.resolveRange(startDate, endDate)
	if err != nil {
		return domain.SalesReport{}, err
	}

	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.SalesReport{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.SalesReport{}, err
	}

	filtered := calc.FilterSalesByDateRange(sales, start, end)
	return domain.SalesReport{
		StartDate: start,
		EndDate:   end,
		Stats:     calc.ReportStats(products, filtered),
		Sales:     filtered,
	}, nil
}

func (s *Service) resolveRange(startDate, endDate string) (string, string, error) {
	defStart, defEnd := calc.DefaultReportRange(s.now())
	if startDate == "" {
		startDate = defStart
	}
	if endDate == "" {
		endDate = defEnd
	}
	for _, d := range []string{startDate, endDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return "", "", fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	if startDate > endDate {
		return "", "", fmt.Errorf("start date %s after end date %s", startDate, endDate)
	}
	return startDate, endDate, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	if cached, hit, err := s.stats.Get(ctx, dashboardCacheKey); err == nil && hit {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: stats cache read failed: %v", err)
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := calc.DashboardStats(products, sales, s.now())
	if err := s.stats.Set(ctx, dashboardCacheKey, &stats, s.statsTTL); err != nil {
		log.Printf("[service] WARN: stats cache write failed: %v", err)
	}
	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if err := s.stats.Invalidate(ctx, dashboardCacheKey); err != nil {
		log.Printf("[service] WARN: stats cache invalidate failed: %v", err)
	}
}

var csvHeader = []string{"Barcode", "Name", "Category", "Price", "Cost", "Stock", "Value"}

// ExportProductsCSV writes the catalog in the inventory report format.
// Money columns are dollars with two decimals; Value is price times stock.
func (s *Service) ExportProductsCSV(ctx context.Context, w io.Writer) error {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range products {
		record := []string{
			p.Barcode,
			p.Name,
			p.Category,
			centsToDollars(p.PriceCents),
			centsToDollars(p.CostCents),
			strconv.Itoa(p.Stock),
			centsToDollars(p.PriceCents * int64(p.Stock)),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportProductsCSV replaces the catalog with the parsed rows. The Value
// column is derived and ignored on the way in. Any invalid row aborts the
// whole import.
func (s *Service) ImportProductsCSV(ctx context.Context, r io.Reader) (domain.ImportResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ImportResult{}, err
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 6 || !strings.EqualFold(header[0], "Barcode") {
		return domain.ImportResult{}, fmt.Errorf("unexpected header %v", header)
	}

	products := make([]domain.Product, 0, 64)
	seen := make(map[string]struct{})
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 6 {
			return domain.ImportResult{}, fmt.Errorf("line %d: want at least 6 fields, got %d", line, len(record))
		}

		price, err := dollarsToCents(record[3])
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("line %d price: %w", line, err)
		}
		cost, err := dollarsToCents(record[4])
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("line %d cost: %w", line, err)
		}
		stock, err := strconv.Atoi(strings.TrimSpace(record[5]))
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("line %d stock: %w", line, err)
		}

		p := domain.Product{
			Barcode:    strings.TrimSpace(record[0]),
			Name:       strings.TrimSpace(record[1]),
			Category:   strings.TrimSpace(record[2]),
			PriceCents: price,
			CostCents:  cost,
			Stock:      stock,
		}
		if !validate.Barcode(p.Barcode) || !validate.Product(p) {
			return domain.ImportResult{}, fmt.Errorf("line %d: %w", line, store.ErrInvalidProduct)
		}
		if _, dup := seen[p.Barcode]; dup {
			return domain.ImportResult{}, fmt.Errorf("line %d: %w", line, store.ErrDuplicateBarcode)
		}
		seen[p.Barcode] = struct{}{}
		products = append(products, p)
	}

	if err := s.repo.ReplaceProducts(ctx, products); err != nil {
		return domain.ImportResult{}, err
	}

	s.invalidateStats(ctx)
	log.Printf("[service] catalog imported products=%d", len(products))
	return domain.ImportResult{Imported: len(products)}, nil
}

func centsToDollars(cents int64) string {
	neg := ""
	if cents < 0 {
		neg = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", neg, cents/100, cents%100)
}

func dollarsToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	whole, frac, found := strings.Cut(s, ".")
	cents, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	cents *= 100
	if found {
		if len(frac) > 2 {
			return 0, fmt.Errorf("amount %q has more than two decimal places", s)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		if cents < 0 || strings.HasPrefix(whole, "-") {
			cents -= f
		} else {
			cents += f
		}
	}
	return cents, nil
}
