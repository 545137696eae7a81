package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	sales           []domain.Sale
	salesByID       map[string]int
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning. These credentials are never used in production (the backend uses
// PostgreSQL or the file store there and seeds users explicitly).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		sales:           make([]domain.Sale, 0, 64),
		salesByID:       make(map[string]int),
		usersByUsername: seedUsers(),
	}
}

func NewSeeded() *Store {
	products := []domain.Product{
		{Barcode: "1001", Name: "Organic Coffee Beans", Category: "Beverages", PriceCents: 1299, CostCents: 750, Stock: 45},
		{Barcode: "1002", Name: "Whole Wheat Bread", Category: "Food", PriceCents: 349, CostCents: 180, Stock: 30},
		{Barcode: "1003", Name: "Fresh Orange Juice", Category: "Beverages", PriceCents: 599, CostCents: 320, Stock: 25},
		{Barcode: "1004", Name: "Greek Yogurt", Category: "Food", PriceCents: 429, CostCents: 210, Stock: 40},
		{Barcode: "1005", Name: "Organic Honey", Category: "Food", PriceCents: 899, CostCents: 500, Stock: 20},
		{Barcode: "1006", Name: "Almond Milk", Category: "Beverages", PriceCents: 499, CostCents: 280, Stock: 35},
		{Barcode: "1007", Name: "Dark Chocolate Bar", Category: "Food", PriceCents: 399, CostCents: 200, Stock: 50},
		{Barcode: "1008", Name: "Green Tea", Category: "Beverages", PriceCents: 649, CostCents: 350, Stock: 28},
		{Barcode: "1009", Name: "Granola Mix", Category: "Food", PriceCents: 799, CostCents: 420, Stock: 22},
		{Barcode: "1010", Name: "Coconut Water", Category: "Beverages", PriceCents: 299, CostCents: 150, Stock: 60},
		{Barcode: "1011", Name: "Protein Bar", Category: "Health", PriceCents: 249, CostCents: 120, Stock: 75},
		{Barcode: "1012", Name: "Olive Oil", Category: "Food", PriceCents: 1199, CostCents: 680, Stock: 18},
	}

	s := New()
	for _, p := range products {
		s.products[p.Barcode] = p
	}
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Barcode, b.Barcode)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) GetProduct(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[barcode]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.Barcode]; exists {
		return nil, store.ErrDuplicateBarcode
	}

	s.products[product.Barcode] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.Barcode]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.Barcode] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[barcode]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, barcode)
	return nil
}

func (s *Store) SetProductStock(_ context.Context, barcode string, stock int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[barcode]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.Stock = stock
	s.products[barcode] = product
	updated := product
	return &updated, nil
}

func (s *Store) ReplaceProducts(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if _, dup := next[p.Barcode]; dup {
			return store.ErrDuplicateBarcode
		}
		next[p.Barcode] = p
	}
	s.products = next
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, len(s.sales))
	for i, sale := range s.sales {
		sales[i] = cloneSale(sale)
	}
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrSaleNotFound
	}
	sale := cloneSale(s.sales[idx])
	return &sale, nil
}

// CreateSale appends the sale and decrements stock under one lock, so the
// ledger entry and the stock mutation are observed together. Stock is
// clamped at zero.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, store.ErrEmptyCart
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, fmt.Errorf("sale %s already recorded", sale.ID)
	}

	for _, line := range sale.Items {
		product, exists := s.products[line.Barcode]
		if !exists {
			continue
		}
		product.Stock -= line.Quantity
		if product.Stock < 0 {
			product.Stock = 0
		}
		s.products[line.Barcode] = product
	}

	stored := cloneSale(sale)
	s.salesByID[sale.ID] = len(s.sales)
	s.sales = append(s.sales, stored)
	created := cloneSale(stored)
	return &created, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return fmt.Errorf("user %s already exists", user.Username)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneSale(sale domain.Sale) domain.Sale {
	out := sale
	out.Items = make([]domain.CartLine, len(sale.Items))
	copy(out.Items, sale.Items)
	return out
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
