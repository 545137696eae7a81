// Package file implements the repository over flat JSON documents in a data
// directory: products.json, sales.json and users.json. State is mirrored in
// memory and flushed on every mutation with a temp-file rename, so a crash
// mid-write never leaves a torn document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

const (
	productsFile = "products.json"
	salesFile    = "sales.json"
	usersFile    = "users.json"
)

type Store struct {
	dir string

	mu              sync.RWMutex
	products        map[string]domain.Product
	sales           []domain.Sale
	salesByID       map[string]int
	usersByUsername map[string]domain.UserAccount
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:             dir,
		products:        make(map[string]domain.Product),
		salesByID:       make(map[string]int),
		usersByUsername: make(map[string]domain.UserAccount),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var products []domain.Product
	if err := readJSON(filepath.Join(s.dir, productsFile), &products); err != nil {
		return err
	}
	for _, p := range products {
		s.products[p.Barcode] = p
	}

	var sales []domain.Sale
	if err := readJSON(filepath.Join(s.dir, salesFile), &sales); err != nil {
		return err
	}
	s.sales = sales
	for i, sale := range sales {
		s.salesByID[sale.ID] = i
	}

	var users []domain.UserAccount
	if err := readJSON(filepath.Join(s.dir, usersFile), &users); err != nil {
		return err
	}
	for _, u := range users {
		s.usersByUsername[u.Username] = u
	}
	return nil
}

// readJSON tolerates a missing file: a fresh data dir starts empty.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// flushProducts is called with s.mu held.
func (s *Store) flushProducts() error {
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Barcode, b.Barcode)
	})
	return writeJSON(filepath.Join(s.dir, productsFile), products)
}

// flushSales is called with s.mu held.
func (s *Store) flushSales() error {
	return writeJSON(filepath.Join(s.dir, salesFile), s.sales)
}

// flushUsers is called with s.mu held.
func (s *Store) flushUsers() error {
	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return writeJSON(filepath.Join(s.dir, usersFile), users)
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
	if err := s.flushProducts(); err != nil {
		delete(s.products, product.Barcode)
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.products[product.Barcode]
	if !exists {
		return nil, store.ErrNotFound
	}
	s.products[product.Barcode] = product
	if err := s.flushProducts(); err != nil {
		s.products[product.Barcode] = prev
		return nil, err
	}
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.products[barcode]
	if !exists {
		return store.ErrNotFound
	}
	delete(s.products, barcode)
	if err := s.flushProducts(); err != nil {
		s.products[barcode] = prev
		return err
	}
	return nil
}

func (s *Store) SetProductStock(_ context.Context, barcode string, stock int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[barcode]
	if !exists {
		return nil, store.ErrNotFound
	}
	prev := product
	product.Stock = stock
	s.products[barcode] = product
	if err := s.flushProducts(); err != nil {
		s.products[barcode] = prev
		return nil, err
	}
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
	prev := s.products
	s.products = next
	if err := s.flushProducts(); err != nil {
		s.products = prev
		return err
	}
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

// CreateSale appends the sale and decrements stock, then flushes both
// documents. If either flush fails the in-memory state rolls back so a
// retry starts clean; the ledger file is written before the stock file.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, store.ErrEmptyCart
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, fmt.Errorf("sale %s already recorded", sale.ID)
	}

	prevProducts := make(map[string]domain.Product, len(s.products))
	for k, v := range s.products {
		prevProducts[k] = v
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

	rollback := func() {
		s.sales = s.sales[:len(s.sales)-1]
		delete(s.salesByID, sale.ID)
		s.products = prevProducts
	}
	if err := s.flushSales(); err != nil {
		rollback()
		return nil, err
	}
	if err := s.flushProducts(); err != nil {
		rollback()
		return nil, err
	}

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
	if err := s.flushUsers(); err != nil {
		delete(s.usersByUsername, user.Username)
		return err
	}
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
	prev := user.Password
	user.Password = password
	s.usersByUsername[username] = user
	if err := s.flushUsers(); err != nil {
		user.Password = prev
		s.usersByUsername[username] = user
		return err
	}
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
