package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT barcode, name, category, price_cents, cost_cents, stock
		FROM products
		ORDER BY category, barcode
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Barcode, &p.Name, &p.Category, &p.PriceCents, &p.CostCents, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT barcode, name, category, price_cents, cost_cents, stock
		FROM products
		WHERE barcode = $1
	`, barcode).Scan(&p.Barcode, &p.Name, &p.Category, &p.PriceCents, &p.CostCents, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (barcode, name, category, price_cents, cost_cents, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now(),now())
	`, product.Barcode, product.Name, product.Category, product.PriceCents, product.CostCents, product.Stock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateBarcode
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price_cents = $4, cost_cents = $5, stock = $6, updated_at = now()
		WHERE barcode = $1
	`, product.Barcode, product.Name, product.Category, product.PriceCents, product.CostCents, product.Stock)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, barcode string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM products
		WHERE barcode = $1
	`, barcode)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetProductStock(ctx context.Context, barcode string, stock int) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = $2, updated_at = now()
		WHERE barcode = $1
		RETURNING barcode, name, category, price_cents, cost_cents, stock
	`, barcode, stock).Scan(&p.Barcode, &p.Name, &p.Category, &p.PriceCents, &p.CostCents, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ReplaceProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (barcode, name, category, price_cents, cost_cents, stock, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,now(),now())
		`, p.Barcode, p.Name, p.Category, p.PriceCents, p.CostCents, p.Stock)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicateBarcode
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subtotal_cents, tax_cents, total_cents, payment_method, cashier, created_at
		FROM sales
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	index := make(map[string]int, 128)
	for rows.Next() {
		var sale domain.Sale
		var cashier sql.NullString
		if err := rows.Scan(&sale.ID, &sale.SubtotalCents, &sale.TaxCents, &sale.TotalCents, &sale.PaymentMethod, &cashier, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.Cashier = cashier.String
		sale.CreatedAt = sale.CreatedAt.UTC()
		sale.Items = make([]domain.CartLine, 0, 4)
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, barcode, name, category, price_cents, cost_cents, quantity
		FROM sale_items
		ORDER BY sale_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var saleID string
		var line domain.CartLine
		if err := itemRows.Scan(&saleID, &line.Barcode, &line.Name, &line.Category, &line.PriceCents, &line.CostCents, &line.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[saleID]; ok {
			sales[i].Items = append(sales[i].Items, line)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	var cashier sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subtotal_cents, tax_cents, total_cents, payment_method, cashier, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.SubtotalCents, &sale.TaxCents, &sale.TotalCents, &sale.PaymentMethod, &cashier, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSaleNotFound
		}
		return nil, err
	}
	sale.Cashier = cashier.String
	sale.CreatedAt = sale.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT barcode, name, category, price_cents, cost_cents, quantity
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sale.Items = make([]domain.CartLine, 0, 4)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.Barcode, &line.Name, &line.Category, &line.PriceCents, &line.CostCents, &line.Quantity); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &sale, nil
}

// CreateSale writes the sale header, its frozen line snapshots and the
// clamped stock decrements in one serializable transaction.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrEmptyCart
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, subtotal_cents, tax_cents, total_cents, payment_method, cashier, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.SubtotalCents, sale.TaxCents, sale.TotalCents, sale.PaymentMethod, nullIfEmpty(sale.Cashier), sale.CreatedAt)
	if err != nil {
		return nil, err
	}

	for i, line := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, position, barcode, name, category, price_cents, cost_cents, quantity)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, sale.ID, i, line.Barcode, line.Name, line.Category, line.PriceCents, line.CostCents, line.Quantity)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = GREATEST(0, stock - $2), updated_at = now()
			WHERE barcode = $1
		`, line.Barcode, line.Quantity)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
