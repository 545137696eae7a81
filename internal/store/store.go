package store

import (
	"context"
	"errors"

	"tillpoint/internal/domain"
)

var (
	ErrNotFound             = errors.New("product not found")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrDuplicateBarcode     = errors.New("duplicate barcode")
	ErrOutOfStock           = errors.New("out of stock")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidAdjustment    = errors.New("invalid stock adjustment")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidPayment       = errors.New("invalid payment method")
	ErrConfirmationRequired = errors.New("confirmation required")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, barcode string) error
	SetProductStock(ctx context.Context, barcode string, stock int) (*domain.Product, error)
	ReplaceProducts(ctx context.Context, products []domain.Product) error
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	// CreateSale appends the sale and decrements stock for every line in a
	// single transactional unit. Stock never goes below zero.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
