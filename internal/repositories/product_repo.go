package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when no product matches a lookup.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateName is returned when a write violates name uniqueness.
	ErrDuplicateName = errors.New("product name already exists")
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByNameIgnoreCase(ctx context.Context, name string) (*models.Product, error)
	// GetByPrice and GetByStock return the lowest-id match when several products share the value.
	GetByPrice(ctx context.Context, price decimal.Decimal) (*models.Product, error)
	GetByStock(ctx context.Context, stock int) (*models.Product, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	// ExistsByName compares case-insensitively and ignores the product with excludeID (0 excludes nothing).
	ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	// WithinTransaction runs fn against a repository bound to a single transaction.
	// The transaction is rolled back when fn returns an error.
	WithinTransaction(ctx context.Context, fn func(repo ProductRepository) error) error
}
