package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Price is a fixed-point amount. SQLite keeps it as text because its numeric
// affinity would round it through a float; other dialects use decimal(19,2).
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func (Price) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return "decimal(19,2)"
}

// Product represents a product in the catalog.
type Product struct {
	ID          uint      `json:"id" gorm:"column:product_id;primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	NameKey     string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:idx_tb_product_name_key"`
	Description string    `json:"description" gorm:"type:text"`
	Price       Price     `json:"price" gorm:"not null;index"`
	Stock       int       `json:"stock" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "tb_product"
}

// BeforeSave keeps NameKey in sync with Name on every insert and save.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.NameKey = NameKey(p.Name)
	return nil
}

// NameKey is the normalized form used for case-insensitive name comparison.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// ProductInput is the request body for creating or fully replacing a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,notblank"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required,positive,money"`
	Stock       int             `json:"stock" validate:"required,gt=0"`
}

// PartialProductInput is the request body for a partial update. Nil fields are left unchanged.
type PartialProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,positive,money"`
	Stock       *int             `json:"stock" validate:"omitempty,gt=0"`
}

// ProductEvent is published after a product write is committed.
type ProductEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  uint      `json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)
