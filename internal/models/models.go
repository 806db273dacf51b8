package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code     string    `gorm:"type:text;not null"`
	Name     string    `gorm:"type:text;not null"`
	IsActive bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Customer) TableName() string { return "customers" }

type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SKU      string    `gorm:"type:text;not null"`
	Name     string    `gorm:"type:text;not null"`
	IsActive bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string { return "products" }

// ProductPrice is one entry of a product's price list. A price is active when
// IsActive is set and the instant lies inside [ValidFrom, ValidTo).
type ProductPrice struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Price     decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	ValidFrom time.Time       `gorm:"not null"`
	ValidTo   *time.Time
	IsActive  bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (ProductPrice) TableName() string { return "product_prices" }

func (p ProductPrice) ActiveAt(at time.Time) bool {
	if !p.IsActive || p.ValidFrom.After(at) {
		return false
	}
	return p.ValidTo == nil || p.ValidTo.After(at)
}

type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"type:text;not null"`
	Name      string    `gorm:"type:text;not null"`
	IsDefault bool      `gorm:"not null;default:false"`
	IsActive  bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Warehouse) TableName() string { return "warehouses" }

type Currency struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code     string    `gorm:"type:char(3);not null"`
	Name     string    `gorm:"type:text;not null"`
	IsBase   bool      `gorm:"not null;default:false"`
	IsActive bool      `gorm:"not null;default:true"`
}

func (Currency) TableName() string { return "currencies" }
