package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// SaleLine freezes the unit price of a variant at the moment of purchase.
type SaleLine struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SaleID    uuid.UUID        `gorm:"column:sale_id;type:uuid;not null;index"`
	VariantID uuid.UUID        `gorm:"column:variant_id;type:uuid;not null"`
	Quantity  int              `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal  `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal  decimal.Decimal  `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Status    enums.SaleStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// LineSubtotal is quantity × unit price rounded to cents.
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
