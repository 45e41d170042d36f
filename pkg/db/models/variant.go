package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// Variant is a purchasable (product, size) offer of a store.
type Variant struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	ProductID   uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Size        *string             `gorm:"column:size;type:text"`
	Description *string             `gorm:"column:description;type:text"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	Status      enums.VariantStatus `gorm:"column:status;type:text;not null;default:'available'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

func (Variant) TableName() string { return "store_variants" }
