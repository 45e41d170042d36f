package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// Sale is a buyer's order against a single store.
type Sale struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null"`
	StoreID         uuid.UUID        `gorm:"column:store_id;type:uuid;not null"`
	Total           decimal.Decimal  `gorm:"column:total;type:numeric(10,2);not null"`
	ProofReference  string           `gorm:"column:proof_reference;type:text;not null"`
	Status          enums.SaleStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason *string          `gorm:"column:rejection_reason;type:text"`
	Lines           []SaleLine       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// RecomputeTotal sets Total to the sum of the line subtotals.
func (s *Sale) RecomputeTotal() {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Subtotal)
	}
	s.Total = total
}
