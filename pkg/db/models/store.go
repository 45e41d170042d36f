package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a seller storefront owned by exactly one user.
type Store struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index"`
	Name        string         `gorm:"column:name;type:text;not null"`
	Description *string        `gorm:"column:description;type:text"`
	Phone       *string        `gorm:"column:phone;type:text"`
	Address     *string        `gorm:"column:address;type:text"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// Product is the catalog entry variants hang off.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string         `gorm:"column:name;type:text;not null"`
	Description *string        `gorm:"column:description;type:text"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
