package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email     string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Username  string         `gorm:"column:username;type:text;not null;uniqueIndex"`
	FirstName string         `gorm:"column:first_name;type:text;not null"`
	LastName  string         `gorm:"column:last_name;type:text;not null"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;default:'user'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// DisplayName prefers the real name and falls back to the username.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
