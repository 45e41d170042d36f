package auth

import (
	"github.com/google/uuid"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// Principal is the verified caller handed to every sale operation.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// SystemPrincipal acts for background jobs such as the pending-sale reaper.
var SystemPrincipal = Principal{}

func (p Principal) IsSystem() bool {
	return p.UserID == uuid.Nil
}

func (p Principal) CanPurchase() bool {
	return !p.IsSystem() && p.Role.CanPurchase()
}

// Owns reports whether the principal is the given owner.
func (p Principal) Owns(ownerID uuid.UUID) bool {
	return !p.IsSystem() && p.UserID == ownerID
}
