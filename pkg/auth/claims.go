package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// AccessTokenClaims is the bearer token issued by the identity service.
// The role travels as user_type.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"user_type"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the engine's caller type.
func (c AccessTokenClaims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role}
}
