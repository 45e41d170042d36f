package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// SaleLinePayload is the per-line snapshot carried by sale events.
type SaleLinePayload struct {
	VariantID uuid.UUID       `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleEvent is the data of every sale_* event.
type SaleEvent struct {
	SaleID  uuid.UUID         `json:"sale_id"`
	BuyerID uuid.UUID         `json:"buyer_id"`
	StoreID uuid.UUID         `json:"store_id"`
	Status  enums.SaleStatus  `json:"status"`
	Total   decimal.Decimal   `json:"total"`
	Reason  string            `json:"reason,omitempty"`
	Lines   []SaleLinePayload `json:"lines"`
}
