package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// PlaceOrderInput is the buyer's request to purchase one variant.
type PlaceOrderInput struct {
	VariantID      uuid.UUID
	Quantity       int
	ProofReference string
}

// RespondInput carries a store owner's decision on a pending sale.
type RespondInput struct {
	Decision enums.SaleDecision
	Reason   string
}

// StoreSalesFilter narrows ListStoreSales.
type StoreSalesFilter struct {
	Status *enums.SaleStatus
}

// ListParams is the cursor page requested by callers.
type ListParams struct {
	Limit  int
	Cursor string
}

// SaleLineDTO is the public view of a sale line.
type SaleLineDTO struct {
	ID        uuid.UUID        `json:"id"`
	VariantID uuid.UUID        `json:"variant_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Status    enums.SaleStatus `json:"status"`
}

// SaleDTO is the public view of a sale with its lines.
type SaleDTO struct {
	ID              uuid.UUID        `json:"id"`
	BuyerID         uuid.UUID        `json:"buyer_id"`
	StoreID         uuid.UUID        `json:"store_id"`
	Total           decimal.Decimal  `json:"total"`
	ProofReference  string           `json:"proof_reference"`
	Status          enums.SaleStatus `json:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	Lines           []SaleLineDTO    `json:"lines"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TransitionResult is returned by respond and cancel.
type TransitionResult struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Sale    *SaleDTO `json:"sale"`
}

// SaleList wraps a page of sales and the cursor for the next page.
type SaleList struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ExpireReport summarizes one reaper pass.
type ExpireReport struct {
	Scanned int
	Expired int
	Skipped int
}

func toSaleDTO(sale *models.Sale) *SaleDTO {
	if sale == nil {
		return nil
	}
	dto := &SaleDTO{
		ID:              sale.ID,
		BuyerID:         sale.BuyerID,
		StoreID:         sale.StoreID,
		Total:           sale.Total,
		ProofReference:  sale.ProofReference,
		Status:          sale.Status,
		RejectionReason: sale.RejectionReason,
		Lines:           make([]SaleLineDTO, 0, len(sale.Lines)),
		CreatedAt:       sale.CreatedAt,
		UpdatedAt:       sale.UpdatedAt,
	}
	for _, line := range sale.Lines {
		dto.Lines = append(dto.Lines, SaleLineDTO{
			ID:        line.ID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
			Status:    line.Status,
		})
	}
	return dto
}
