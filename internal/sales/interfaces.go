package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/internal/notifications"
	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	"github.com/tiendaya/marketplace-backend/pkg/outbox"
	"github.com/tiendaya/marketplace-backend/pkg/pagination"
)

// ErrSaleStatusChanged means a conditional sale transition matched no row.
var ErrSaleStatusChanged = errors.New("sale status changed concurrently")

// Repository defines persistence operations for sales and sale lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSale(ctx context.Context, sale *models.Sale) error
	LockSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	FindSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	TransitionSale(ctx context.Context, saleID uuid.UUID, from, to enums.SaleStatus, reason *string) error
	UpdateLineStatuses(ctx context.Context, saleID uuid.UUID, status enums.SaleStatus) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Sale, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter StoreSalesFilter, limit int, cursor *pagination.Cursor) ([]models.Sale, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier delivers in-app notices. Failures never fail a sale operation.
type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message) error
}

// TransitionRecorder observes every status a sale enters.
type TransitionRecorder interface {
	RecordTransition(status enums.SaleStatus)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(enums.SaleStatus) {}
