package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	"github.com/tiendaya/marketplace-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateSale inserts the sale and its lines.
func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	for i := range sale.Lines {
		if sale.Lines[i].ID == uuid.Nil {
			sale.Lines[i].ID = uuid.New()
		}
		sale.Lines[i].SaleID = sale.ID
	}
	return r.db.WithContext(ctx).Create(sale).Error
}

// LockSale loads the sale under FOR UPDATE together with its lines.
func (r *repository) LockSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", saleID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", saleID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// TransitionSale moves the sale from one status to another only when it is
// still in from. A nil reason leaves rejection_reason untouched.
func (r *repository) TransitionSale(ctx context.Context, saleID uuid.UUID, from, to enums.SaleStatus, reason *string) error {
	updates := map[string]any{"status": to}
	if reason != nil {
		updates["rejection_reason"] = *reason
	}
	res := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ? AND status = ?", saleID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSaleStatusChanged
	}
	return nil
}

func (r *repository) UpdateLineStatuses(ctx context.Context, saleID uuid.UUID, status enums.SaleStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.SaleLine{}).
		Where("sale_id = ?", saleID).
		Update("status", status).Error
}

// ListByBuyer returns up to limit sales of the buyer, newest first.
func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID)
	return r.list(query, limit, cursor)
}

// ListByStore returns up to limit sales of the store, newest first.
func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID, filter StoreSalesFilter, limit int, cursor *pagination.Cursor) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return r.list(query, limit, cursor)
}

func (r *repository) list(query *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.Sale, error) {
	if cursor != nil {
		query = query.Where("(created_at, id) <= (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Sale
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindPendingBefore returns ids of pending sales created before cutoff, oldest
// first.
func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("status = ? AND created_at < ?", enums.SaleStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Pluck("id", &ids).Error
	return ids, err
}
