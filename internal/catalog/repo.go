package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

// ErrVariantStatusChanged means a conditional status write matched no row
// because the variant moved on since it was read.
var ErrVariantStatusChanged = errors.New("variant status changed concurrently")

// Repository is the catalog surface the sales engine consumes. Soft-deleted
// rows are invisible except through FindStoreOwnerUnscoped.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	TransitionVariantStatus(ctx context.Context, variantID uuid.UUID, from, to enums.VariantStatus) error
	SetVariantStatus(ctx context.Context, variantID uuid.UUID, status enums.VariantStatus) error
	DecrementStock(ctx context.Context, variantID uuid.UUID, by int) (int, error)
	FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error)
	FindStoreOwner(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error)
	// FindStoreOwnerUnscoped also resolves soft-deleted stores.
	FindStoreOwnerUnscoped(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	VariantLabel(ctx context.Context, variantID uuid.UUID) (string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockVariant reads the variant under SELECT ... FOR UPDATE; the lock is held
// until the surrounding transaction ends.
func (r *repository) LockVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", variantID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).Where("id = ?", variantID).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) TransitionVariantStatus(ctx context.Context, variantID uuid.UUID, from, to enums.VariantStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND status = ?", variantID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVariantStatusChanged
	}
	return nil
}

func (r *repository) SetVariantStatus(ctx context.Context, variantID uuid.UUID, status enums.VariantStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ?", variantID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts by and returns the remaining stock.
func (r *repository) DecrementStock(ctx context.Context, variantID uuid.UUID, by int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ?", variantID).
		Update("stock", gorm.Expr("stock - ?", by))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var variant models.Variant
	err := r.db.WithContext(ctx).
		Select("id", "stock").
		Where("id = ?", variantID).
		Take(&variant).Error
	return variant.Stock, err
}

func (r *repository) FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", storeID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindStoreOwner(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error) {
	store, err := r.FindStore(ctx, storeID)
	if err != nil {
		return uuid.Nil, err
	}
	return store.OwnerID, nil
}

func (r *repository) FindStoreOwnerUnscoped(ctx context.Context, storeID uuid.UUID) (uuid.UUID, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", storeID).First(&store).Error; err != nil {
		return uuid.Nil, err
	}
	return store.OwnerID, nil
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// VariantLabel renders "<product> (<size>)" for notification copy.
func (r *repository) VariantLabel(ctx context.Context, variantID uuid.UUID) (string, error) {
	var row struct {
		Name string
		Size *string
	}
	err := r.db.WithContext(ctx).
		Table("store_variants AS v").
		Select("p.name AS name, v.size AS size").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.id = ?", variantID).
		Take(&row).Error
	if err != nil {
		return "", err
	}
	label := row.Name
	if row.Size != nil && strings.TrimSpace(*row.Size) != "" {
		label += " (" + strings.TrimSpace(*row.Size) + ")"
	}
	return label, nil
}
