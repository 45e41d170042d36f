package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/pkg/db/dbtest"
	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

func TestLockVariantHidesSoftDeleted(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn, "19.99", 5)
	repo := NewRepository(conn)
	ctx := context.Background()

	v, err := repo.LockVariant(ctx, fx.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Stock)
	assert.Equal(t, "19.99", v.Price.StringFixed(2))

	require.NoError(t, conn.Delete(&models.Variant{}, "id = ?", fx.Variant.ID).Error)
	_, err = repo.LockVariant(ctx, fx.Variant.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTransitionVariantStatusIsConditional(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn, "10.00", 1)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.TransitionVariantStatus(ctx, fx.Variant.ID, enums.VariantStatusAvailable, enums.VariantStatusReserved))
	err := repo.TransitionVariantStatus(ctx, fx.Variant.ID, enums.VariantStatusAvailable, enums.VariantStatusReserved)
	assert.ErrorIs(t, err, ErrVariantStatusChanged)

	v, err := repo.FindVariant(ctx, fx.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VariantStatusReserved, v.Status)
}

func TestDecrementStockReturnsRemaining(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn, "10.00", 3)
	repo := NewRepository(conn)

	remaining, err := repo.DecrementStock(context.Background(), fx.Variant.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	_, err = repo.DecrementStock(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStoreOwnerAndLabel(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn, "10.00", 3)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner, err := repo.FindStoreOwner(ctx, fx.Store.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.Owner.ID, owner)

	label, err := repo.VariantLabel(ctx, fx.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Camiseta (M)", label)

	require.NoError(t, conn.Delete(&models.Store{}, "id = ?", fx.Store.ID).Error)
	_, err = repo.FindStoreOwner(ctx, fx.Store.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	owner, err = repo.FindStoreOwnerUnscoped(ctx, fx.Store.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.Owner.ID, owner)

	_, err = repo.FindStoreOwnerUnscoped(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWithTxScopesToTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn, "10.00", 3)
	repo := NewRepository(conn)

	_ = conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, repo.WithTx(tx).SetVariantStatus(context.Background(), fx.Variant.ID, enums.VariantStatusSoldOut))
		return errors.New("rollback")
	})

	v, err := repo.FindVariant(context.Background(), fx.Variant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VariantStatusAvailable, v.Status)
}
