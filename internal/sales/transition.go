package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/internal/catalog"
	"github.com/tiendaya/marketplace-backend/pkg/auth"
	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	pkgerrors "github.com/tiendaya/marketplace-backend/pkg/errors"
)

// transition describes one way out of pending.
type transition struct {
	target    enums.SaleStatus
	event     enums.OutboxEventType
	actorRole enums.OutboxActorRole
	reason    *string
	message   string
	// authorize runs after the sale is loaded and before the pending check.
	// Nil means the caller is trusted.
	authorize func(sale *models.Sale, ownerID uuid.UUID) error
	// closedStoreOK also resolves the owner of a soft-deleted store.
	closedStoreOK bool
}

var errSaleAlreadyProcessed = pkgerrors.New(pkgerrors.CodeStateConflict, "sale already processed")

// applyTransition moves a pending sale to tr.target and settles each line's
// variant in the same transaction. It returns the updated sale and the
// store owner id.
func (s *service) applyTransition(ctx context.Context, principal auth.Principal, saleID uuid.UUID, tr transition) (*models.Sale, uuid.UUID, error) {
	var (
		sale    *models.Sale
		ownerID uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		var err error
		sale, err = repo.LockSale(ctx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		if tr.closedStoreOK {
			ownerID, err = catalogRepo.FindStoreOwnerUnscoped(ctx, sale.StoreID)
		} else {
			ownerID, err = catalogRepo.FindStoreOwner(ctx, sale.StoreID)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
		if tr.authorize != nil {
			if err := tr.authorize(sale, ownerID); err != nil {
				return err
			}
		}
		if sale.Status != enums.SaleStatusPending {
			return errSaleAlreadyProcessed
		}

		if err := repo.TransitionSale(ctx, sale.ID, enums.SaleStatusPending, tr.target, tr.reason); err != nil {
			if errors.Is(err, ErrSaleStatusChanged) {
				return errSaleAlreadyProcessed
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale status")
		}
		if err := repo.UpdateLineStatuses(ctx, sale.ID, tr.target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale lines")
		}
		for _, line := range sale.Lines {
			if err := s.settleVariant(ctx, catalogRepo, line, tr.target); err != nil {
				return err
			}
		}

		sale.Status = tr.target
		if tr.reason != nil {
			reason := *tr.reason
			sale.RejectionReason = &reason
		}
		for i := range sale.Lines {
			sale.Lines[i].Status = tr.target
		}
		if err := s.outbox.Emit(ctx, tx, s.saleEvent(sale, tr.event, principal, tr.actorRole)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit sale event")
		}
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return sale, ownerID, nil
}

// settleVariant applies the stock effect of a resolved line. Completion
// consumes stock; every other outcome frees the reservation.
func (s *service) settleVariant(ctx context.Context, catalogRepo catalog.Repository, line models.SaleLine, target enums.SaleStatus) error {
	if target == enums.SaleStatusCompleted {
		remaining, err := catalogRepo.DecrementStock(ctx, line.VariantID, line.Quantity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		status := enums.VariantStatusAvailable
		if remaining <= 0 {
			status = enums.VariantStatusSoldOut
		}
		if err := catalogRepo.SetVariantStatus(ctx, line.VariantID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant status")
		}
		return nil
	}

	err := catalogRepo.TransitionVariantStatus(ctx, line.VariantID, enums.VariantStatusReserved, enums.VariantStatusAvailable)
	if errors.Is(err, catalog.ErrVariantStatusChanged) {
		logCtx := s.logg.WithField(ctx, "variant_id", line.VariantID.String())
		s.logg.Warn(logCtx, "variant was not reserved at release")
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release variant")
	}
	return nil
}

func (s *service) afterTransition(ctx context.Context, sale *models.Sale, notices []notice, ownerID uuid.UUID) {
	logCtx := s.logg.WithFields(s.logg.WithSaleID(ctx, sale.ID.String()), map[string]any{
		"status":   string(sale.Status),
		"owner_id": ownerID.String(),
	})
	s.logg.Info(logCtx, "sale transitioned")
	s.metrics.RecordTransition(sale.Status)
	s.deliver(logCtx, sale, notices)
}
