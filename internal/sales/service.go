package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tiendaya/marketplace-backend/internal/catalog"
	"github.com/tiendaya/marketplace-backend/pkg/auth"
	"github.com/tiendaya/marketplace-backend/pkg/db"
	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
	pkgerrors "github.com/tiendaya/marketplace-backend/pkg/errors"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
	"github.com/tiendaya/marketplace-backend/pkg/outbox"
	"github.com/tiendaya/marketplace-backend/pkg/pagination"
)

const maxProofReferenceLength = 500

// Service owns the sale lifecycle: placement, the store's decision,
// cancellation and expiry, plus the read views over sales.
type Service interface {
	PlaceOrder(ctx context.Context, principal auth.Principal, input PlaceOrderInput) (*SaleDTO, error)
	RespondToOrder(ctx context.Context, principal auth.Principal, saleID uuid.UUID, input RespondInput) (*TransitionResult, error)
	CancelOrder(ctx context.Context, principal auth.Principal, saleID uuid.UUID) (*TransitionResult, error)
	ExpirePending(ctx context.Context, actor auth.Principal, saleID uuid.UUID) (*TransitionResult, error)
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (ExpireReport, error)
	ListPurchases(ctx context.Context, principal auth.Principal, params ListParams) (*SaleList, error)
	ListStoreSales(ctx context.Context, principal auth.Principal, storeID uuid.UUID, filter StoreSalesFilter, params ListParams) (*SaleList, error)
	GetSale(ctx context.Context, principal auth.Principal, saleID uuid.UUID) (*SaleDTO, error)
}

// ServiceParams wires the sales service.
type ServiceParams struct {
	Repo     Repository
	Catalog  catalog.Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Notifier Notifier
	Metrics  TransitionRecorder
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	catalog  catalog.Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier Notifier
	metrics  TransitionRecorder
	logg     *logger.Logger
}

// NewService builds the sales service. Metrics and Logger are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	svc := &service{
		repo:     params.Repo,
		catalog:  params.Catalog,
		tx:       params.Tx,
		outbox:   params.Outbox,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}
	if svc.metrics == nil {
		svc.metrics = nopRecorder{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	return svc, nil
}

func validatePlaceOrder(input PlaceOrderInput) error {
	fields := map[string]string{}
	if input.VariantID == uuid.Nil {
		fields["variant_id"] = "required"
	}
	if input.Quantity < 1 {
		fields["quantity"] = "must be at least 1"
	}
	proof := strings.TrimSpace(input.ProofReference)
	switch {
	case proof == "":
		fields["proof_reference"] = "required"
	case utf8.RuneCountInString(proof) > maxProofReferenceLength:
		fields["proof_reference"] = fmt.Sprintf("must be at most %d characters", maxProofReferenceLength)
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(fields)
}

func (s *service) PlaceOrder(ctx context.Context, principal auth.Principal, input PlaceOrderInput) (*SaleDTO, error) {
	if principal.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !principal.CanPurchase() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot place orders")
	}
	if err := validatePlaceOrder(input); err != nil {
		return nil, err
	}
	input.ProofReference = strings.TrimSpace(input.ProofReference)

	var (
		sale    *models.Sale
		ownerID uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)
		repo := s.repo.WithTx(tx)

		variant, err := catalogRepo.LockVariant(ctx, input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		store, err := catalogRepo.FindStore(ctx, variant.StoreID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}

		switch variant.Status {
		case enums.VariantStatusAvailable:
		case enums.VariantStatusReserved:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "variant is reserved by another order")
		case enums.VariantStatusSoldOut:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "variant is sold out")
		default:
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "variant status %q cannot be ordered", variant.Status)
		}
		if variant.Stock < input.Quantity {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]int{"available": variant.Stock, "requested": input.Quantity})
		}

		line := models.SaleLine{
			VariantID: variant.ID,
			Quantity:  input.Quantity,
			UnitPrice: variant.Price,
			Subtotal:  models.LineSubtotal(variant.Price, input.Quantity),
			Status:    enums.SaleStatusPending,
		}
		sale = &models.Sale{
			BuyerID:        principal.UserID,
			StoreID:        store.ID,
			ProofReference: input.ProofReference,
			Status:         enums.SaleStatusPending,
			Lines:          []models.SaleLine{line},
		}
		sale.RecomputeTotal()

		if err := repo.CreateSale(ctx, sale); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "variant is reserved by another order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}
		if err := catalogRepo.TransitionVariantStatus(ctx, variant.ID, enums.VariantStatusAvailable, enums.VariantStatusReserved); err != nil {
			if errors.Is(err, catalog.ErrVariantStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "variant is reserved by another order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve variant")
		}

		ownerID = store.OwnerID
		if err := s.outbox.Emit(ctx, tx, s.saleEvent(sale, enums.EventSalePlaced, principal, enums.ActorRoleBuyer)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit sale event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithSaleID(ctx, sale.ID.String())
	s.logg.Info(logCtx, "sale placed")
	s.metrics.RecordTransition(enums.SaleStatusPending)
	s.deliver(logCtx, sale, []notice{{recipient: ownerID, kind: enums.NotificationTypeSalePlaced}})
	return toSaleDTO(sale), nil
}

func (s *service) RespondToOrder(ctx context.Context, principal auth.Principal, saleID uuid.UUID, input RespondInput) (*TransitionResult, error) {
	if principal.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}

	var tr transition
	switch input.Decision {
	case enums.SaleDecisionAccept:
		tr = transition{
			target:    enums.SaleStatusCompleted,
			event:     enums.EventSaleCompleted,
			actorRole: enums.ActorRoleStoreOwner,
			message:   "sale confirmed",
		}
	case enums.SaleDecisionReject:
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = defaultRejectionReason
		}
		tr = transition{
			target:    enums.SaleStatusRejected,
			event:     enums.EventSaleRejected,
			actorRole: enums.ActorRoleStoreOwner,
			reason:    &reason,
			message:   "sale rejected",
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept or reject").
			WithDetails(map[string]string{"decision": "must be accept or reject"})
	}
	tr.authorize = func(sale *models.Sale, ownerID uuid.UUID) error {
		if !principal.Owns(ownerID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sale does not belong to your store")
		}
		return nil
	}

	sale, ownerID, err := s.applyTransition(ctx, principal, saleID, tr)
	if err != nil {
		return nil, err
	}

	kind := enums.NotificationTypeSaleConfirmed
	if tr.target == enums.SaleStatusRejected {
		kind = enums.NotificationTypeSaleRejected
	}
	s.afterTransition(ctx, sale, []notice{{recipient: sale.BuyerID, kind: kind}}, ownerID)
	return &TransitionResult{OK: true, Message: tr.message, Sale: toSaleDTO(sale)}, nil
}

func (s *service) CancelOrder(ctx context.Context, principal auth.Principal, saleID uuid.UUID) (*TransitionResult, error) {
	if principal.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}

	tr := transition{
		target:    enums.SaleStatusCancelled,
		event:     enums.EventSaleCancelled,
		actorRole: enums.ActorRoleBuyer,
		message:       "sale cancelled",
		closedStoreOK: true,
		authorize: func(sale *models.Sale, _ uuid.UUID) error {
			if !principal.Owns(sale.BuyerID) {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can cancel this sale")
			}
			return nil
		},
	}
	sale, ownerID, err := s.applyTransition(ctx, principal, saleID, tr)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, sale, []notice{{recipient: ownerID, kind: enums.NotificationTypeSaleCancelled}}, ownerID)
	return &TransitionResult{OK: true, Message: tr.message, Sale: toSaleDTO(sale)}, nil
}

// ExpirePending cancels a pending sale as an expiry. The reaper passes
// auth.SystemPrincipal; a moderator override passes the moderator, who is
// recorded as the event actor.
func (s *service) ExpirePending(ctx context.Context, actor auth.Principal, saleID uuid.UUID) (*TransitionResult, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	role := enums.ActorRoleSystem
	if !actor.IsSystem() {
		role = enums.ActorRoleModerator
	}
	reason := expiredReason
	tr := transition{
		target:        enums.SaleStatusCancelled,
		event:         enums.EventSaleCancelled,
		actorRole:     role,
		reason:        &reason,
		message:       "sale expired",
		closedStoreOK: true,
	}
	sale, ownerID, err := s.applyTransition(ctx, actor, saleID, tr)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, sale, []notice{
		{recipient: sale.BuyerID, kind: enums.NotificationTypeSaleExpired},
		{recipient: ownerID, kind: enums.NotificationTypeSaleExpired},
	}, ownerID)
	return &TransitionResult{OK: true, Message: tr.message, Sale: toSaleDTO(sale)}, nil
}

// ExpireStale expires pending sales created before cutoff. Sales that a
// concurrent decision already resolved are counted as skipped.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (ExpireReport, error) {
	var report ExpireReport
	ids, err := s.repo.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale sales")
	}
	report.Scanned = len(ids)

	var errs error
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, multierr.Append(errs, ctx.Err())
		}
		if _, err := s.ExpirePending(ctx, auth.SystemPrincipal, id); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				report.Skipped++
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("expire sale %s: %w", id, err))
			continue
		}
		report.Expired++
	}
	return report, errs
}

func (s *service) ListPurchases(ctx context.Context, principal auth.Principal, params ListParams) (*SaleList, error) {
	if principal.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByBuyer(ctx, principal.UserID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return buildSaleList(rows, params.Limit), nil
}

func (s *service) ListStoreSales(ctx context.Context, principal auth.Principal, storeID uuid.UUID, filter StoreSalesFilter, params ListParams) (*SaleList, error) {
	if principal.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid sale status %q", *filter.Status)
	}
	ownerID, err := s.catalog.FindStoreOwner(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !principal.Owns(ownerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to you")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByStore(ctx, storeID, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store sales")
	}
	return buildSaleList(rows, params.Limit), nil
}

func (s *service) GetSale(ctx context.Context, principal auth.Principal, saleID uuid.UUID) (*SaleDTO, error) {
	if principal.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	sale, err := s.repo.FindSale(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	if principal.Owns(sale.BuyerID) {
		return toSaleDTO(sale), nil
	}
	ownerID, err := s.catalog.FindStoreOwner(ctx, sale.StoreID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err != nil || !principal.Owns(ownerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "sale is not visible to you")
	}
	return toSaleDTO(sale), nil
}

func buildSaleList(rows []models.Sale, limit int) *SaleList {
	page, next := pagination.Trim(rows, limit, func(sale models.Sale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	list := &SaleList{Sales: make([]SaleDTO, 0, len(page)), NextCursor: next}
	for i := range page {
		list.Sales = append(list.Sales, *toSaleDTO(&page[i]))
	}
	return list
}

func (s *service) saleEvent(sale *models.Sale, eventType enums.OutboxEventType, principal auth.Principal, role enums.OutboxActorRole) outbox.DomainEvent {
	data := outbox.SaleEvent{
		SaleID:  sale.ID,
		BuyerID: sale.BuyerID,
		StoreID: sale.StoreID,
		Status:  sale.Status,
		Total:   sale.Total,
		Lines:   make([]outbox.SaleLinePayload, 0, len(sale.Lines)),
	}
	if sale.RejectionReason != nil {
		data.Reason = *sale.RejectionReason
	}
	for _, line := range sale.Lines {
		data.Lines = append(data.Lines, outbox.SaleLinePayload{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
	}
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateSale,
		AggregateID:   sale.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: role},
		Data:          data,
	}
}
