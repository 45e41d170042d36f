package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tiendaya/marketplace-backend/internal/notifications"
	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

const (
	defaultRejectionReason = "The store could not verify your payment."
	expiredReason          = "expired"
	fallbackItemLabel      = "your order"
)

// notice is a notification waiting for the transaction to commit.
type notice struct {
	recipient uuid.UUID
	kind      enums.NotificationType
}

// itemsLabel names the sale contents, e.g. "2 x Camiseta (M)".
func (s *service) itemsLabel(ctx context.Context, sale *models.Sale) string {
	if len(sale.Lines) == 0 {
		return fallbackItemLabel
	}
	first := sale.Lines[0]
	label, err := s.catalog.VariantLabel(ctx, first.VariantID)
	if err != nil || strings.TrimSpace(label) == "" {
		s.logg.Warn(s.logg.WithField(ctx, "variant_id", first.VariantID.String()), "variant label unavailable")
		label = "a product"
	}
	text := fmt.Sprintf("%d x %s", first.Quantity, label)
	if extra := len(sale.Lines) - 1; extra > 0 {
		text += fmt.Sprintf(" and %d more", extra)
	}
	return text
}

func (s *service) userName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.catalog.FindUser(ctx, userID)
	if err != nil {
		return "A buyer"
	}
	return user.DisplayName()
}

func (s *service) storeName(ctx context.Context, storeID uuid.UUID) string {
	store, err := s.catalog.FindStore(ctx, storeID)
	if err != nil {
		return "the store"
	}
	return store.Name
}

func (s *service) buildMessage(ctx context.Context, sale *models.Sale, n notice) notifications.Message {
	items := s.itemsLabel(ctx, sale)
	saleID := sale.ID
	msg := notifications.Message{UserID: n.recipient, Kind: n.kind, SaleID: &saleID}

	switch n.kind {
	case enums.NotificationTypeSalePlaced:
		msg.Title = "New order to verify"
		msg.Body = fmt.Sprintf("%s ordered %s for %s. Verify the payment proof %q before confirming.",
			s.userName(ctx, sale.BuyerID), items, sale.Total.StringFixed(2), sale.ProofReference)
	case enums.NotificationTypeSaleConfirmed:
		msg.Title = "Purchase confirmed"
		msg.Body = fmt.Sprintf("%s confirmed your purchase of %s.", s.storeName(ctx, sale.StoreID), items)
	case enums.NotificationTypeSaleRejected:
		reason := defaultRejectionReason
		if sale.RejectionReason != nil && strings.TrimSpace(*sale.RejectionReason) != "" {
			reason = *sale.RejectionReason
		}
		msg.Title = "Purchase rejected"
		msg.Body = fmt.Sprintf("%s rejected your purchase of %s. Reason: %s", s.storeName(ctx, sale.StoreID), items, reason)
	case enums.NotificationTypeSaleCancelled:
		msg.Title = "Order cancelled"
		msg.Body = fmt.Sprintf("%s cancelled the order for %s.", s.userName(ctx, sale.BuyerID), items)
	case enums.NotificationTypeSaleExpired:
		msg.Title = "Order expired"
		msg.Body = fmt.Sprintf("The order for %s expired before the store responded.", items)
	}
	return msg
}

// deliver sends every notice and logs failures; it never returns an error.
func (s *service) deliver(ctx context.Context, sale *models.Sale, notices []notice) {
	for _, n := range notices {
		if n.recipient == uuid.Nil {
			continue
		}
		msg := s.buildMessage(ctx, sale, n)
		if err := s.notifier.Notify(ctx, msg); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"notification_type": string(n.kind),
				"recipient_id":      n.recipient.String(),
			})
			s.logg.Error(logCtx, "sale notification failed", err)
		}
	}
}
