package service

import (
	"context"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/rs/zerolog/log"
)

const notificationTimeout = 15 * time.Second

// notifyPaymentConfirmed runs only for the caller that won the ledger claim.
// Notification failures never fail the reconciliation.
func (s *PaymentServiceImpl) notifyPaymentConfirmed(ctx context.Context, order domain.Order, event domain.PaymentEvent, paidAt time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, order.OrderNumber, dto.KafkaMessage{
		EventType: dto.EventPaymentConfirmed,
		Data: dto.PaymentConfirmedEvent{
			OrderID:     order.ID.Hex(),
			OrderNumber: order.OrderNumber,
			Reference:   event.Reference,
			Amount:      event.AmountMinorUnits,
			TotalAmount: order.TotalAmount,
			Channel:     event.Channel,
			PaidAt:      paidAt.Unix(),
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "notifyPaymentConfirmed").Str("reference", event.Reference).Msg("failed to publish payment event")
	}

	if err := s.mailer.SendPaymentReceipt(ctx, order, event.AmountMinorUnits); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "notifyPaymentConfirmed").Str("reference", event.Reference).Msg("failed to send receipt")
	}
}

func (s *PaymentServiceImpl) notifyPaymentFlagged(ctx context.Context, order domain.Order, event domain.PaymentEvent, expected int64, warning string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, order.OrderNumber, dto.KafkaMessage{
		EventType: dto.EventPaymentFlagged,
		Data: dto.PaymentFlaggedEvent{
			OrderID:        order.ID.Hex(),
			OrderNumber:    order.OrderNumber,
			Reference:      event.Reference,
			ExpectedAmount: expected,
			ReceivedAmount: event.AmountMinorUnits,
			Warning:        warning,
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "notifyPaymentFlagged").Str("reference", event.Reference).Msg("failed to publish payment event")
	}
}
