package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/metrics"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/repository"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/rs/zerolog/log"
)

type PaymentServiceImpl struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	gateway     PaymentGateway
	publisher   EventPublisher
	mailer      Mailer
	config      *config.Config
	now         func() time.Time
}

func CreatePaymentService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, gateway PaymentGateway, publisher EventPublisher, mailer Mailer, config *config.Config) PaymentService {
	return &PaymentServiceImpl{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		publisher:   publisher,
		mailer:      mailer,
		config:      config,
		now:         time.Now,
	}
}

// ReconcileSuccessfulPayment applies a confirmed charge to its order. The
// ledger entry for the reference is claimed with a create-only write before
// any order is touched, so only one caller per reference ever marks the order
// paid and sends notifications. Outcomes that need manual attention (unmatched
// reference, amount mismatch) are recorded and return nil.
func (s *PaymentServiceImpl) ReconcileSuccessfulPayment(ctx context.Context, event domain.PaymentEvent) (err error) {
	if event.Reference == "" {
		return errs.ErrInvalidArgument
	}

	logger := log.Ctx(ctx).With().Str("reference", event.Reference).Str("source", event.Source).Logger()

	existing, err := s.paymentRepo.GetPayment(ctx, event.Reference)
	if err == nil && existing.Status == domain.LedgerStatusSuccess {
		logger.Info().Str("component", "ReconcileSuccessfulPayment").Msg("payment already processed, skipping")
		s.recordOutcome(event, metrics.OutcomeDuplicate)
		return nil
	}
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		logger.Error().Err(err).Str("component", "ReconcileSuccessfulPayment").Msg("")
		s.recordOutcome(event, metrics.OutcomeError)
		return err
	}

	now := s.now()

	claimed, err := s.paymentRepo.ClaimPayment(ctx, event.Reference, now, s.config.ClaimLease)
	if err != nil {
		logger.Error().Err(err).Str("component", "ReconcileSuccessfulPayment").Msg("")
		s.recordOutcome(event, metrics.OutcomeError)
		return err
	}
	if !claimed {
		logger.Info().Str("component", "ReconcileSuccessfulPayment").Msg("payment is being processed by another caller, skipping")
		s.recordOutcome(event, metrics.OutcomeInFlight)
		return nil
	}

	order, err := s.findOrderForReference(ctx, event.Reference)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return s.recordUnmatched(ctx, event, now)
		}

		s.releaseClaim(ctx, event.Reference)
		s.recordOutcome(event, metrics.OutcomeError)
		return err
	}

	orderID := order.ID.Hex()
	expected := domain.ExpectedMinorUnits(order.TotalAmount)
	if !domain.AmountWithinTolerance(expected, event.AmountMinorUnits) {
		return s.flagAmountMismatch(ctx, event, order, expected, now)
	}

	if order.Payment.Status == domain.PaymentStatusFraudCheck {
		return s.holdForReview(ctx, event, orderID)
	}

	if order.Payment.Status != domain.PaymentStatusPaid {
		updated, err := s.orderRepo.MarkOrderPaid(ctx, orderID, domain.PaymentConfirmation{
			Reference: event.Reference,
			Channel:   event.Channel,
			PaidAt:    now,
		})
		if err != nil {
			logger.Error().Err(err).Str("component", "ReconcileSuccessfulPayment").Str("order_id", orderID).Msg("failed to mark order paid")
			s.releaseClaim(ctx, event.Reference)
			s.recordOutcome(event, metrics.OutcomeError)
			return err
		}
		if !updated {
			current, err := s.orderRepo.GetOrderByID(ctx, orderID)
			if err != nil {
				s.releaseClaim(ctx, event.Reference)
				s.recordOutcome(event, metrics.OutcomeError)
				return err
			}
			if current.Payment.Status == domain.PaymentStatusFraudCheck {
				return s.holdForReview(ctx, event, orderID)
			}
		} else {
			logger.Info().Str("component", "ReconcileSuccessfulPayment").Str("order_id", orderID).Msg("order marked as paid")
		}
	}

	verifiedAt := now
	err = s.paymentRepo.UpsertPayment(ctx, domain.Payment{
		Reference:  event.Reference,
		Amount:     event.AmountMinorUnits,
		Status:     domain.LedgerStatusSuccess,
		Channel:    event.Channel,
		Customer:   event.Customer,
		VerifiedAt: &verifiedAt,
		RawPayload: event.RawPayload,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		logger.Error().Err(err).Str("component", "ReconcileSuccessfulPayment").Msg("failed to write ledger entry")
		s.releaseClaim(ctx, event.Reference)
		s.recordOutcome(event, metrics.OutcomeError)
		return err
	}

	s.recordOutcome(event, metrics.OutcomePaid)
	s.notifyPaymentConfirmed(ctx, order, event, now)

	return nil
}

func (s *PaymentServiceImpl) findOrderForReference(ctx context.Context, reference string) (order domain.Order, err error) {
	order, err = s.orderRepo.GetOrderByOrderNumber(ctx, reference)
	if err == nil || !errors.Is(err, errs.ErrNotFound) {
		return
	}

	return s.orderRepo.GetOrderByPaymentReference(ctx, reference)
}

func (s *PaymentServiceImpl) recordUnmatched(ctx context.Context, event domain.PaymentEvent, now time.Time) (err error) {
	log.Ctx(ctx).Error().Str("component", "ReconcileSuccessfulPayment").Str("reference", event.Reference).Int64("amount", event.AmountMinorUnits).Msg("order not found for reference")

	err = s.paymentRepo.AddUnmatchedPayment(ctx, domain.UnmatchedPayment{
		Reference:  event.Reference,
		Amount:     event.AmountMinorUnits,
		Channel:    event.Channel,
		Source:     event.Source,
		RawPayload: event.RawPayload,
		CreatedAt:  now,
	})
	s.releaseClaim(ctx, event.Reference)
	if err != nil {
		s.recordOutcome(event, metrics.OutcomeError)
		return err
	}

	s.recordOutcome(event, metrics.OutcomeUnmatched)
	return nil
}

func (s *PaymentServiceImpl) flagAmountMismatch(ctx context.Context, event domain.PaymentEvent, order domain.Order, expected int64, now time.Time) (err error) {
	orderID := order.ID.Hex()
	warning := fmt.Sprintf("Amount mismatch. Paid: %s, Expected: %s", domain.FormatMajorUnits(event.AmountMinorUnits), domain.FormatMajorUnits(expected))

	log.Ctx(ctx).Error().Str("component", "ReconcileSuccessfulPayment").Str("reference", event.Reference).Str("order_id", orderID).
		Int64("paid", event.AmountMinorUnits).Int64("expected", expected).Msg("amount mismatch, order held for review")

	flagged, err := s.orderRepo.FlagOrderForFraudCheck(ctx, orderID, warning, event.Reference, now)
	s.releaseClaim(ctx, event.Reference)
	if err != nil {
		s.recordOutcome(event, metrics.OutcomeError)
		return err
	}
	if !flagged {
		log.Ctx(ctx).Info().Str("component", "ReconcileSuccessfulPayment").Str("reference", event.Reference).Str("order_id", orderID).Msg("order already held for this payment, skipping")
		s.recordOutcome(event, metrics.OutcomeDuplicate)
		return nil
	}

	s.recordOutcome(event, metrics.OutcomeFraudCheck)
	s.notifyPaymentFlagged(ctx, order, event, expected, warning)
	return nil
}

// holdForReview leaves an order under fraud review as it is. Only an admin
// resolves the review.
func (s *PaymentServiceImpl) holdForReview(ctx context.Context, event domain.PaymentEvent, orderID string) error {
	log.Ctx(ctx).Warn().Str("component", "ReconcileSuccessfulPayment").Str("reference", event.Reference).Str("order_id", orderID).Msg("order is held for fraud review, payment not applied")
	s.releaseClaim(ctx, event.Reference)
	s.recordOutcome(event, metrics.OutcomeFraudCheck)
	return nil
}

// releaseClaim drops a processing claim so a later delivery can retry. It runs
// even when ctx has been cancelled.
func (s *PaymentServiceImpl) releaseClaim(ctx context.Context, reference string) {
	if err := s.paymentRepo.ReleasePaymentClaim(context.WithoutCancel(ctx), reference); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "releaseClaim").Str("reference", reference).Msg("claim will expire after the lease")
	}
}

func (s *PaymentServiceImpl) recordOutcome(event domain.PaymentEvent, outcome string) {
	metrics.ReconciliationsTotal.WithLabelValues(event.Source, outcome).Inc()
}

// ReconcileFailedPayment marks the order's payment failed and records a failed
// ledger entry. A paid order and a successful ledger entry are left as they are.
func (s *PaymentServiceImpl) ReconcileFailedPayment(ctx context.Context, event domain.PaymentEvent) (err error) {
	if event.Reference == "" {
		return errs.ErrInvalidArgument
	}

	now := s.now()

	order, err := s.orderRepo.GetOrderByOrderNumber(ctx, event.Reference)
	switch {
	case err == nil:
		if err = s.orderRepo.MarkOrderPaymentFailed(ctx, order.ID.Hex(), now); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "ReconcileFailedPayment").Str("reference", event.Reference).Msg("")
			return err
		}
	case errors.Is(err, errs.ErrNotFound):
		log.Ctx(ctx).Warn().Str("component", "ReconcileFailedPayment").Str("reference", event.Reference).Msg("order not found for failed charge")
	default:
		log.Ctx(ctx).Error().Err(err).Str("component", "ReconcileFailedPayment").Str("reference", event.Reference).Msg("")
		return err
	}

	err = s.paymentRepo.RecordFailedPayment(ctx, domain.Payment{
		Reference:  event.Reference,
		Amount:     event.AmountMinorUnits,
		Status:     domain.LedgerStatusFailed,
		RawPayload: event.RawPayload,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return err
	}

	s.recordOutcome(event, metrics.OutcomeFailed)
	return nil
}

// VerifyPayment asks the gateway to confirm reference and reconciles the
// result. It is the synchronous path used by the storefront after checkout.
func (s *PaymentServiceImpl) VerifyPayment(ctx context.Context, reference string) (err error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return errs.ErrInvalidArgument
	}

	log.Ctx(ctx).Info().Str("component", "VerifyPayment").Str("reference", reference).Msg("manual verification requested")

	txn, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return err
	}

	return s.ReconcileSuccessfulPayment(ctx, transactionEvent(txn, reference, domain.PaymentSourceVerify))
}

// SweepPendingPayments re-verifies mobile money orders that are still pending
// after the webhook should have arrived.
func (s *PaymentServiceImpl) SweepPendingPayments(ctx context.Context) (err error) {
	now := s.now()
	createdAfter := now.Add(-s.config.SweeperConfig.MaxAge)
	createdBefore := now.Add(-s.config.SweeperConfig.MinAge)

	orders, err := s.orderRepo.GetOrders(ctx, pkgdto.Filter{
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodMoMo,
		CreatedAfter:  &createdAfter,
		CreatedBefore: &createdBefore,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "SweepPendingPayments").Msg("")
		return err
	}

	metrics.SweeperCandidates.Set(float64(len(orders)))

	for _, order := range orders {
		txn, err := s.gateway.VerifyTransaction(ctx, order.OrderNumber)
		if err != nil {
			if errors.Is(err, errs.ErrConfiguration) {
				return err
			}

			log.Ctx(ctx).Debug().Err(err).Str("component", "SweepPendingPayments").Str("order_number", order.OrderNumber).Msg("payment not confirmed yet")
			continue
		}

		err = s.ReconcileSuccessfulPayment(ctx, transactionEvent(txn, order.OrderNumber, domain.PaymentSourceSweeper))
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "SweepPendingPayments").Str("order_number", order.OrderNumber).Msg("")
		}
	}

	return nil
}

func transactionEvent(txn dto.PaystackTransaction, requested string, source string) domain.PaymentEvent {
	reference := txn.Reference
	if reference == "" {
		reference = requested
	}

	return domain.PaymentEvent{
		Reference:        reference,
		AmountMinorUnits: txn.Amount,
		Channel:          txn.Channel,
		Source:           source,
		Customer:         txn.Customer,
		RawPayload:       txn.Raw,
	}
}
