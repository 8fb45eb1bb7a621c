package repository

import (
	"context"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
)

const (
	OrdersCollection            = "orders"
	PaymentsCollection          = "payments"
	UnmatchedPaymentsCollection = "unmatched_payments"
)

// OrderRepository reads return errs.ErrNotFound when no document matches.
type OrderRepository interface {
	AddOrder(ctx context.Context, data domain.Order) (id string, err error)
	GetOrderByID(ctx context.Context, id string) (data domain.Order, err error)
	GetOrderByOrderNumber(ctx context.Context, orderNumber string) (data domain.Order, err error)
	GetOrderByPaymentReference(ctx context.Context, reference string) (data domain.Order, err error)
	GetOrderByOrderNumberAndPhone(ctx context.Context, orderNumber string, phone string) (data domain.Order, err error)
	GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error)

	// MarkOrderPaid leaves paid orders and orders held for fraud review
	// untouched, and reports whether the order was updated.
	MarkOrderPaid(ctx context.Context, id string, data domain.PaymentConfirmation) (updated bool, err error)
	// FlagOrderForFraudCheck reports false when the order is paid or is
	// already held for the same reference.
	FlagOrderForFraudCheck(ctx context.Context, id string, warning string, reference string, now time.Time) (flagged bool, err error)
	// MarkOrderPaymentFailed leaves orders whose payment is already paid untouched.
	MarkOrderPaymentFailed(ctx context.Context, id string, now time.Time) (err error)
	// UpdateOrderStatus and MarkOrderDelivered only apply while the order
	// status is still from.
	UpdateOrderStatus(ctx context.Context, id string, from string, to string, now time.Time) (updated bool, err error)
	MarkOrderDelivered(ctx context.Context, id string, from string, collectCash bool, now time.Time) (updated bool, err error)

	WatchOrders(ctx context.Context) (<-chan domain.OrderChange, error)
}

type PaymentRepository interface {
	GetPayment(ctx context.Context, reference string) (data domain.Payment, err error)
	// ClaimPayment creates a processing entry for reference if none exists. An
	// existing failed entry, or a processing entry claimed before now-lease, is
	// taken over. It reports false when another caller holds the reference or it
	// has already succeeded.
	ClaimPayment(ctx context.Context, reference string, now time.Time, lease time.Duration) (claimed bool, err error)
	// ReleasePaymentClaim removes the entry only while it is still processing.
	ReleasePaymentClaim(ctx context.Context, reference string) (err error)
	UpsertPayment(ctx context.Context, data domain.Payment) (err error)
	// RecordFailedPayment never overwrites a success entry.
	RecordFailedPayment(ctx context.Context, data domain.Payment) (err error)

	AddUnmatchedPayment(ctx context.Context, data domain.UnmatchedPayment) (err error)
	GetUnmatchedPayments(ctx context.Context, filter pkgdto.Filter) (data []domain.UnmatchedPayment, err error)
}
