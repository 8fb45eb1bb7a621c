package service

import (
	"context"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
)

type PaymentService interface {
	// ReconcileSuccessfulPayment is safe to call concurrently and repeatedly
	// for the same reference.
	ReconcileSuccessfulPayment(ctx context.Context, event domain.PaymentEvent) (err error)
	ReconcileFailedPayment(ctx context.Context, event domain.PaymentEvent) (err error)
	VerifyPayment(ctx context.Context, reference string) (err error)
	SweepPendingPayments(ctx context.Context) (err error)
}

type OrderService interface {
	AddOrder(ctx context.Context, req dto.OrderRequest) (resp dto.OrderCreatedResponse, err error)
	TrackOrder(ctx context.Context, req dto.TrackOrderRequest) (resp dto.TrackOrderResponse, err error)
	GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error)
	UpdateOrderStatus(ctx context.Context, id string, status string) (err error)
	MarkOrderDelivered(ctx context.Context, id string) (err error)
	GetUnmatchedPayments(ctx context.Context, filter pkgdto.Filter) (data []domain.UnmatchedPayment, err error)
}

type PaymentGateway interface {
	VerifyTransaction(ctx context.Context, reference string) (data dto.PaystackTransaction, err error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, msg dto.KafkaMessage) (err error)
}

type Mailer interface {
	SendPaymentReceipt(ctx context.Context, order domain.Order, amountMinorUnits int64) (err error)
}
