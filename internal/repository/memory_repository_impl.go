package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepositoryImpl keeps orders and the payment ledger in process. It backs
// the service when no MongoDB URI is configured and mirrors the conditional
// write semantics of the MongoDB implementation.
type MemoryRepositoryImpl struct {
	mu        sync.RWMutex
	orders    map[primitive.ObjectID]domain.Order
	payments  map[string]domain.Payment
	unmatched map[string]domain.UnmatchedPayment

	watchMu  sync.Mutex
	watchers map[chan domain.OrderChange]struct{}
}

func CreateMemoryRepository() *MemoryRepositoryImpl {
	return &MemoryRepositoryImpl{
		orders:    make(map[primitive.ObjectID]domain.Order),
		payments:  make(map[string]domain.Payment),
		unmatched: make(map[string]domain.UnmatchedPayment),
		watchers:  make(map[chan domain.OrderChange]struct{}),
	}
}

func (r *MemoryRepositoryImpl) AddOrder(ctx context.Context, data domain.Order) (id string, err error) {
	r.mu.Lock()
	data.ID = primitive.NewObjectID()
	r.orders[data.ID] = data
	r.mu.Unlock()

	r.notify("insert", data)
	return data.ID.Hex(), nil
}

func (r *MemoryRepositoryImpl) GetOrderByID(ctx context.Context, id string) (data domain.Order, err error) {
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return data, errs.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.orders[orderID]
	if !ok {
		return data, errs.ErrNotFound
	}
	return data, nil
}

func (r *MemoryRepositoryImpl) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (data domain.Order, err error) {
	return r.findOrder(func(o domain.Order) bool { return o.OrderNumber == orderNumber })
}

func (r *MemoryRepositoryImpl) GetOrderByPaymentReference(ctx context.Context, reference string) (data domain.Order, err error) {
	return r.findOrder(func(o domain.Order) bool {
		return o.Payment.Reference != nil && *o.Payment.Reference == reference
	})
}

func (r *MemoryRepositoryImpl) GetOrderByOrderNumberAndPhone(ctx context.Context, orderNumber string, phone string) (data domain.Order, err error) {
	return r.findOrder(func(o domain.Order) bool {
		return o.OrderNumber == orderNumber && o.Customer.Phone == phone
	})
}

func (r *MemoryRepositoryImpl) findOrder(match func(domain.Order) bool) (data domain.Order, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if match(o) {
			return o, nil
		}
	}
	return data, errs.ErrNotFound
}

func (r *MemoryRepositoryImpl) GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error) {
	r.mu.RLock()
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.Payment.Status != filter.PaymentStatus {
			continue
		}
		if filter.PaymentMethod != "" && o.Payment.Method != filter.PaymentMethod {
			continue
		}
		if filter.CreatedAfter != nil && o.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !o.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		data = append(data, o)
	}
	r.mu.RUnlock()

	sort.Slice(data, func(i, j int) bool { return data[i].CreatedAt.After(data[j].CreatedAt) })

	return paginate(data, filter), nil
}

// paginate mirrors the skip and limit applied by the MongoDB queries.
func paginate[T any](data []T, filter pkgdto.Filter) []T {
	if filter.Limit == 0 {
		return data
	}

	start := 0
	if filter.Page > 1 {
		start = (filter.Page - 1) * filter.Limit
	}
	if start >= len(data) {
		return nil
	}
	end := start + filter.Limit
	if end > len(data) {
		end = len(data)
	}

	return data[start:end]
}

// updateOrder applies mutate when guard accepts the current document and
// reports whether it did.
func (r *MemoryRepositoryImpl) updateOrder(id string, guard func(domain.Order) bool, mutate func(*domain.Order)) (bool, error) {
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, errs.ErrNotFound
	}

	r.mu.Lock()
	order, ok := r.orders[orderID]
	if !ok {
		r.mu.Unlock()
		return false, errs.ErrNotFound
	}
	if guard != nil && !guard(order) {
		r.mu.Unlock()
		return false, nil
	}
	mutate(&order)
	r.orders[orderID] = order
	r.mu.Unlock()

	r.notify("update", order)
	return true, nil
}

func notPaid(o domain.Order) bool {
	return o.Payment.Status != domain.PaymentStatusPaid
}

func hasStatus(status string) func(domain.Order) bool {
	return func(o domain.Order) bool {
		return o.Status == status
	}
}

func (r *MemoryRepositoryImpl) MarkOrderPaid(ctx context.Context, id string, data domain.PaymentConfirmation) (updated bool, err error) {
	awaitingPayment := func(o domain.Order) bool {
		return notPaid(o) && o.Payment.Status != domain.PaymentStatusFraudCheck
	}

	return r.updateOrder(id, awaitingPayment, func(o *domain.Order) {
		reference := data.Reference
		paidAt := data.PaidAt
		o.Payment.Status = domain.PaymentStatusPaid
		o.Payment.Reference = &reference
		o.Payment.PaidAt = &paidAt
		o.Payment.Method = data.Channel
		o.Status = domain.OrderStatusConfirmed
		o.UpdatedAt = data.PaidAt
	})
}

func (r *MemoryRepositoryImpl) FlagOrderForFraudCheck(ctx context.Context, id string, warning string, reference string, now time.Time) (flagged bool, err error) {
	notHeld := func(o domain.Order) bool {
		heldForReference := o.Payment.Status == domain.PaymentStatusFraudCheck && o.Payment.RawReference == reference
		return notPaid(o) && !heldForReference
	}

	return r.updateOrder(id, notHeld, func(o *domain.Order) {
		o.Payment.Status = domain.PaymentStatusFraudCheck
		o.Payment.Warning = warning
		o.Payment.RawReference = reference
		o.UpdatedAt = now
	})
}

func (r *MemoryRepositoryImpl) MarkOrderPaymentFailed(ctx context.Context, id string, now time.Time) (err error) {
	_, err = r.updateOrder(id, notPaid, func(o *domain.Order) {
		o.Payment.Status = domain.PaymentStatusFailed
		o.UpdatedAt = now
	})
	return
}

func (r *MemoryRepositoryImpl) UpdateOrderStatus(ctx context.Context, id string, from string, to string, now time.Time) (updated bool, err error) {
	return r.updateOrder(id, hasStatus(from), func(o *domain.Order) {
		o.Status = to
		o.UpdatedAt = now
	})
}

func (r *MemoryRepositoryImpl) MarkOrderDelivered(ctx context.Context, id string, from string, collectCash bool, now time.Time) (updated bool, err error) {
	return r.updateOrder(id, hasStatus(from), func(o *domain.Order) {
		o.Status = domain.OrderStatusDelivered
		o.Delivery.Status = domain.OrderStatusDelivered
		o.UpdatedAt = now
		if collectCash {
			paidAt := now
			o.Payment.Status = domain.PaymentStatusPaid
			o.Payment.PaidAt = &paidAt
		}
	})
}

func (r *MemoryRepositoryImpl) WatchOrders(ctx context.Context) (<-chan domain.OrderChange, error) {
	changes := make(chan domain.OrderChange, 64)

	r.watchMu.Lock()
	r.watchers[changes] = struct{}{}
	r.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		r.watchMu.Lock()
		delete(r.watchers, changes)
		close(changes)
		r.watchMu.Unlock()
	}()

	return changes, nil
}

func (r *MemoryRepositoryImpl) notify(operation string, order domain.Order) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	for w := range r.watchers {
		select {
		case w <- domain.OrderChange{Operation: operation, Order: order}:
		default:
		}
	}
}

func (r *MemoryRepositoryImpl) GetPayment(ctx context.Context, reference string) (data domain.Payment, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.payments[reference]
	if !ok {
		return data, errs.ErrNotFound
	}
	return data, nil
}

func (r *MemoryRepositoryImpl) ClaimPayment(ctx context.Context, reference string, now time.Time, lease time.Duration) (claimed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.payments[reference]
	if ok {
		stale := existing.Status == domain.LedgerStatusProcessing &&
			existing.ClaimedAt != nil && existing.ClaimedAt.Before(now.Add(-lease))
		if existing.Status != domain.LedgerStatusFailed && !stale {
			return false, nil
		}

		existing.Status = domain.LedgerStatusProcessing
		existing.ClaimedAt = &now
		existing.UpdatedAt = now
		r.payments[reference] = existing
		return true, nil
	}

	r.payments[reference] = domain.Payment{
		Reference: reference,
		Status:    domain.LedgerStatusProcessing,
		ClaimedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return true, nil
}

func (r *MemoryRepositoryImpl) ReleasePaymentClaim(ctx context.Context, reference string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.payments[reference]; ok && existing.Status == domain.LedgerStatusProcessing {
		delete(r.payments, reference)
	}
	return nil
}

func (r *MemoryRepositoryImpl) UpsertPayment(ctx context.Context, data domain.Payment) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.payments[data.Reference]
	if !ok {
		existing = domain.Payment{Reference: data.Reference, CreatedAt: data.CreatedAt}
	}

	existing.Amount = data.Amount
	existing.Status = data.Status
	existing.Channel = data.Channel
	existing.UpdatedAt = data.UpdatedAt
	if data.Customer != nil {
		existing.Customer = data.Customer
	}
	if data.VerifiedAt != nil {
		existing.VerifiedAt = data.VerifiedAt
	}
	if data.RawPayload != nil {
		existing.RawPayload = data.RawPayload
	}

	r.payments[data.Reference] = existing
	return nil
}

func (r *MemoryRepositoryImpl) RecordFailedPayment(ctx context.Context, data domain.Payment) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.payments[data.Reference]
	if ok && existing.Status == domain.LedgerStatusSuccess {
		return nil
	}
	if !ok {
		existing = domain.Payment{Reference: data.Reference, CreatedAt: data.CreatedAt}
	}

	existing.Status = domain.LedgerStatusFailed
	existing.Amount = data.Amount
	existing.RawPayload = data.RawPayload
	existing.UpdatedAt = data.UpdatedAt

	r.payments[data.Reference] = existing
	return nil
}

func (r *MemoryRepositoryImpl) AddUnmatchedPayment(ctx context.Context, data domain.UnmatchedPayment) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.unmatched[data.Reference]; !ok {
		r.unmatched[data.Reference] = data
	}
	return nil
}

func (r *MemoryRepositoryImpl) GetUnmatchedPayments(ctx context.Context, filter pkgdto.Filter) (data []domain.UnmatchedPayment, err error) {
	r.mu.RLock()
	for _, u := range r.unmatched {
		data = append(data, u)
	}
	r.mu.RUnlock()

	sort.Slice(data, func(i, j int) bool { return data[i].CreatedAt.After(data[j].CreatedAt) })

	return paginate(data, filter), nil
}
