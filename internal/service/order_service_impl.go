package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/repository"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const orderNumberAttempts = 3

type OrderServiceImpl struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	now         func() time.Time
}

func CreateOrderService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository) OrderService {
	return &OrderServiceImpl{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		now:         time.Now,
	}
}

func (s *OrderServiceImpl) AddOrder(ctx context.Context, req dto.OrderRequest) (resp dto.OrderCreatedResponse, err error) {
	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			ID:           item.ID,
			Category:     item.Category,
			CategoryName: item.CategoryName,
			Subtitle:     item.Subtitle,
			Preparation:  item.Preparation,
			SpringRolls:  item.SpringRolls,
			Samosas:      item.Samosas,
			PieceCount:   item.PieceCount,
			Price:        item.Price,
		}
	}

	if !domain.SumItemPrices(items).Equal(decimal.NewFromFloat(req.TotalAmount)) {
		log.Ctx(ctx).Warn().Str("component", "AddOrder").Float64("total_amount", req.TotalAmount).Msg("order total does not match item prices")
		return resp, errs.ErrOrderTotalMismatch
	}

	now := s.now()

	deliveryDay := strings.ToLower(req.DeliveryDay)
	scheduledDate, err := utils.NextDeliveryDate(deliveryDay, now)
	if err != nil {
		return resp, errs.ErrInvalidArgument
	}

	orderNumber, err := s.newOrderNumber(ctx, now)
	if err != nil {
		return
	}

	order := domain.Order{
		OrderNumber: orderNumber,
		Customer: domain.Customer{
			Name:  strings.TrimSpace(req.Customer.Name),
			Phone: strings.TrimSpace(req.Customer.Phone),
			Email: req.Customer.Email,
			Location: domain.Location{
				Campus:         req.Customer.Location.Campus,
				Hostel:         req.Customer.Location.Hostel,
				Room:           req.Customer.Location.Room,
				CustomLocation: req.Customer.Location.CustomLocation,
			},
		},
		Items:       items,
		TotalAmount: req.TotalAmount,
		Delivery: domain.Delivery{
			Day:           deliveryDay,
			ScheduledDate: scheduledDate.Format("2006-01-02"),
			Status:        domain.DeliveryStatusPending,
		},
		Payment: domain.OrderPayment{
			Method: req.PaymentMethod,
			Status: domain.PaymentStatusPending,
		},
		Status:    domain.OrderStatusPending,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.orderRepo.AddOrder(ctx, order)
	if err != nil {
		return
	}

	log.Ctx(ctx).Info().Str("component", "AddOrder").Str("order_number", orderNumber).Str("payment_method", req.PaymentMethod).Msg("order created")

	return dto.OrderCreatedResponse{
		ID:          id,
		OrderNumber: orderNumber,
		TotalAmount: req.TotalAmount,
		Status:      order.Status,
	}, nil
}

// newOrderNumber retries on the rare collision with an existing order number.
func (s *OrderServiceImpl) newOrderNumber(ctx context.Context, now time.Time) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		orderNumber, err := utils.GenerateOrderNumber(now)
		if err != nil {
			return "", err
		}

		_, err = s.orderRepo.GetOrderByOrderNumber(ctx, orderNumber)
		if errors.Is(err, errs.ErrNotFound) {
			return orderNumber, nil
		}
		if err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("could not generate a unique order number after %d attempts: %w", orderNumberAttempts, errs.ErrConflict)
}

func (s *OrderServiceImpl) TrackOrder(ctx context.Context, req dto.TrackOrderRequest) (resp dto.TrackOrderResponse, err error) {
	orderNumber := strings.ToUpper(strings.TrimSpace(req.OrderNumber))
	phone := strings.TrimSpace(req.Phone)
	if orderNumber == "" || phone == "" {
		return resp, errs.ErrInvalidArgument
	}

	order, err := s.orderRepo.GetOrderByOrderNumberAndPhone(ctx, orderNumber, phone)
	if err != nil {
		return
	}

	items := make([]dto.OrderItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = dto.OrderItem{
			ID:           item.ID,
			Category:     item.Category,
			CategoryName: item.CategoryName,
			Subtitle:     item.Subtitle,
			Preparation:  item.Preparation,
			SpringRolls:  item.SpringRolls,
			Samosas:      item.Samosas,
			PieceCount:   item.PieceCount,
			Price:        item.Price,
		}
	}

	return dto.TrackOrderResponse{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Delivery: dto.DeliveryResponse{
			Day:           order.Delivery.Day,
			ScheduledDate: order.Delivery.ScheduledDate,
			Status:        order.Delivery.Status,
		},
		Payment: dto.TrackPaymentSummary{
			Method: order.Payment.Method,
			Status: order.Payment.Status,
		},
		Customer: dto.TrackCustomer{
			Name: order.Customer.Name,
			Location: dto.Location{
				Campus:         order.Customer.Location.Campus,
				Hostel:         order.Customer.Location.Hostel,
				Room:           order.Customer.Location.Room,
				CustomLocation: order.Customer.Location.CustomLocation,
			},
		},
		CreatedAt: order.CreatedAt,
	}, nil
}

func (s *OrderServiceImpl) GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	data, err = s.orderRepo.GetOrders(ctx, filter)
	if err != nil {
		return
	}
	if data == nil {
		data = []domain.Order{}
	}

	return data, nil
}

func (s *OrderServiceImpl) UpdateOrderStatus(ctx context.Context, id string, status string) (err error) {
	if status == domain.OrderStatusDelivered {
		return s.MarkOrderDelivered(ctx, id)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return
	}

	if !domain.CanTransition(order.Status, status) {
		log.Ctx(ctx).Warn().Str("component", "UpdateOrderStatus").Str("order_id", id).Str("from", order.Status).Str("to", status).Msg("transition rejected")
		return errs.ErrInvalidTransition
	}

	updated, err := s.orderRepo.UpdateOrderStatus(ctx, id, order.Status, status, s.now())
	if err != nil {
		return
	}
	if !updated {
		log.Ctx(ctx).Warn().Str("component", "UpdateOrderStatus").Str("order_id", id).Str("from", order.Status).Str("to", status).Msg("order changed concurrently, transition rejected")
		return errs.ErrInvalidTransition
	}

	return nil
}

// MarkOrderDelivered completes a confirmed order. Cash is collected on
// delivery, so a cash order is also marked paid.
func (s *OrderServiceImpl) MarkOrderDelivered(ctx context.Context, id string) (err error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return
	}

	if !domain.CanTransition(order.Status, domain.OrderStatusDelivered) {
		log.Ctx(ctx).Warn().Str("component", "MarkOrderDelivered").Str("order_id", id).Str("from", order.Status).Msg("transition rejected")
		return errs.ErrInvalidTransition
	}

	collectCash := order.Payment.Method == domain.PaymentMethodCash && order.Payment.Status != domain.PaymentStatusPaid

	updated, err := s.orderRepo.MarkOrderDelivered(ctx, id, order.Status, collectCash, s.now())
	if err != nil {
		return
	}
	if !updated {
		log.Ctx(ctx).Warn().Str("component", "MarkOrderDelivered").Str("order_id", id).Str("from", order.Status).Msg("order changed concurrently, transition rejected")
		return errs.ErrInvalidTransition
	}

	return nil
}

func (s *OrderServiceImpl) GetUnmatchedPayments(ctx context.Context, filter pkgdto.Filter) (data []domain.UnmatchedPayment, err error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	data, err = s.paymentRepo.GetUnmatchedPayments(ctx, filter)
	if err != nil {
		return
	}
	if data == nil {
		data = []domain.UnmatchedPayment{}
	}

	return data, nil
}
