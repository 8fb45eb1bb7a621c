package dto

import "time"

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TrackOrderRequest struct {
	OrderNumber string `json:"orderNumber" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
}

type TrackOrderResponse struct {
	OrderNumber string              `json:"orderNumber"`
	Status      string              `json:"status"`
	Items       []OrderItem         `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	Delivery    DeliveryResponse    `json:"delivery"`
	Payment     TrackPaymentSummary `json:"payment"`
	Customer    TrackCustomer       `json:"customer"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type TrackPaymentSummary struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

type TrackCustomer struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
