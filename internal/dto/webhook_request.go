package dto

import "encoding/json"

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

type PaystackWebhookEvent struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data" validate:"required"`
}

type PaystackChargeData struct {
	Reference string                 `json:"reference" validate:"required"`
	Amount    *int64                 `json:"amount" validate:"required,gte=0"`
	Channel   string                 `json:"channel"`
	Currency  string                 `json:"currency"`
	Status    string                 `json:"status"`
	Customer  map[string]interface{} `json:"customer"`
}

type PaystackFailedChargeData struct {
	Reference       string `json:"reference" validate:"required"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
	GatewayResponse string `json:"gateway_response"`
}
