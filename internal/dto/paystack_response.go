package dto

import "encoding/json"

type PaystackVerifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type PaystackTransaction struct {
	Reference       string                 `json:"reference"`
	Status          string                 `json:"status"`
	Amount          int64                  `json:"amount"`
	Currency        string                 `json:"currency"`
	Channel         string                 `json:"channel"`
	GatewayResponse string                 `json:"gateway_response"`
	PaidAt          string                 `json:"paid_at"`
	Customer        map[string]interface{} `json:"customer"`
	Raw             map[string]interface{} `json:"-"`
}
