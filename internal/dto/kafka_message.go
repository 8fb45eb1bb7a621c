package dto

type KafkaMessage struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

const (
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentFlagged   = "payment_flagged"
)

type PaymentConfirmedEvent struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Reference   string  `json:"reference"`
	Amount      int64   `json:"amount"`
	TotalAmount float64 `json:"total_amount"`
	Channel     string  `json:"channel"`
	PaidAt      int64   `json:"paid_at"`
}

type PaymentFlaggedEvent struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	Reference      string `json:"reference"`
	ExpectedAmount int64  `json:"expected_amount"`
	ReceivedAmount int64  `json:"received_amount"`
	Warning        string `json:"warning"`
}
