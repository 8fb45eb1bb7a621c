package domain

import "time"

const (
	LedgerStatusProcessing = "processing"
	LedgerStatusSuccess    = "success"
	LedgerStatusFailed     = "failed"
)

// Payment is a ledger entry in the payments collection. The reference is the
// document id, so at most one entry exists per reference.
type Payment struct {
	Reference  string                 `bson:"_id" json:"reference"`
	Amount     int64                  `bson:"amount" json:"amount"`
	Status     string                 `bson:"status" json:"status"`
	Channel    string                 `bson:"channel,omitempty" json:"channel,omitempty"`
	Customer   map[string]interface{} `bson:"customer,omitempty" json:"customer,omitempty"`
	VerifiedAt *time.Time             `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	ClaimedAt  *time.Time             `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	RawPayload map[string]interface{} `bson:"rawPayload,omitempty" json:"rawPayload,omitempty"`
	CreatedAt  time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time              `bson:"updatedAt" json:"updatedAt"`
}

type UnmatchedPayment struct {
	Reference  string                 `bson:"_id" json:"reference"`
	Amount     int64                  `bson:"amount" json:"amount"`
	Channel    string                 `bson:"channel,omitempty" json:"channel,omitempty"`
	Source     string                 `bson:"source" json:"source"`
	RawPayload map[string]interface{} `bson:"rawPayload,omitempty" json:"rawPayload,omitempty"`
	CreatedAt  time.Time              `bson:"createdAt" json:"createdAt"`
}

// PaymentEvent is a confirmed charge, either delivered by the gateway webhook
// or fetched through the verify endpoint.
type PaymentEvent struct {
	Reference        string
	AmountMinorUnits int64
	Channel          string
	Source           string
	Customer         map[string]interface{}
	RawPayload       map[string]interface{}
}

const (
	PaymentSourceWebhook = "webhook"
	PaymentSourceVerify  = "verify"
	PaymentSourceSweeper = "sweeper"
)
