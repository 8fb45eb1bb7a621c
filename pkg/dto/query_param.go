package dto

import "time"

type Filter struct {
	Limit         int    `query:"limit"`
	Page          int    `query:"page"`
	Status        string `query:"status"`
	PaymentStatus string `query:"payment_status"`
	PaymentMethod string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
