package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var deliveryWeekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// GenerateOrderNumber returns a reference such as CC-20250101-AB12. The same
// value is handed to the gateway as the payment reference.
func GenerateOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(orderNumberAlphabet))))
		if err != nil {
			return "", fmt.Errorf("error generating order number: %w", err)
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}

	return fmt.Sprintf("CC-%s-%s", now.UTC().Format("20060102"), string(suffix)), nil
}

// NextDeliveryDate returns the next occurrence of day strictly after from.
func NextDeliveryDate(day string, from time.Time) (time.Time, error) {
	target, ok := deliveryWeekdays[strings.ToLower(day)]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown delivery day: %s", day)
	}

	daysUntil := int(target) - int(from.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}

	return from.AddDate(0, 0, daysUntil), nil
}
