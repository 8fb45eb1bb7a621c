package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"gopkg.in/gomail.v2"
)

func receiptOrder(email *string) domain.Order {
	return domain.Order{
		OrderNumber: "CC-20250101-AB12",
		Customer:    domain.Customer{Name: "Ama", Phone: "0240000000", Email: email},
		Items: []domain.OrderItem{
			{CategoryName: "Mixed Pack", Preparation: "fried", Price: 30},
		},
		TotalAmount: 30,
		Delivery:    domain.Delivery{Day: "wednesday", ScheduledDate: "2025-01-08"},
	}
}

func TestSendPaymentReceipt(t *testing.T) {
	email := "ama@example.com"

	var sent []*gomail.Message
	m := CreateSMTPMailer(config.SMTPConfig{Sender: "orders@crispycravings.test"})
	m.send = func(message *gomail.Message) error {
		sent = append(sent, message)
		return nil
	}

	err := m.SendPaymentReceipt(context.Background(), receiptOrder(&email), 3000)
	assert.NoError(t, err)
	assert.Len(t, sent, 1)
	assert.Equal(t, []string{"ama@example.com"}, sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Payment received for CC-20250101-AB12"}, sent[0].GetHeader("Subject"))

	err = m.SendPaymentReceipt(context.Background(), receiptOrder(nil), 3000)
	assert.NoError(t, err)
	assert.Len(t, sent, 1)
}

func TestSendPaymentReceiptError(t *testing.T) {
	email := "ama@example.com"

	m := CreateSMTPMailer(config.SMTPConfig{Sender: "orders@crispycravings.test"})
	m.send = func(message *gomail.Message) error {
		return errors.New("smtp unavailable")
	}

	err := m.SendPaymentReceipt(context.Background(), receiptOrder(&email), 3000)
	assert.Error(t, err)
}
