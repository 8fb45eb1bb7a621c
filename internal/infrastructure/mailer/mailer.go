package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type SMTPMailer struct {
	config config.SMTPConfig
	send   func(message *gomail.Message) error
}

func CreateSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		send: func(message *gomail.Message) error {
			return utils.SendEmail(message, cfg.Sender, cfg.Password, cfg.Host, cfg.Port)
		},
	}
}

// SendPaymentReceipt emails the customer once their order has been paid.
// Customers without an email address are skipped.
func (m *SMTPMailer) SendPaymentReceipt(ctx context.Context, order domain.Order, amountMinorUnits int64) error {
	if order.Customer.Email == nil || *order.Customer.Email == "" {
		log.Ctx(ctx).Debug().Str("component", "SendPaymentReceipt").Str("order_number", order.OrderNumber).Msg("no customer email, receipt skipped")
		return nil
	}

	message := BuildReceipt(m.config.Sender, order, amountMinorUnits)
	if err := m.send(message); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "SendPaymentReceipt").Str("order_number", order.OrderNumber).Msg("")
		return err
	}

	return nil
}

func BuildReceipt(sender string, order domain.Order, amountMinorUnits int64) *gomail.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hi %s,</p>", order.Customer.Name)
	fmt.Fprintf(&body, "<p>We have received GHS %s for order <b>%s</b>.</p>", domain.FormatMajorUnits(amountMinorUnits), order.OrderNumber)
	body.WriteString("<ul>")
	for _, item := range order.Items {
		fmt.Fprintf(&body, "<li>%s (%s) - GHS %.2f</li>", item.CategoryName, item.Preparation, item.Price)
	}
	body.WriteString("</ul>")
	if order.Delivery.ScheduledDate != "" {
		fmt.Fprintf(&body, "<p>Delivery: %s, %s</p>", order.Delivery.Day, order.Delivery.ScheduledDate)
	}

	message := gomail.NewMessage()
	message.SetHeader("From", sender)
	message.SetHeader("To", *order.Customer.Email)
	message.SetHeader("Subject", fmt.Sprintf("Payment received for %s", order.OrderNumber))
	message.SetBody("text/html", body.String())

	return message
}

type NoopMailer struct{}

func (NoopMailer) SendPaymentReceipt(ctx context.Context, order domain.Order, amountMinorUnits int64) error {
	return nil
}
