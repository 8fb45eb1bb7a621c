package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/metrics"
	paymentgateway "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const maxWebhookBodyBytes = 1 << 20

type WebhookController struct {
	paymentService service.PaymentService
	secretKey      string
}

func CreateWebhookController(g *echo.Group, paymentService service.PaymentService, secretKey string) {
	c := WebhookController{
		paymentService: paymentService,
		secretKey:      secretKey,
	}

	g.POST("/webhooks/paystack", c.HandlePaystackWebhook)
}

// HandlePaystackWebhook authenticates the delivery against the raw body before
// anything in it is interpreted. Events that were handled, including ones that
// were only recorded for review, are acknowledged with 200 so the gateway stops
// redelivering; 500 invites a retry.
func (c *WebhookController) HandlePaystackWebhook(e echo.Context) error {
	ctx := e.Request().Context()

	if c.secretKey == "" {
		log.Ctx(ctx).Error().Str("component", "HandlePaystackWebhook").Msg("paystack secret key not configured")
		return e.String(http.StatusInternalServerError, "Server configuration error")
	}

	body, err := io.ReadAll(io.LimitReader(e.Request().Body, maxWebhookBodyBytes+1))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "HandlePaystackWebhook").Msg("")
		return e.String(http.StatusBadRequest, "Bad Request")
	}
	if len(body) > maxWebhookBodyBytes {
		return e.String(http.StatusRequestEntityTooLarge, "Payload Too Large")
	}

	if !paymentgateway.VerifySignature(c.secretKey, body, e.Request().Header.Get(paymentgateway.SignatureHeader)) {
		metrics.WebhookSignatureFailures.Inc()
		log.Ctx(ctx).Warn().Str("component", "HandlePaystackWebhook").Str("remote_ip", e.RealIP()).Msg("invalid paystack signature")
		return e.String(http.StatusUnauthorized, "Invalid signature")
	}

	var event dto.PaystackWebhookEvent
	if err = json.Unmarshal(body, &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "HandlePaystackWebhook").Msg("malformed event")
		return e.String(http.StatusBadRequest, "Bad Request")
	}
	if err = e.Validate(&event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "HandlePaystackWebhook").Msg("malformed event")
		return e.String(http.StatusBadRequest, "Bad Request")
	}

	switch event.Event {
	case dto.EventChargeSuccess:
		err = c.handleChargeSuccess(e, event)
	case dto.EventChargeFailed:
		err = c.handleChargeFailed(e, event)
	default:
		log.Ctx(ctx).Info().Str("component", "HandlePaystackWebhook").Str("event", event.Event).Msg("unhandled event type")
		return e.String(http.StatusOK, "OK")
	}

	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return e.String(he.Code, http.StatusText(he.Code))
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "HandlePaystackWebhook").Str("event", event.Event).Msg("webhook processing error")
		return e.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return e.String(http.StatusOK, "OK")
}

func (c *WebhookController) handleChargeSuccess(e echo.Context, event dto.PaystackWebhookEvent) error {
	ctx := e.Request().Context()

	var data dto.PaystackChargeData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "handleChargeSuccess").Msg("malformed charge data")
		return echo.NewHTTPError(http.StatusBadRequest)
	}
	if err := e.Validate(&data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "handleChargeSuccess").Msg("malformed charge data")
		return echo.NewHTTPError(http.StatusBadRequest)
	}

	log.Ctx(ctx).Info().Str("component", "handleChargeSuccess").Str("reference", data.Reference).Int64("amount", *data.Amount).Msg("webhook event received")

	return c.paymentService.ReconcileSuccessfulPayment(ctx, domain.PaymentEvent{
		Reference:        data.Reference,
		AmountMinorUnits: *data.Amount,
		Channel:          data.Channel,
		Source:           domain.PaymentSourceWebhook,
		Customer:         data.Customer,
		RawPayload:       rawPayload(event.Data),
	})
}

func (c *WebhookController) handleChargeFailed(e echo.Context, event dto.PaystackWebhookEvent) error {
	ctx := e.Request().Context()

	var data dto.PaystackFailedChargeData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "handleChargeFailed").Msg("malformed charge data")
		return echo.NewHTTPError(http.StatusBadRequest)
	}
	if err := e.Validate(&data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "handleChargeFailed").Msg("malformed charge data")
		return echo.NewHTTPError(http.StatusBadRequest)
	}

	log.Ctx(ctx).Info().Str("component", "handleChargeFailed").Str("reference", data.Reference).Str("gateway_response", data.GatewayResponse).Msg("webhook event received")

	return c.paymentService.ReconcileFailedPayment(ctx, domain.PaymentEvent{
		Reference:        data.Reference,
		AmountMinorUnits: data.Amount,
		Source:           domain.PaymentSourceWebhook,
		RawPayload:       rawPayload(event.Data),
	})
}

func rawPayload(data json.RawMessage) map[string]interface{} {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw
}
