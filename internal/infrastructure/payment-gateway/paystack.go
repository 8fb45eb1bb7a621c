package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/httpclient"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const transactionStatusSuccess = "success"

// VerificationError reports why the gateway did not confirm a transaction.
// It matches errs.ErrVerification.
type VerificationError struct {
	Reference string
	Reason    string
	Err       error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("verification of %s failed: %s: %v", e.Reference, e.Reason, e.Err)
	}
	return fmt.Sprintf("verification of %s failed: %s", e.Reference, e.Reason)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	return target == errs.ErrVerification
}

type PaystackClient struct {
	secretKey string
	baseURL   string
	client    *httpclient.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
}

func CreatePaystackClient(cfg config.PaystackConfig, cb *gobreaker.CircuitBreaker[[]byte]) *PaystackClient {
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &PaystackClient{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		client:    httpclient.CreateClient(httpClient),
		cb:        cb,
	}
}

// VerifyTransaction fetches the transaction for reference and returns it only
// when the gateway reports it as successful.
func (p *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (data dto.PaystackTransaction, err error) {
	if p.secretKey == "" {
		log.Ctx(ctx).Error().Str("component", "VerifyTransaction").Msg("paystack secret key not configured")
		return data, errs.ErrConfiguration
	}

	req := httpclient.HttpRequest{
		URL:    fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference)),
		Method: http.MethodGet,
		Headers: map[string]string{
			"Authorization": fmt.Sprintf("Bearer %s", p.secretKey),
			"Content-Type":  "application/json",
		},
	}

	var statusCode int
	body, err := p.cb.Execute(func() ([]byte, error) {
		var body []byte
		var err error
		statusCode, body, err = p.client.SendRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		// Only gateway-side failures count against the breaker.
		if statusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("paystack returned status %d", statusCode)
		}

		return body, nil
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "VerifyTransaction").Str("reference", reference).Msg("")
		return data, &VerificationError{Reference: reference, Reason: "gateway request failed", Err: err}
	}

	var resp dto.PaystackVerifyResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "VerifyTransaction").Int("status", statusCode).Msg("malformed gateway response")
		return data, &VerificationError{Reference: reference, Reason: "malformed response", Err: err}
	}

	if !resp.Status || len(resp.Data) == 0 || string(resp.Data) == "null" {
		reason := resp.Message
		if reason == "" {
			reason = "verification failed"
		}
		return data, &VerificationError{Reference: reference, Reason: reason}
	}

	if err = json.Unmarshal(resp.Data, &data); err != nil {
		return data, &VerificationError{Reference: reference, Reason: "malformed transaction data", Err: err}
	}
	if err = json.Unmarshal(resp.Data, &data.Raw); err != nil {
		return data, &VerificationError{Reference: reference, Reason: "malformed transaction data", Err: err}
	}

	if data.Status != transactionStatusSuccess {
		return data, &VerificationError{Reference: reference, Reason: fmt.Sprintf("transaction status is %s", data.Status)}
	}

	return data, nil
}
