package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	paymentgateway "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/payment-gateway"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
)

const chargeSuccessBody = `{"event":"charge.success","data":{"reference":"CC-20250101-AB12","amount":3000,"channel":"mobile_money","currency":"GHS","status":"success","customer":{"email":"ama@example.com"}}}`

func readBody(s *IntegrationTestSuite, resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return string(body)
}

func (s *IntegrationTestSuite) Test_PaystackWebhook() {
	type TestCase struct {
		Name           string
		Body           string
		Signature      func(body string) string
		ExpectedStatus int
		ExpectedBody   string
		AssertResponse func(s *IntegrationTestSuite, orderID string)
	}

	signed := func(body string) string {
		return paymentgateway.ComputeSignature(testPaystackSecret, []byte(body))
	}

	testCases := []TestCase{
		{
			Name:           "Valid charge success",
			Body:           chargeSuccessBody,
			Signature:      signed,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   "OK",
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				order := s.order(orderID)
				s.Equal(domain.PaymentStatusPaid, order.Payment.Status)
				s.Equal(domain.OrderStatusConfirmed, order.Status)
				s.Equal("mobile_money", order.Payment.Method)
				s.Require().NotNil(order.Payment.Reference)
				s.Equal("CC-20250101-AB12", *order.Payment.Reference)
				s.NotNil(order.Payment.PaidAt)

				payment, err := s.repo.GetPayment(context.Background(), "CC-20250101-AB12")
				s.Require().NoError(err)
				s.Equal(domain.LedgerStatusSuccess, payment.Status)
				s.Equal(int64(3000), payment.Amount)
				s.Equal("mobile_money", payment.Channel)

				s.Equal([]string{dto.EventPaymentConfirmed}, s.publisher.eventTypes())
			},
		},
		{
			Name:           "Invalid signature",
			Body:           chargeSuccessBody,
			Signature:      func(string) string { return "deadbeef" },
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedBody:   "Invalid signature",
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				s.Equal(domain.PaymentStatusPending, s.order(orderID).Payment.Status)

				_, err := s.repo.GetPayment(context.Background(), "CC-20250101-AB12")
				s.ErrorIs(err, errs.ErrNotFound)
				s.Empty(s.publisher.eventTypes())
			},
		},
		{
			Name:           "Signature for another secret",
			Body:           chargeSuccessBody,
			Signature:      func(body string) string { return paymentgateway.ComputeSignature("sk_test_other", []byte(body)) },
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedBody:   "Invalid signature",
		},
		{
			Name:           "Missing signature",
			Body:           chargeSuccessBody,
			Signature:      func(string) string { return "" },
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedBody:   "Invalid signature",
		},
		{
			Name:           "Malformed JSON",
			Body:           `{"event":"charge.success",`,
			Signature:      signed,
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "Missing amount",
			Body:           `{"event":"charge.success","data":{"reference":"CC-20250101-AB12"}}`,
			Signature:      signed,
			ExpectedStatus: http.StatusBadRequest,
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				s.Equal(domain.PaymentStatusPending, s.order(orderID).Payment.Status)
			},
		},
		{
			Name:           "Unhandled event type",
			Body:           `{"event":"transfer.success","data":{"reference":"TRF-1"}}`,
			Signature:      signed,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   "OK",
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				s.Equal(domain.PaymentStatusPending, s.order(orderID).Payment.Status)
			},
		},
		{
			Name:           "Amount mismatch",
			Body:           `{"event":"charge.success","data":{"reference":"CC-20250101-AB12","amount":2500,"channel":"mobile_money"}}`,
			Signature:      signed,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   "OK",
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				order := s.order(orderID)
				s.Equal(domain.PaymentStatusFraudCheck, order.Payment.Status)
				s.Equal("Amount mismatch. Paid: 25.00, Expected: 30.00", order.Payment.Warning)
				s.Equal(domain.OrderStatusPending, order.Status)

				_, err := s.repo.GetPayment(context.Background(), "CC-20250101-AB12")
				s.ErrorIs(err, errs.ErrNotFound)
				s.Equal([]string{dto.EventPaymentFlagged}, s.publisher.eventTypes())
			},
		},
		{
			Name:           "Unknown reference",
			Body:           `{"event":"charge.success","data":{"reference":"CC-20991231-ZZZZ","amount":3000,"channel":"card"}}`,
			Signature:      signed,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   "OK",
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				s.Equal(domain.PaymentStatusPending, s.order(orderID).Payment.Status)

				unmatched, err := s.repo.GetUnmatchedPayments(context.Background(), pkgdto.Filter{})
				s.Require().NoError(err)
				s.Require().Len(unmatched, 1)
				s.Equal("CC-20991231-ZZZZ", unmatched[0].Reference)
				s.Equal(int64(3000), unmatched[0].Amount)
				s.Equal(domain.PaymentSourceWebhook, unmatched[0].Source)
			},
		},
		{
			Name:           "Charge failed",
			Body:           `{"event":"charge.failed","data":{"reference":"CC-20250101-AB12","amount":3000,"gateway_response":"Declined"}}`,
			Signature:      signed,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   "OK",
			AssertResponse: func(s *IntegrationTestSuite, orderID string) {
				s.Equal(domain.PaymentStatusFailed, s.order(orderID).Payment.Status)

				payment, err := s.repo.GetPayment(context.Background(), "CC-20250101-AB12")
				s.Require().NoError(err)
				s.Equal(domain.LedgerStatusFailed, payment.Status)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)

			headers := map[string]string{}
			if sig := tc.Signature(tc.Body); sig != "" {
				headers[paymentgateway.SignatureHeader] = sig
			}

			resp := s.do(http.MethodPost, "/api/v1/webhooks/paystack", []byte(tc.Body), headers)
			s.Equal(tc.ExpectedStatus, resp.StatusCode)

			if tc.ExpectedBody != "" {
				s.Equal(tc.ExpectedBody, readBody(s, resp))
			}

			if tc.AssertResponse != nil {
				tc.AssertResponse(s, orderID)
			}
		})
	}
}

func (s *IntegrationTestSuite) Test_PaystackWebhook_Redelivery() {
	orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)

	resp := s.postWebhook(chargeSuccessBody)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	first := s.order(orderID)

	resp = s.postWebhook(chargeSuccessBody)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("OK", readBody(s, resp))

	second := s.order(orderID)
	s.True(first.UpdatedAt.Equal(second.UpdatedAt))
	s.True(first.Payment.PaidAt.Equal(*second.Payment.PaidAt))
	s.Equal([]string{dto.EventPaymentConfirmed}, s.publisher.eventTypes())
}

func (s *IntegrationTestSuite) Test_PaystackWebhook_ConcurrentDeliveries() {
	orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)

	var wg sync.WaitGroup
	statuses := make([]int, 10)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/v1/webhooks/paystack", strings.NewReader(chargeSuccessBody))
			if err != nil {
				return
			}
			req.Header.Set(paymentgateway.SignatureHeader, paymentgateway.ComputeSignature(testPaystackSecret, []byte(chargeSuccessBody)))

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for _, status := range statuses {
		s.Equal(http.StatusOK, status)
	}
	s.Equal(domain.PaymentStatusPaid, s.order(orderID).Payment.Status)
	s.Equal([]string{dto.EventPaymentConfirmed}, s.publisher.eventTypes())
}

func (s *IntegrationTestSuite) Test_PaystackWebhook_MethodNotAllowed() {
	resp := s.do(http.MethodGet, "/api/v1/webhooks/paystack", nil, nil)
	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (s *IntegrationTestSuite) Test_PaystackWebhook_MissingSecret() {
	s.initializeServer(func(config *config.Config) {
		config.PaystackConfig.SecretKey = ""
	})
	orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)

	resp := s.do(http.MethodPost, "/api/v1/webhooks/paystack", []byte(chargeSuccessBody), map[string]string{
		paymentgateway.SignatureHeader: paymentgateway.ComputeSignature("", []byte(chargeSuccessBody)),
	})
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.Equal("Server configuration error", readBody(s, resp))
	s.Equal(domain.PaymentStatusPending, s.order(orderID).Payment.Status)
}
