package app

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/labstack/echo/v4"
)

func (s *IntegrationTestSuite) Test_GetOrders() {
	type TestCase struct {
		Name           string
		Token          func(s *IntegrationTestSuite) string
		Query          string
		ExpectedStatus int
		AssertResponse func(s *IntegrationTestSuite, resp *http.Response)
	}

	testCases := []TestCase{
		{
			Name:           "Admin lists orders",
			Token:          (*IntegrationTestSuite).adminToken,
			ExpectedStatus: http.StatusOK,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response) {
				var payload struct {
					Data []domain.Order `json:"data"`
				}
				s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
				s.Len(payload.Data, 2)
			},
		},
		{
			Name:           "Admin filters by payment status",
			Token:          (*IntegrationTestSuite).adminToken,
			Query:          "?payment_status=paid",
			ExpectedStatus: http.StatusOK,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response) {
				var payload struct {
					Data []domain.Order `json:"data"`
				}
				s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
				s.Require().Len(payload.Data, 1)
				s.Equal("CC-20250101-AB12", payload.Data[0].OrderNumber)
			},
		},
		{
			Name:           "Customer session",
			Token:          (*IntegrationTestSuite).sessionToken,
			ExpectedStatus: http.StatusForbidden,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response) {
				s.Equal(errs.CodePermissionDenied, decodeError(s, resp).Code)
			},
		},
		{
			Name:           "No token",
			Token:          func(*IntegrationTestSuite) string { return "" },
			ExpectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)
			s.seedOrder("CC-20250101-CD34", 12.10, domain.PaymentMethodCash)
			s.Require().Equal(http.StatusOK, s.postWebhook(chargeSuccessBody).StatusCode)

			resp := s.doJSON(http.MethodGet, "/api/v1/admin/orders"+tc.Query, nil, tc.Token(s))
			s.Equal(tc.ExpectedStatus, resp.StatusCode)

			if tc.AssertResponse != nil {
				tc.AssertResponse(s, resp)
			}
		})
	}
}

func (s *IntegrationTestSuite) Test_UpdateOrderStatus() {
	type TestCase struct {
		Name           string
		Status         string
		ID             func(orderID string) string
		ExpectedStatus int
		ExpectedOrder  string
	}

	sameID := func(orderID string) string { return orderID }

	testCases := []TestCase{
		{Name: "Confirm pending order", Status: domain.OrderStatusConfirmed, ID: sameID, ExpectedStatus: http.StatusOK, ExpectedOrder: domain.OrderStatusConfirmed},
		{Name: "Cancel pending order", Status: domain.OrderStatusCancelled, ID: sameID, ExpectedStatus: http.StatusOK, ExpectedOrder: domain.OrderStatusCancelled},
		{Name: "Deliver pending order", Status: domain.OrderStatusDelivered, ID: sameID, ExpectedStatus: http.StatusUnprocessableEntity, ExpectedOrder: domain.OrderStatusPending},
		{Name: "Unknown status", Status: "shipped", ID: sameID, ExpectedStatus: http.StatusBadRequest, ExpectedOrder: domain.OrderStatusPending},
		{Name: "Unknown order", Status: domain.OrderStatusConfirmed, ID: func(string) string { return "000000000000000000000000" }, ExpectedStatus: http.StatusNotFound, ExpectedOrder: domain.OrderStatusPending},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)

			resp := s.doJSON(http.MethodPut, "/api/v1/admin/orders/"+tc.ID(orderID)+"/status", dto.UpdateOrderStatusRequest{Status: tc.Status}, s.adminToken())
			s.Equal(tc.ExpectedStatus, resp.StatusCode)
			s.Equal(tc.ExpectedOrder, s.order(orderID).Status)
		})
	}
}

func (s *IntegrationTestSuite) Test_MarkOrderDelivered() {
	orderID := s.seedOrder("CC-20250101-CD34", 12.10, domain.PaymentMethodCash)

	resp := s.doJSON(http.MethodPut, "/api/v1/admin/orders/"+orderID+"/delivery", nil, s.adminToken())
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = s.doJSON(http.MethodPut, "/api/v1/admin/orders/"+orderID+"/status", dto.UpdateOrderStatusRequest{Status: domain.OrderStatusConfirmed}, s.adminToken())
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.doJSON(http.MethodPut, "/api/v1/admin/orders/"+orderID+"/delivery", nil, s.adminToken())
	s.Equal(http.StatusOK, resp.StatusCode)

	order := s.order(orderID)
	s.Equal(domain.OrderStatusDelivered, order.Status)
	s.Equal(domain.OrderStatusDelivered, order.Delivery.Status)
	s.Equal(domain.PaymentStatusPaid, order.Payment.Status)
	s.NotNil(order.Payment.PaidAt)
}

func (s *IntegrationTestSuite) Test_GetUnmatchedPayments() {
	body := `{"event":"charge.success","data":{"reference":"CC-20991231-ZZZZ","amount":3000,"channel":"card"}}`
	s.Require().Equal(http.StatusOK, s.postWebhook(body).StatusCode)
	s.Require().Equal(http.StatusOK, s.postWebhook(body).StatusCode)

	resp := s.doJSON(http.MethodGet, "/api/v1/admin/unmatched-payments", nil, s.adminToken())
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		Data []domain.UnmatchedPayment `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	s.Require().Len(payload.Data, 1)
	s.Equal("CC-20991231-ZZZZ", payload.Data[0].Reference)
}

func (s *IntegrationTestSuite) Test_StreamOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+"/api/v1/admin/orders/stream", nil)
	s.Require().NoError(err)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.adminToken())

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("text/event-stream", resp.Header.Get(echo.HeaderContentType))

	s.Require().Eventually(func() bool {
		return s.hub.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		s.Require().NoError(err)

		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	s.Equal("insert", event)

	var change domain.OrderChange
	s.Require().NoError(json.Unmarshal([]byte(data), &change))
	s.Equal("CC-20250101-AB12", change.Order.OrderNumber)
	s.Equal(domain.PaymentStatusPending, change.Order.Payment.Status)

	cancel()
	s.Eventually(func() bool {
		return s.hub.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
