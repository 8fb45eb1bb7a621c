package app

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
)

const verifiedTransactionBody = `{"status":true,"message":"Verification successful","data":{"reference":"CC-20250101-AB12","status":"success","amount":3000,"currency":"GHS","channel":"mobile_money","customer":{"email":"ama@example.com"}}}`

func (s *IntegrationTestSuite) Test_CreateSession() {
	resp := s.do(http.MethodPost, "/api/v1/sessions", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string              `json:"status"`
		Data   dto.SessionResponse `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	s.Equal("success", payload.Status)
	s.NotEmpty(payload.Data.Token)
	s.Equal(int64(3600), payload.Data.ExpiresIn)
}

func (s *IntegrationTestSuite) Test_VerifyPayment() {
	type TestCase struct {
		Name            string
		Request         dto.VerifyPaymentRequest
		Gateway         func(f *fakePaystack)
		Unauthenticated bool
		ExpectedStatus  int
		AssertResponse  func(s *IntegrationTestSuite, resp *http.Response, orderID string)
	}

	testCases := []TestCase{
		{
			Name:    "Verified payment",
			Request: dto.VerifyPaymentRequest{Reference: "CC-20250101-AB12"},
			Gateway: func(f *fakePaystack) {
				f.set("CC-20250101-AB12", http.StatusOK, verifiedTransactionBody)
			},
			ExpectedStatus: http.StatusOK,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderID string) {
				var payload dto.VerifyPaymentResponse
				s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
				s.True(payload.Success)
				s.Equal("Payment verified and order updated", payload.Message)

				order := s.order(orderID)
				s.Equal(domain.PaymentStatusPaid, order.Payment.Status)
				s.Equal(domain.OrderStatusConfirmed, order.Status)
			},
		},
		{
			Name:           "Missing reference",
			Request:        dto.VerifyPaymentRequest{},
			ExpectedStatus: http.StatusBadRequest,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderID string) {
				payload := decodeError(s, resp)
				s.Equal(errs.CodeInvalidArgument, payload.Code)
				s.Equal("Payment reference is required", payload.Message)
			},
		},
		{
			Name:           "Blank reference",
			Request:        dto.VerifyPaymentRequest{Reference: "   "},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:    "Abandoned transaction",
			Request: dto.VerifyPaymentRequest{Reference: "CC-20250101-AB12"},
			Gateway: func(f *fakePaystack) {
				f.set("CC-20250101-AB12", http.StatusOK, strings.Replace(verifiedTransactionBody, `"status":"success"`, `"status":"abandoned"`, 1))
			},
			ExpectedStatus: http.StatusInternalServerError,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderID string) {
				payload := decodeError(s, resp)
				s.Equal(errs.CodeInternal, payload.Code)
				s.Equal("Payment verification failed: transaction status is abandoned", payload.Message)
				s.Equal(domain.PaymentStatusPending, s.order(orderID).Payment.Status)
			},
		},
		{
			Name:           "Unknown reference",
			Request:        dto.VerifyPaymentRequest{Reference: "CC-20250101-NONE"},
			ExpectedStatus: http.StatusInternalServerError,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderID string) {
				payload := decodeError(s, resp)
				s.Equal("Payment verification failed: Transaction reference not found", payload.Message)
			},
		},
		{
			Name:            "Missing session",
			Request:         dto.VerifyPaymentRequest{Reference: "CC-20250101-AB12"},
			Unauthenticated: true,
			ExpectedStatus:  http.StatusUnauthorized,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderID string) {
				s.Equal(errs.CodeUnauthenticated, decodeError(s, resp).Code)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)
			if tc.Gateway != nil {
				tc.Gateway(s.paystack)
			}

			token := ""
			if !tc.Unauthenticated {
				token = s.sessionToken()
			}

			resp := s.doJSON(http.MethodPost, "/api/v1/callable/verifyPayment", tc.Request, token)
			s.Equal(tc.ExpectedStatus, resp.StatusCode)

			if tc.AssertResponse != nil {
				tc.AssertResponse(s, resp, orderID)
			}
		})
	}
}

func (s *IntegrationTestSuite) Test_VerifyPayment_AfterWebhook() {
	orderID := s.seedOrder("CC-20250101-AB12", 30.00, domain.PaymentMethodMoMo)
	s.paystack.set("CC-20250101-AB12", http.StatusOK, verifiedTransactionBody)

	resp := s.postWebhook(chargeSuccessBody)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	paid := s.order(orderID)

	resp = s.doJSON(http.MethodPost, "/api/v1/callable/verifyPayment", dto.VerifyPaymentRequest{Reference: "CC-20250101-AB12"}, s.sessionToken())
	s.Equal(http.StatusOK, resp.StatusCode)

	s.True(paid.UpdatedAt.Equal(s.order(orderID).UpdatedAt))
	s.Len(s.publisher.eventTypes(), 1)
}

func (s *IntegrationTestSuite) Test_VerifyPayment_AfterMismatchedWebhook() {
	orderID := s.seedOrder("CC-20250101-AB12", 35.00, domain.PaymentMethodMoMo)
	s.paystack.set("CC-20250101-AB12", http.StatusOK, verifiedTransactionBody)

	resp := s.postWebhook(chargeSuccessBody)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	flagged := s.order(orderID)
	s.Require().Equal(domain.PaymentStatusFraudCheck, flagged.Payment.Status)

	resp = s.doJSON(http.MethodPost, "/api/v1/callable/verifyPayment", dto.VerifyPaymentRequest{Reference: "CC-20250101-AB12"}, s.sessionToken())
	s.Equal(http.StatusOK, resp.StatusCode)

	order := s.order(orderID)
	s.Equal(domain.PaymentStatusFraudCheck, order.Payment.Status)
	s.True(flagged.UpdatedAt.Equal(order.UpdatedAt))
	s.Equal([]string{dto.EventPaymentFlagged}, s.publisher.eventTypes())
}

func validOrderRequest() dto.OrderRequest {
	return dto.OrderRequest{
		Customer: dto.CustomerRequest{
			Name:  "Ama Mensah",
			Phone: "0240000000",
			Location: dto.Location{
				Campus: "Legon",
				Hostel: "Volta Hall",
				Room:   "B12",
			},
		},
		Items: []dto.OrderItem{
			{Category: "mixed", CategoryName: "Mixed Pack", Preparation: "fried", SpringRolls: 5, Samosas: 5, PieceCount: 10, Price: 12.10},
			{Category: "samosa", CategoryName: "Samosa Pack", Preparation: "frozen", Samosas: 10, PieceCount: 10, Price: 17.90},
		},
		TotalAmount:   30.00,
		DeliveryDay:   "sunday",
		PaymentMethod: domain.PaymentMethodMoMo,
	}
}

func (s *IntegrationTestSuite) Test_AddOrder() {
	type TestCase struct {
		Name           string
		Request        func() dto.OrderRequest
		ExpectedStatus int
		AssertResponse func(s *IntegrationTestSuite, resp *http.Response)
	}

	testCases := []TestCase{
		{
			Name:           "Valid request",
			Request:        validOrderRequest,
			ExpectedStatus: http.StatusOK,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response) {
				var payload struct {
					Data dto.OrderCreatedResponse `json:"data"`
				}
				s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
				s.Regexp(`^CC-\d{8}-[0-9A-Z]{4}$`, payload.Data.OrderNumber)
				s.Equal(domain.OrderStatusPending, payload.Data.Status)

				order := s.order(payload.Data.ID)
				s.Equal(domain.PaymentStatusPending, order.Payment.Status)
			},
		},
		{
			Name: "Missing items",
			Request: func() dto.OrderRequest {
				req := validOrderRequest()
				req.Items = nil
				return req
			},
			ExpectedStatus: http.StatusBadRequest,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response) {
				payload := decodeError(s, resp)
				s.Equal(errs.CodeInvalidArgument, payload.Code)
				s.NotNil(payload.Errors)
			},
		},
		{
			Name: "Unsupported delivery day",
			Request: func() dto.OrderRequest {
				req := validOrderRequest()
				req.DeliveryDay = "monday"
				return req
			},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name: "Total does not match items",
			Request: func() dto.OrderRequest {
				req := validOrderRequest()
				req.TotalAmount = 25.00
				return req
			},
			ExpectedStatus: http.StatusBadRequest,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response) {
				s.Equal(errs.ErrOrderTotalMismatch.Error(), decodeError(s, resp).Message)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			resp := s.doJSON(http.MethodPost, "/api/v1/orders", tc.Request(), s.sessionToken())
			s.Equal(tc.ExpectedStatus, resp.StatusCode)

			if tc.AssertResponse != nil {
				tc.AssertResponse(s, resp)
			}
		})
	}
}

func (s *IntegrationTestSuite) Test_TrackOrder() {
	type TestCase struct {
		Name           string
		Request        func(orderNumber string) dto.TrackOrderRequest
		ExpectedStatus int
		AssertResponse func(s *IntegrationTestSuite, resp *http.Response, orderNumber string)
	}

	testCases := []TestCase{
		{
			Name: "Lower case order number",
			Request: func(orderNumber string) dto.TrackOrderRequest {
				return dto.TrackOrderRequest{OrderNumber: strings.ToLower(orderNumber), Phone: "0240000000"}
			},
			ExpectedStatus: http.StatusOK,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderNumber string) {
				var payload struct {
					Data dto.TrackOrderResponse `json:"data"`
				}
				s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
				s.Equal(orderNumber, payload.Data.OrderNumber)
				s.Equal(domain.OrderStatusPending, payload.Data.Status)
				s.Equal("Volta Hall", payload.Data.Customer.Location.Hostel)
				s.Len(payload.Data.Items, 2)
			},
		},
		{
			Name: "Wrong phone",
			Request: func(orderNumber string) dto.TrackOrderRequest {
				return dto.TrackOrderRequest{OrderNumber: orderNumber, Phone: "0249999999"}
			},
			ExpectedStatus: http.StatusNotFound,
			AssertResponse: func(s *IntegrationTestSuite, resp *http.Response, orderNumber string) {
				s.Equal(errs.CodeNotFound, decodeError(s, resp).Code)
			},
		},
		{
			Name: "Missing phone",
			Request: func(orderNumber string) dto.TrackOrderRequest {
				return dto.TrackOrderRequest{OrderNumber: orderNumber}
			},
			ExpectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			token := s.sessionToken()

			resp := s.doJSON(http.MethodPost, "/api/v1/orders", validOrderRequest(), token)
			s.Require().Equal(http.StatusOK, resp.StatusCode)

			var created struct {
				Data dto.OrderCreatedResponse `json:"data"`
			}
			s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))

			resp = s.doJSON(http.MethodPost, "/api/v1/callable/trackOrder", tc.Request(created.Data.OrderNumber), token)
			s.Equal(tc.ExpectedStatus, resp.StatusCode)

			if tc.AssertResponse != nil {
				tc.AssertResponse(s, resp, created.Data.OrderNumber)
			}
		})
	}
}
