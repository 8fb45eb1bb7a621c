package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	paymentgateway "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/response"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CallableController serves the storefront endpoints that the browser calls
// directly with a session token.
type CallableController struct {
	paymentService service.PaymentService
	orderService   service.OrderService
	jwtConfig      config.JWTConfig
}

func CreateCallableController(g *echo.Group, paymentService service.PaymentService, orderService service.OrderService, jwtConfig config.JWTConfig, isLoggedIn echo.MiddlewareFunc) {
	c := CallableController{
		paymentService: paymentService,
		orderService:   orderService,
		jwtConfig:      jwtConfig,
	}

	g.POST("/sessions", c.CreateSession)
	g.POST("/callable/verifyPayment", c.VerifyPayment, isLoggedIn)
	g.POST("/callable/trackOrder", c.TrackOrder, isLoggedIn)
}

func (c *CallableController) CreateSession(e echo.Context) error {
	if c.jwtConfig.JWTSecret == "" {
		log.Ctx(e.Request().Context()).Error().Str("component", "CreateSession").Msg("jwt secret not configured")
		return response.WriteErrorResponse(e, errs.ErrConfiguration, nil)
	}

	token, err := utils.CreateJWTToken(uuid.NewString(), utils.RoleCustomer, c.jwtConfig.SessionTTL, c.jwtConfig.JWTSecret, c.jwtConfig.JWTKid)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "CreateSession").Msg("")
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", dto.SessionResponse{
		Token:     token,
		ExpiresIn: int64(c.jwtConfig.SessionTTL.Seconds()),
	})
}

func (c *CallableController) VerifyPayment(e echo.Context) error {
	payload := dto.VerifyPaymentRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "VerifyPayment").Msg("")
	}

	if strings.TrimSpace(payload.Reference) == "" {
		return response.WriteErrorMessage(e, errs.ErrInvalidArgument, "Payment reference is required", nil)
	}

	err = c.paymentService.VerifyPayment(e.Request().Context(), payload.Reference)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "VerifyPayment").Str("reference", payload.Reference).Msg("verification failed")

		var verr *paymentgateway.VerificationError
		if errors.As(err, &verr) {
			return response.WriteErrorMessage(e, errs.ErrVerification, "Payment verification failed: "+verr.Reason, nil)
		}
		return response.WriteErrorResponse(e, err, nil)
	}

	return e.JSON(http.StatusOK, dto.VerifyPaymentResponse{
		Success: true,
		Message: "Payment verified and order updated",
	})
}

func (c *CallableController) TrackOrder(e echo.Context) error {
	payload := dto.TrackOrderRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "TrackOrder").Msg("")
	}

	if err = e.Validate(&payload); err != nil {
		return response.WriteErrorMessage(e, errs.ErrInvalidArgument, "Order number and phone are required", utils.ValidationErrors(err))
	}

	resp, err := c.orderService.TrackOrder(e.Request().Context(), payload)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return response.WriteErrorMessage(e, errs.ErrNotFound, "Order not found. Please check your order number and phone.", nil)
		}
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}
