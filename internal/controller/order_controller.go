package controller

import (
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/response"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type OrderController struct {
	service service.OrderService
}

func CreateOrderController(g *echo.Group, service service.OrderService, isLoggedIn echo.MiddlewareFunc) {
	c := OrderController{
		service: service,
	}

	g.POST("/orders", c.AddOrder, isLoggedIn)
}

func (c *OrderController) AddOrder(e echo.Context) error {
	payload := dto.OrderRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "AddOrder").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	if err = e.Validate(&payload); err != nil {
		return response.WriteErrorResponse(e, errs.ErrInvalidArgument, utils.ValidationErrors(err))
	}

	resp, err := c.service.AddOrder(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "Order placed", resp)
}
