package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/response"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const streamHeartbeat = 25 * time.Second

type OrderSubscriber interface {
	Subscribe() (<-chan domain.OrderChange, func())
}

type AdminController struct {
	service    service.OrderService
	subscriber OrderSubscriber
}

func CreateAdminController(g *echo.Group, service service.OrderService, subscriber OrderSubscriber, middlewares ...echo.MiddlewareFunc) {
	c := AdminController{
		service:    service,
		subscriber: subscriber,
	}

	admin := g.Group("/admin", middlewares...)
	admin.GET("/orders", c.GetOrders)
	admin.GET("/orders/stream", c.StreamOrders)
	admin.PUT("/orders/:id/status", c.UpdateOrderStatus)
	admin.PUT("/orders/:id/delivery", c.MarkOrderDelivered)
	admin.GET("/unmatched-payments", c.GetUnmatchedPayments)
}

func (c *AdminController) GetOrders(e echo.Context) error {
	payload := pkgdto.Filter{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "GetOrders").Msg("")
	}

	resp, err := c.service.GetOrders(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}

func (c *AdminController) UpdateOrderStatus(e echo.Context) error {
	payload := dto.UpdateOrderStatusRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "UpdateOrderStatus").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	if err = e.Validate(&payload); err != nil {
		return response.WriteErrorResponse(e, errs.ErrInvalidArgument, utils.ValidationErrors(err))
	}

	err = c.service.UpdateOrderStatus(e.Request().Context(), e.Param("id"), payload.Status)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", nil)
}

func (c *AdminController) MarkOrderDelivered(e echo.Context) error {
	err := c.service.MarkOrderDelivered(e.Request().Context(), e.Param("id"))
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", nil)
}

func (c *AdminController) GetUnmatchedPayments(e echo.Context) error {
	payload := pkgdto.Filter{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "GetUnmatchedPayments").Msg("")
	}

	resp, err := c.service.GetUnmatchedPayments(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "", resp)
}

// StreamOrders pushes order changes to the dashboard as server-sent events
// until the client disconnects.
func (c *AdminController) StreamOrders(e echo.Context) error {
	ctx := e.Request().Context()

	changes, cancel := c.subscriber.Subscribe()
	defer cancel()

	res := e.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case change, ok := <-changes:
			if !ok {
				return nil
			}

			body, err := json.Marshal(change)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("component", "StreamOrders").Msg("")
				continue
			}

			if _, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", change.Operation, body); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
