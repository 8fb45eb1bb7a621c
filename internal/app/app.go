package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/controller"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/tracing"
	localmiddleware "github.com/alimikegami/crispy-cravings/payment-service/internal/middleware"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/repository"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/response"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Config      *config.Config
	OrderRepo   repository.OrderRepository
	PaymentRepo repository.PaymentRepository
	Gateway     service.PaymentGateway
	Publisher   service.EventPublisher
	Mailer      service.Mailer
	Subscriber  controller.OrderSubscriber
	Tracer      trace.Tracer
	Registerer  prometheus.Registerer

	PaymentService service.PaymentService
	OrderService   service.OrderService
	Server         *echo.Echo
}

// Build wires services and routes into a new echo instance. It does not listen.
func (app *App) Build() *echo.Echo {
	tracer := app.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracing.ServiceName)
	}
	registerer := app.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.CreateValidator()

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// span creation and naming
			ctx, span := tracer.Start(c.Request().Context(), fmt.Sprintf("[%s] %s", c.Request().Method, c.Path()))
			defer span.End()

			// add the context to the request
			req := c.Request()
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	})

	// Used empty subsystem so that metrics are not prefixed with the service name making it easier to aggregate across services
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/v1/admin/orders/stream"
		},
	}))

	e.Use(localmiddleware.Logger)

	app.PaymentService = service.CreatePaymentService(app.OrderRepo, app.PaymentRepo, app.Gateway, app.Publisher, app.Mailer, app.Config)
	app.OrderService = service.CreateOrderService(app.OrderRepo, app.PaymentRepo)

	isLoggedIn := localmiddleware.IsLoggedIn(app.Config.JWTConfig.JWTSecret)

	g := e.Group("/api/v1")
	controller.CreateWebhookController(g, app.PaymentService, app.Config.PaystackConfig.SecretKey)
	controller.CreateCallableController(g, app.PaymentService, app.OrderService, app.Config.JWTConfig, isLoggedIn)
	controller.CreateOrderController(g, app.OrderService, isLoggedIn)
	controller.CreateAdminController(g, app.OrderService, app.Subscriber, isLoggedIn, localmiddleware.RequireRole(utils.RoleAdmin))

	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, "Hello, World!", nil)
	})

	app.Server = e
	return e
}

func (app *App) Start() error {
	if app.Server == nil {
		app.Build()
	}

	err := app.Server.Start(fmt.Sprintf(":%s", app.Config.ServicePort))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartMetricsServer serves /metrics on its own port so it is not exposed
// with the public API.
func StartMetricsServer(port string) *echo.Echo {
	metrics := echo.New()
	metrics.HideBanner = true
	metrics.GET("/metrics", echoprometheus.NewHandler())

	go func() {
		if err := metrics.Start(fmt.Sprintf(":%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}()

	return metrics
}

func (app *App) StopServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return app.Server.Shutdown(ctx)
}
