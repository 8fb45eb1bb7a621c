package middleware

import (
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/response"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// IsLoggedIn validates the bearer token. Without a configured secret every
// request is rejected as a configuration error.
func IsLoggedIn(jwtSecret string) echo.MiddlewareFunc {
	if jwtSecret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				log.Ctx(c.Request().Context()).Error().Str("component", "IsLoggedIn").Msg("jwt secret not configured")
				return response.WriteErrorResponse(c, errs.ErrConfiguration, nil)
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(jwtSecret),
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			return response.WriteErrorMessage(c, errs.ErrNotLoggedIn, "Invalid or expired JWT", nil)
		},
	})
}

// RequireRole must run after IsLoggedIn.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, tokenRole := utils.ExtractTokenClaims(c)
			if tokenRole != role {
				log.Ctx(c.Request().Context()).Warn().Str("component", "RequireRole").Str("subject", subject).Str("role", tokenRole).Msg("role not permitted")
				return response.WriteErrorResponse(c, errs.ErrUnauthorized, nil)
			}

			return next(c)
		}
	}
}
