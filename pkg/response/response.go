package response

import (
	"net/http"

	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

type ErrorResponse struct {
	Status  string      `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors"`
}

func WriteSuccessResponse(c echo.Context, message string, data interface{}) error {
	resp := SuccessResponse{}
	resp.Status = "success"
	resp.Data = data
	resp.Message = message

	return c.JSON(http.StatusOK, resp)
}

// WriteErrorResponse maps err onto its sentinel so wrapped causes never reach
// the client; only the sentinel message is written.
func WriteErrorResponse(c echo.Context, err error, errors interface{}) error {
	sentinel := errs.Resolve(err)

	resp := ErrorResponse{}
	resp.Status = "error"
	resp.Code = errs.GetErrorCode(sentinel)
	resp.Message = sentinel.Error()
	resp.Errors = errors

	return c.JSON(errs.GetErrorStatusCode(sentinel), resp)
}

// WriteErrorMessage is WriteErrorResponse with a caller chosen message, used when
// the message is safe to show (gateway reasons, validation hints).
func WriteErrorMessage(c echo.Context, err error, message string, errors interface{}) error {
	resp := ErrorResponse{}
	resp.Status = "error"
	resp.Code = errs.GetErrorCode(err)
	resp.Message = message
	resp.Errors = errors

	return c.JSON(errs.GetErrorStatusCode(err), resp)
}
