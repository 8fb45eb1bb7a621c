package errs

import (
	"errors"
	"net/http"
)

const (
	ErrStatusInternalServer     = http.StatusInternalServerError
	ErrStatusClient             = http.StatusBadRequest
	ErrStatusNotLoggedIn        = http.StatusUnauthorized
	ErrStatusNoPermission       = http.StatusForbidden
	ErrStatusUnauthorized       = http.StatusUnauthorized
	ErrStatusNotFound           = http.StatusNotFound
	ErrStatusConflict           = http.StatusConflict
	ErrStatusBadGateway         = http.StatusBadGateway
	ErrStatusFailedPrecondition = http.StatusUnprocessableEntity
)

// Callable error codes returned alongside the HTTP status so storefront clients
// can branch without parsing messages.
const (
	CodeInvalidArgument    = "invalid-argument"
	CodeNotFound           = "not-found"
	CodeInternal           = "internal"
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission-denied"
	CodeFailedPrecondition = "failed-precondition"
	CodeAlreadyExists      = "already-exists"
)

var (
	ErrInternalServer     = errors.New("Internal server error")
	ErrClient             = errors.New("Bad request")
	ErrInvalidArgument    = errors.New("Invalid argument")
	ErrNotLoggedIn        = errors.New("Unauthorized access")
	ErrUnauthorized       = errors.New("Forbidden access")
	ErrNotFound           = errors.New("Resource not found")
	ErrConflict           = errors.New("Conflicting record found")
	ErrExpiredToken       = errors.New("Token has expired")
	ErrConfiguration      = errors.New("Server configuration error")
	ErrInvalidSignature   = errors.New("Invalid signature")
	ErrVerification       = errors.New("Payment verification failed")
	ErrAmountMismatch     = errors.New("Payment amount does not match order total")
	ErrInvalidTransition  = errors.New("Order status transition is not allowed")
	ErrOrderTotalMismatch = errors.New("Order total does not match item prices")
)

var errorMap = map[error]int{
	ErrInternalServer:     ErrStatusInternalServer,
	ErrClient:             ErrStatusClient,
	ErrInvalidArgument:    ErrStatusClient,
	ErrNotLoggedIn:        ErrStatusNotLoggedIn,
	ErrUnauthorized:       ErrStatusNoPermission,
	ErrNotFound:           ErrStatusNotFound,
	ErrConflict:           ErrStatusConflict,
	ErrExpiredToken:       ErrStatusUnauthorized,
	ErrConfiguration:      ErrStatusInternalServer,
	ErrInvalidSignature:   ErrStatusUnauthorized,
	ErrVerification:       ErrStatusInternalServer,
	ErrInvalidTransition:  ErrStatusFailedPrecondition,
	ErrOrderTotalMismatch: ErrStatusClient,
}

var codeMap = map[error]string{
	ErrClient:             CodeInvalidArgument,
	ErrInvalidArgument:    CodeInvalidArgument,
	ErrNotLoggedIn:        CodeUnauthenticated,
	ErrExpiredToken:       CodeUnauthenticated,
	ErrInvalidSignature:   CodeUnauthenticated,
	ErrUnauthorized:       CodePermissionDenied,
	ErrNotFound:           CodeNotFound,
	ErrConflict:           CodeAlreadyExists,
	ErrInvalidTransition:  CodeFailedPrecondition,
	ErrOrderTotalMismatch: CodeInvalidArgument,
}

// Resolve returns the sentinel that err wraps, or ErrInternalServer when err
// does not wrap any known sentinel.
func Resolve(err error) error {
	if err == nil {
		return nil
	}

	for sentinel := range errorMap {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return ErrInternalServer
}

func GetErrorStatusCode(err error) int {
	errStatusCode, ok := errorMap[Resolve(err)]
	if !ok {
		errStatusCode = errorMap[ErrInternalServer]
	}
	return errStatusCode
}

func GetErrorCode(err error) string {
	code, ok := codeMap[Resolve(err)]
	if !ok {
		code = CodeInternal
	}
	return code
}
