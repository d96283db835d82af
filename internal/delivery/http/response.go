package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"tradearena/internal/domain"
)

// Response represents a standardized API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Kind    string      `json:"kind,omitempty"` // machine-readable error kind
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse sends a success response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

// CreatedResponse sends a 201 Created response
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Status: "success",
		Data:   data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c echo.Context, statusCode int, kind, message string) error {
	return c.JSON(statusCode, Response{
		Status:  "error",
		Kind:    kind,
		Message: message,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, "validation_error", message)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusUnauthorized, "unauthorized", message)
}

// DomainErrorResponse maps a domain error to its HTTP status and kind.
// Unexpected errors surface as 500 without leaking internal detail.
func DomainErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrorResponse(c, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, domain.ErrForbidden):
		return ErrorResponse(c, http.StatusForbidden, "forbidden", "You do not own this resource")
	case errors.Is(err, domain.ErrAlreadyExists):
		return ErrorResponse(c, http.StatusConflict, "already_exists", "Resource already exists")
	case errors.Is(err, domain.ErrInvalidState):
		return ErrorResponse(c, http.StatusBadRequest, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrValidation):
		return ErrorResponse(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrPaymentGate):
		return ErrorResponse(c, http.StatusBadGateway, "payment_gateway_error", "Payment gateway request failed")
	default:
		return ErrorResponse(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
