package apperror

import (
	"errors"
	"net/http"

	"github.com/costra/costra/domain"
)

// AppError pairs a stable machine-readable code with the HTTP status the
// transport layer should answer with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(message string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: message, Status: http.StatusBadRequest}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict}
}

func NewInternalServer(message string) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError}
}

// MapError translates domain errors into transport-level AppErrors. Unknown
// errors are treated as dependency failures and surface as 500s without
// leaking their message.
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var invalid *domain.InvalidArgumentError
	if errors.As(err, &invalid) {
		return NewBadRequest(invalid.Error())
	}

	switch {
	case errors.Is(err, domain.ErrIngredientNotFound),
		errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrPriceNotFound):
		return NewNotFound(err.Error())
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrNameTaken):
		return NewConflict(err.Error())
	default:
		return NewInternalServer("An unexpected error occurred")
	}
}
