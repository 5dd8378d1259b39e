package httpserver

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorKind maps a service error to an HTTP status and a stable error code.
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrCartEmpty):
		return http.StatusBadRequest, "cart_empty"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrNotCancellable):
		return http.StatusConflict, "not_cancellable"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(c *gin.Context, err error) {
	status, kind := errorKind(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(status, errorResponse{Error: kind, Message: msg})
}

// bindError reports a request body or query that failed to bind.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "validation", Message: err.Error()})
}
