package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estatehub/auth-service/internal/model"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleError maps domain errors to HTTP responses. Revoked, expired and
// unknown tokens all collapse to the same 401 body so callers learn nothing
// about why a credential was rejected.
func (h *Auth) handleError(c *gin.Context, err error) {
	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "VALIDATION_ERROR", Message: valErr.Message})
		return
	}

	switch {
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, errorResponse{Code: "UNAUTHORIZED", Message: "invalid credentials"})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "not found"})
	default:
		h.logger.Error("Auth handler: request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
	}
}
