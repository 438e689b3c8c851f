package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuehanlin/biblegraph-backend/internal/http/response"
	pkgerrors "github.com/yuehanlin/biblegraph-backend/internal/pkg/errors"
)

// respondServiceError translates service-layer sentinels into transport
// statuses. Absent and foreign cards share one fixed 404 body so existence
// never leaks across owners.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrNotFoundOrForbidden):
		response.RespondError(c, http.StatusNotFound, "not_found", pkgerrors.ErrNotFoundOrForbidden)
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrConstraintViolation):
		response.RespondError(c, http.StatusConflict, "conflict", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
