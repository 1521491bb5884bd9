package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetdesk/contracts/pkg/logger"
	"github.com/fleetdesk/contracts/service"
)

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondErrors(c *gin.Context, status int, messages ...string) {
	c.JSON(status, gin.H{"success": false, "errors": messages})
}

// respondError maps a lifecycle failure to its HTTP status. Anything that is
// not a LifecycleError is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	kind, ok := service.KindOf(err)
	if !ok {
		logger.Error(c.Request.Context(), "request failed", "error", err)
		respondErrors(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondErrors(c, statusForKind(kind), service.ErrorMessages(err)...)
}

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.ErrKindValidation:
		return http.StatusUnprocessableEntity
	case service.ErrKindNotFound:
		return http.StatusNotFound
	case service.ErrKindIllegalTransition, service.ErrKindReactivationLimit:
		return http.StatusBadRequest
	case service.ErrKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
