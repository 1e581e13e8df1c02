package handler

import (
	"errors"
	"strconv"

	"github.com/daily-ledger/internal/middleware"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/logger"
	"github.com/daily-ledger/pkg/response"
	"github.com/daily-ledger/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeError maps a service error onto the response envelope. Anything
// unrecognised is logged and reported as a generic 500.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(c, verr.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, service.ErrUserNotFound.Error())
	case errors.Is(err, service.ErrRecordNotFound):
		response.NotFound(c, service.ErrRecordNotFound.Error())
	case errors.Is(err, service.ErrUserIDTaken):
		response.Conflict(c, service.ErrUserIDTaken.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrAuthorizationDenied):
		response.Forbidden(c, service.ErrAuthorizationDenied.Error())
	default:
		_ = c.Error(err)
		logger.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).Errorf("request failed: %v", err)
		response.InternalError(c, "internal server error")
	}
}

// bindError reports a request that failed binding or validation
func bindError(c *gin.Context, err error) {
	response.BadRequest(c, validation.Format(err))
}

// paramID parses a numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
