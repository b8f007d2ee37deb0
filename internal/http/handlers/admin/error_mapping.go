package admin

import (
	"errors"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError 管理端的业务错误映射，口径与采集端一致
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNothingChanged):
		response.SuccessWithMsg(c, service.ErrNothingChanged.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidColumn),
		errors.Is(err, service.ErrInvalidSnapshot):
		response.BadRequest(c, err.Error())
	default:
		logger.Errorw("admin_handler_internal_error", "path", c.FullPath(), "error", err)
		response.Error(c, response.CodeInternal, err.Error())
	}
}
