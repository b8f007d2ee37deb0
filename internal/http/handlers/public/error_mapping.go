package public

import (
	"errors"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError 把业务错误映射为统一响应。
// “未改变任何数据”沿用旧有约定：算成功，只是带提示语。
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNothingChanged):
		response.SuccessWithMsg(c, service.ErrNothingChanged.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAllDone):
		response.Error(c, response.CodeNotFound, service.ErrAllDone.Error())
	case errors.Is(err, service.ErrOfferExists),
		errors.Is(err, service.ErrProductExists),
		errors.Is(err, service.ErrWeightRecorded),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrMissingSKU):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrPriceInvalid),
		errors.Is(err, service.ErrInvalidSnapshot),
		errors.Is(err, service.ErrInvalidColumn),
		errors.Is(err, service.ErrNoURLPattern):
		response.BadRequest(c, err.Error())
	default:
		logger.Errorw("handler_internal_error", "path", c.FullPath(), "error", err)
		response.Error(c, response.CodeInternal, err.Error())
	}
}
