package admin

import (
	"github.com/mifaly/new-ae-server/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetConfig 按键名返回策略配置
func (h *Handler) GetConfig(c *gin.Context) {
	var keys []string
	if err := c.ShouldBindJSON(&keys); err != nil {
		response.BadRequest(c, "配置键列表格式错误")
		return
	}
	response.Success(c, h.Config.Policy.Subset(keys))
}
