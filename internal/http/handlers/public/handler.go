package public

import "github.com/mifaly/new-ae-server/internal/provider"

// Handler 采集端/发货端接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
