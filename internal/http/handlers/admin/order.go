package admin

import (
	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/repository"

	"github.com/gin-gonic/gin"
)

// OrderSearchRequest 订单列表查询请求
type OrderSearchRequest struct {
	Page      int   `json:"page"`
	PerPage   int   `json:"per_page"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
}

// SearchOrders 订单分页查询
func (h *Handler) SearchOrders(c *gin.Context) {
	var req OrderSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "查询条件格式错误")
		return
	}
	orders, total, page, perPage, err := h.OrderService.Search(repository.OrderSearchFilter{
		Page:      req.Page,
		PerPage:   req.PerPage,
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, perPage, total))
}
