package public

import (
	"strconv"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "order_id 必须是数字")
		return
	}
	order, err := h.OrderService.Get(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// BatchUpsertOrders 批量同步订单
func (h *Handler) BatchUpsertOrders(c *gin.Context) {
	var inputs map[string]service.OrderInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		response.BadRequest(c, "订单数据格式错误")
		return
	}
	updated, err := h.OrderService.BatchUpsert(inputs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, updated)
}

// NextOrder 下一个待称重订单的物流查询地址
func (h *Handler) NextOrder(c *gin.Context) {
	url, err := h.OrderService.NextWeighableURL()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, url)
}

// AssignLgIDs 批量回填物流单号
func (h *Handler) AssignLgIDs(c *gin.Context) {
	var assignments []service.LgIDAssignment
	if err := c.ShouldBindJSON(&assignments); err != nil {
		response.BadRequest(c, "物流单号数据格式错误")
		return
	}
	orders, err := h.OrderService.AssignLgIDs(assignments)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, orders)
}

// RecordOrderWeight 记录订单实测重量
func (h *Handler) RecordOrderWeight(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "order_id 必须是数字")
		return
	}
	weight, err := strconv.ParseInt(c.Param("weight"), 10, 64)
	if err != nil {
		response.BadRequest(c, "weight 必须是数字")
		return
	}
	itemNum, err := strconv.ParseInt(c.Param("item_num"), 10, 64)
	if err != nil {
		response.BadRequest(c, "item_num 必须是数字")
		return
	}
	advisory, err := h.OrderService.RecordWeight(orderID, weight, itemNum)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if advisory != "" {
		response.SuccessWithMsg(c, advisory, nil)
		return
	}
	response.Success(c, nil)
}
