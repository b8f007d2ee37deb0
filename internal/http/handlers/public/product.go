package public

import (
	"strconv"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProduct 新建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var snap service.ProductSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.BadRequest(c, "快照数据格式错误")
		return
	}
	product, err := h.ProductService.Create(&snap)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product.ID)
}

// UpdateProduct 快照更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	var snap service.ProductSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.BadRequest(c, "快照数据格式错误")
		return
	}
	product, err := h.ProductService.Update(&snap)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "product_id 必须是数字")
		return
	}
	product, err := h.ProductService.Get(productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// BatchProducts 批量查询商品及关联货源摘要
func (h *Handler) BatchProducts(c *gin.Context) {
	var productIDs []int64
	if err := c.ShouldBindJSON(&productIDs); err != nil {
		response.BadRequest(c, "product_ids 格式错误")
		return
	}
	result, err := h.ProductService.BatchLookup(c.Request.Context(), productIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// UseStock 发货扣库存
func (h *Handler) UseStock(c *gin.Context) {
	var in service.UseStockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "请求数据格式错误")
		return
	}
	if err := h.ProductService.UseStock(&in); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
