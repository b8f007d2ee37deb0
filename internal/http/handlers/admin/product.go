package admin

import (
	"strconv"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/models"
	"github.com/mifaly/new-ae-server/internal/queue"
	"github.com/mifaly/new-ae-server/internal/repository"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/gin-gonic/gin"
)

// anyInitedWeight 筛选哨兵：前端传 -1 表示不过滤重量初始化状态
const anyInitedWeight int64 = -1

// ProductSearchRequest 商品列表查询请求
type ProductSearchRequest struct {
	Page         int    `json:"page"`
	PerPage      int    `json:"per_page"`
	OfferID      int64  `json:"offer_id"`
	ProductID    int64  `json:"product_id"`
	InitedWeight *int64 `json:"inited_weight"`
	Pending      *int64 `json:"pending"`
	Deleted      bool   `json:"deleted"`
}

func (r *ProductSearchRequest) toFilter() repository.ProductSearchFilter {
	filter := repository.ProductSearchFilter{
		Page:      r.Page,
		PerPage:   r.PerPage,
		OfferID:   r.OfferID,
		ProductID: r.ProductID,
		Deleted:   r.Deleted,
	}
	if r.Pending != nil && *r.Pending != anyPending {
		filter.Pending = r.Pending
	}
	if r.InitedWeight != nil && *r.InitedWeight != anyInitedWeight {
		inited := *r.InitedWeight != 0
		filter.InitedWeight = &inited
	}
	return filter
}

// SearchProducts 商品分页查询
func (h *Handler) SearchProducts(c *gin.Context) {
	var req ProductSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "查询条件格式错误")
		return
	}
	products, total, page, perPage, err := h.ProductService.Search(req.toFilter())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, perPage, total))
}

// SetProductPending 设置商品审核状态；清零时保留置顶提示
func (h *Handler) SetProductPending(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	pending, err := strconv.ParseInt(c.Param("pending"), 10, 64)
	if err != nil {
		response.BadRequest(c, "pending 必须是数字")
		return
	}
	if err := h.ProductService.SetPending(id, pending); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetProductInitedWeight 标记商品重量是否已初始化
func (h *Handler) SetProductInitedWeight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inited, err := strconv.ParseBool(c.Param("inited"))
	if err != nil {
		response.BadRequest(c, "inited 必须是布尔值")
		return
	}
	if err := h.ProductService.SetInitedWeight(id, inited); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetProductDeleted 软删除/恢复商品
func (h *Handler) SetProductDeleted(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := strconv.ParseBool(c.Param("deleted"))
	if err != nil {
		response.BadRequest(c, "deleted 必须是布尔值")
		return
	}
	if err := h.ProductService.SetDeleted(id, deleted); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ProductTipsRequest 商品提示编辑请求
type ProductTipsRequest struct {
	ID   uint   `json:"id" binding:"required"`
	Tips string `json:"tips"`
}

// SetProductTips 覆盖商品提示文本
func (h *Handler) SetProductTips(c *gin.Context) {
	var req ProductTipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "提示内容格式错误")
		return
	}
	if err := h.ProductService.SetTips(req.ID, req.Tips); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetProductOfferID 绑定商品对应的货源
func (h *Handler) SetProductOfferID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	offerID, err := strconv.ParseInt(c.Param("oid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "oid 必须是数字")
		return
	}
	if err := h.ProductService.SetOfferID(id, offerID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ClearProductStockInfo 清空商品库存明细
func (h *Handler) ClearProductStockInfo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.ProductService.ClearStockInfo(id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ProductInfoRequest 商品库存/售出明细覆盖请求
type ProductInfoRequest struct {
	ID     uint              `json:"id" binding:"required"`
	Column string            `json:"column" binding:"required"`
	Info   models.QuantityMap `json:"info"`
}

// UpdateProductInfo 覆盖库存或售出明细并重算总量
func (h *Handler) UpdateProductInfo(c *gin.Context) {
	var req ProductInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "明细数据格式错误")
		return
	}
	if err := h.ProductService.UpdateInfo(req.ID, req.Column, req.Info); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetProductDiscount 设置商品折扣，超出上限会被截断
func (h *Handler) SetProductDiscount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	discount, err := strconv.ParseInt(c.Param("discount"), 10, 64)
	if err != nil {
		response.BadRequest(c, "discount 必须是数字")
		return
	}
	if err := h.ProductService.SetDiscount(id, discount); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// PromoteDrafts 把所有草稿箱商品批量转为正常状态
func (h *Handler) PromoteDrafts(c *gin.Context) {
	promoted, err := h.ProductService.PromoteDrafts()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, promoted)
}

// ImportDailyRequest 每日流量样本导入请求
type ImportDailyRequest struct {
	Date    string                          `json:"date" binding:"required"`
	Records map[int64]service.TrafficCounts `json:"records"`
}

// ImportDaily 导入每日流量样本；队列可用时走异步任务
func (h *Handler) ImportDaily(c *gin.Context) {
	var req ImportDailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "导入数据格式错误")
		return
	}
	if h.QueueClient.Enabled() {
		payload := queue.ImportDailySamplesPayload{
			Date:    req.Date,
			Records: make(map[int64]queue.TrafficCounters, len(req.Records)),
		}
		for pid, counts := range req.Records {
			payload.Records[pid] = queue.TrafficCounters{UV: counts.UV, Sale: counts.Sale}
		}
		if err := h.QueueClient.EnqueueImportDailySamples(payload); err != nil {
			logger.Warnw("import_daily_enqueue_failed", "error", err, "fallback", "inline")
		} else {
			response.SuccessWithMsg(c, "已进入后台队列", nil)
			return
		}
	}
	if err := h.ProductService.ImportDailySamples(req.Date, req.Records); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
