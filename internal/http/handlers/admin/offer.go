package admin

import (
	"strconv"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/repository"

	"github.com/gin-gonic/gin"
)

// anyPending 筛选哨兵：前端传 999 表示不过滤审核状态
const anyPending int64 = 999

// OfferSearchRequest 货源列表查询请求
type OfferSearchRequest struct {
	Page      int    `json:"page"`
	PerPage   int    `json:"per_page"`
	OfferID   int64  `json:"offer_id"`
	ProductID int64  `json:"product_id"`
	ModelID   string `json:"model_id"`
	Supplier  string `json:"supplier"`
	Pending   *int64 `json:"pending"`
	Deleted   bool   `json:"deleted"`
}

func (r *OfferSearchRequest) toFilter() repository.OfferSearchFilter {
	filter := repository.OfferSearchFilter{
		Page:      r.Page,
		PerPage:   r.PerPage,
		OfferID:   r.OfferID,
		ProductID: r.ProductID,
		ModelID:   r.ModelID,
		Supplier:  r.Supplier,
		Deleted:   r.Deleted,
	}
	if r.Pending != nil && *r.Pending != anyPending {
		filter.Pending = r.Pending
	}
	return filter
}

// SearchOffers 货源分页查询
func (h *Handler) SearchOffers(c *gin.Context) {
	var req OfferSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "查询条件格式错误")
		return
	}
	offers, total, page, perPage, err := h.OfferService.Search(req.toFilter())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, offers, response.NewPagination(page, perPage, total))
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "id 必须是数字")
		return 0, false
	}
	return uint(id), true
}

// SetOfferPending 设置货源审核状态；清零时会保留置顶提示并推进比对基线
func (h *Handler) SetOfferPending(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	pending, err := strconv.ParseInt(c.Param("pending"), 10, 64)
	if err != nil {
		response.BadRequest(c, "pending 必须是数字")
		return
	}
	if err := h.OfferService.SetPending(id, pending); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetOfferDeleted 软删除/恢复货源
func (h *Handler) SetOfferDeleted(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := strconv.ParseBool(c.Param("deleted"))
	if err != nil {
		response.BadRequest(c, "deleted 必须是布尔值")
		return
	}
	if err := h.OfferService.SetDeleted(id, deleted); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// OfferTipsRequest 货源提示编辑请求
type OfferTipsRequest struct {
	ID   uint   `json:"id" binding:"required"`
	Tips string `json:"tips"`
}

// SetOfferTips 覆盖货源提示文本
func (h *Handler) SetOfferTips(c *gin.Context) {
	var req OfferTipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "提示内容格式错误")
		return
	}
	if err := h.OfferService.SetTips(req.ID, req.Tips); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetOfferProductID 绑定货源对应的商品
func (h *Handler) SetOfferProductID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "pid 必须是数字")
		return
	}
	if err := h.OfferService.SetProductID(id, productID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// SetOfferModelID 设置货源的型号编码
func (h *Handler) SetOfferModelID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.OfferService.SetModelID(id, c.Param("mid")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// AcknowledgeDiscountChanges 批量清掉只剩折扣变更一条提示的货源
func (h *Handler) AcknowledgeDiscountChanges(c *gin.Context) {
	cleared, err := h.OfferService.AcknowledgeDiscountChanges()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cleared)
}
