package public

import (
	"strconv"

	"github.com/mifaly/new-ae-server/internal/http/response"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOffer 新建货源
func (h *Handler) CreateOffer(c *gin.Context) {
	var snap service.OfferSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.BadRequest(c, "快照数据格式错误")
		return
	}
	offer, err := h.OfferService.Create(&snap)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, offer.ID)
}

// ReconcileOffer 用新快照对账货源
func (h *Handler) ReconcileOffer(c *gin.Context) {
	var snap service.OfferSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.BadRequest(c, "快照数据格式错误")
		return
	}
	offer, err := h.OfferService.Reconcile(&snap)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, offer)
}

// GetOffer 货源详情（附备货建议）
func (h *Handler) GetOffer(c *gin.Context) {
	offerID, err := strconv.ParseInt(c.Param("offer_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "offer_id 必须是数字")
		return
	}
	detail, err := h.OfferService.Get(offerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, detail)
}

// NextOffer 下一个待抓取的货源地址
func (h *Handler) NextOffer(c *gin.Context) {
	url, err := h.OfferService.NextRefreshURL()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, url)
}
