package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/ledger"
	"github.com/mifaly/new-ae-server/internal/models"
	"github.com/mifaly/new-ae-server/internal/repository"
	"github.com/mifaly/new-ae-server/internal/tips"
)

// OfferService 货源业务服务：新建、快照对账、抓取游标和运营操作
type OfferService struct {
	offers   repository.OfferRepository
	products repository.ProductRepository
	policy   config.PolicyConfig
	now      func() time.Time
}

// NewOfferService 创建货源服务
func NewOfferService(offers repository.OfferRepository, products repository.ProductRepository, policy config.PolicyConfig) *OfferService {
	return &OfferService{
		offers:   offers,
		products: products,
		policy:   policy,
		now:      time.Now,
	}
}

// OfferSnapshot 采集端上报的货源快照
type OfferSnapshot struct {
	OfferID         int64             `json:"offer_id" binding:"required"`
	Title           string            `json:"title"`
	Cover           string            `json:"cover"`
	WirelessVideoID int64             `json:"wireless_video_id"`
	DetailVideoID   int64             `json:"detail_video_id"`
	ModelID         string            `json:"model_id"`
	SaleInfo        ledger.Quantities `json:"sale_info"` // 各维度 can-book 剩余量
	Price           int64             `json:"price"`
	BetterPrice     int64             `json:"better_price"`
	SkuInfo         string            `json:"sku_info"`
	DetailURL       string            `json:"detail_url"`
	Supplier        string            `json:"supplier"`
	StoreURL        string            `json:"store_url"`
	PromotionEnd    *time.Time        `json:"promotion_end"`
}

// Create 从首个快照新建货源。
// 采购价按倍率上浮一次，此后不再自动改价。
func (s *OfferService) Create(snap *OfferSnapshot) (*models.Offer, error) {
	if snap.Price <= 0 {
		return nil, ErrPriceInvalid
	}
	exists, err := s.offers.ExistsByOfferID(snap.OfferID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrOfferExists
	}

	price := decimal.NewFromInt(snap.Price).
		Mul(decimal.NewFromFloat(s.policy.OfferPriceRate)).IntPart()

	offer := models.Offer{
		OfferID:         snap.OfferID,
		ProductID:       0,
		Sale30:          0,
		Discount:        (price - snap.BetterPrice) * 100 / price,
		SaleInfo:        models.QuantityMap(snap.SaleInfo.Zeroed()),
		SkuInfoUse:      snap.SkuInfo,
		DetailURLUse:    snap.DetailURL,
		Pending:         constants.PendingDraft,
		Tips:            tips.List{}.AppendSticky("草稿箱").String(),
		Title:           snap.Title,
		Cover:           snap.Cover,
		WirelessVideoID: snap.WirelessVideoID,
		DetailVideoID:   snap.DetailVideoID,
		ModelID:         snap.ModelID,
		Price:           price,
		BetterPrice:     snap.BetterPrice,
		SkuInfo:         snap.SkuInfo,
		DetailURL:       snap.DetailURL,
		Supplier:        snap.Supplier,
		StoreURL:        snap.StoreURL,
		PromotionEnd:    snap.PromotionEnd,
	}
	offer.SaleRecord.AppendOrMerge(ledger.Today(s.now()), 0)
	offer.SaleRecord.Snapshot = snap.SaleInfo.Clone()

	if err := s.offers.Create(&offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// Reconcile 用新快照对账一个已有货源并持久化，返回更新后的实体
func (s *OfferService) Reconcile(snap *OfferSnapshot) (*models.Offer, error) {
	offer, err := s.offers.GetByOfferID(snap.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrNotFound
	}

	s.applySnapshot(offer, snap)

	rows, err := s.offers.Save(offer)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNothingChanged
	}
	return offer, nil
}

// applySnapshot 对账算法本体，纯内存计算
func (s *OfferService) applySnapshot(offer *models.Offer, snap *OfferSnapshot) {
	now := s.now()
	today := ledger.Today(now)
	list := tips.Parse(offer.Tips)
	changed := false

	// 外观字段直接覆盖
	offer.Title = snap.Title
	offer.Cover = snap.Cover

	if offer.DetailVideoID != snap.DetailVideoID {
		offer.DetailVideoID = snap.DetailVideoID
		list = list.Append("详情视频变更")
		changed = true
	}
	if offer.WirelessVideoID != snap.WirelessVideoID {
		offer.WirelessVideoID = snap.WirelessVideoID
		list = list.Append("无线视频变更")
		changed = true
	}
	if snap.ModelID != "" && offer.ModelID != snap.ModelID {
		offer.ModelID = snap.ModelID
		list = list.Append("货号变更")
		changed = true
	}

	// 差分基准是上次被采纳的剩余量快照；首次对账时用本次快照兜底（差值全 0）
	previous := offer.SaleRecord.Snapshot
	if len(previous) == 0 {
		previous = snap.SaleInfo
	}
	if !offer.SaleRecord.SampledToday(today) {
		if offer.SaleInfo == nil {
			offer.SaleInfo = models.QuantityMap{}
		}
		cumulative := ledger.Quantities(offer.SaleInfo)
		var saleToday int64
		for _, dimension := range ledger.Dimensions {
			deltas := ledger.TrustedDeltas(
				previous.Dimension(dimension),
				snap.SaleInfo.Dimension(dimension),
				ledger.ClampFor(dimension),
			)
			cumulative.Accumulate(dimension, deltas)
			if dimension == constants.DimensionDetail {
				for _, delta := range deltas {
					saleToday += delta
				}
			}
		}
		offer.SaleRecord.AppendOrMerge(today, saleToday)
	}
	// 无论是否计入销量，基准都推进到本次快照
	offer.SaleRecord.Snapshot = snap.SaleInfo.Clone()

	offer.Sale30 = offer.SaleRecord.RollingSum(constants.SaleWindow30)
	sale60 := offer.SaleRecord.RollingSum(constants.SaleWindow60)

	// 上架够久且两个月销量还卖不过 sku 数，提示下架。
	// sku 数取累计销量里的明细键，下架过的变体也算在内
	skuCount := len(ledger.Quantities(offer.SaleInfo).Dimension(constants.DimensionDetail))
	checkAfter := time.Duration(s.policy.CheckOfferSalesAfterDays) * 24 * time.Hour
	if now.Sub(offer.CreatedAt) > checkAfter && sale60 < int64(skuCount) {
		list = list.Append("销量低下架否?")
		changed = true
	}

	offer.DetailURL = snap.DetailURL

	// price 不自动更新，只在 better_price 变化时重算折扣
	if offer.BetterPrice != snap.BetterPrice {
		oldDiscount := offer.Discount
		offer.BetterPrice = snap.BetterPrice
		offer.Discount = (offer.Price - offer.BetterPrice) * 100 / offer.Price
		list = list.Append(fmt.Sprintf("%d => %d 折扣价变更", oldDiscount, offer.Discount))
		changed = true
	}
	if snap.BetterPrice > offer.Price {
		list = list.Append("手动提价！！")
		changed = true
	}

	// 与上次运营确认过的基线比对，已标记过的变更不重复标记
	if offer.SkuInfoUse != snap.SkuInfo {
		offer.SkuInfo = snap.SkuInfo
		list = list.Append("SKU变更")
		changed = true
	}
	if offer.DetailURLUse != snap.DetailURL {
		offer.DetailURL = snap.DetailURL
		list = list.Append("详情链接变更")
		changed = true
	}

	offer.Supplier = snap.Supplier
	offer.StoreURL = snap.StoreURL
	offer.PromotionEnd = snap.PromotionEnd
	offer.UpdatedAt = now

	offer.Tips = list.String()
	if changed {
		offer.Pending = tips.MarkChanged(offer.Pending)
	}
}

// AdviseStockEntry 单个 SKU 的备货建议
type AdviseStockEntry struct {
	Advise float64 `json:"advise"` // 建议备货量
	Stock  float64 `json:"stock"`  // 当前库存
	Gap    float64 `json:"gap"`    // 建议减库存的差额
}

// AdviseStock 颜色 -> 尺码 -> 备货建议
type AdviseStock map[string]map[string]AdviseStockEntry

// OfferDetail 货源详情，附关联商品推算出的备货建议
type OfferDetail struct {
	models.Offer
	AdviseStock AdviseStock `json:"advise_stock"`
}

// Get 获取货源，若已关联商品则按其销量推算备货建议
func (s *OfferService) Get(offerID int64) (*OfferDetail, error) {
	offer, err := s.offers.GetByOfferID(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrNotFound
	}
	detail := &OfferDetail{Offer: *offer}

	product, err := s.products.GetByProductID(offer.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return detail, nil
	}

	// 以已卖出分布为权重，把建议总备货量摊到每个 SKU
	adviseTotal := float64(product.Sales30) * s.policy.Sale2Stock
	advise := make(AdviseStock, len(product.SaleInfo))
	for color, sizes := range product.SaleInfo {
		advise[color] = make(map[string]AdviseStockEntry, len(sizes))
		for size, sold := range sizes {
			entry := AdviseStockEntry{}
			if product.SaleCount > 0 {
				entry.Advise = float64(sold) * adviseTotal / float64(product.SaleCount)
				entry.Stock = float64(product.StockInfo[color][size])
				entry.Gap = entry.Advise - entry.Stock
			}
			advise[color][strings.ToUpper(size)] = entry
		}
	}
	detail.AdviseStock = advise
	return detail, nil
}

// NextRefreshURL 下一个待抓取的货源地址。
// 全部刷新完毕时顺手清掉过期的软删除货源，并返回 ErrAllDone。
func (s *OfferService) NextRefreshURL() (string, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offer, err := s.offers.NextStale(startOfDay)
	if err != nil {
		return "", err
	}
	if offer == nil {
		cutoff := startOfDay.AddDate(0, 0, -s.policy.RetentionDays)
		if _, err := s.offers.PurgeDeletedBefore(cutoff); err != nil {
			return "", err
		}
		return "", ErrAllDone
	}
	if s.policy.OfferURLPattern == "" {
		return "", ErrNoURLPattern
	}
	return strings.Replace(s.policy.OfferURLPattern, "{OFFER_ID}",
		strconv.FormatInt(offer.OfferID, 10), 1), nil
}

// SetPending 运营设置审核状态。
// 置为已确认时只保留粘性提示，并把变更检测基线推进到当前值。
func (s *OfferService) SetPending(id uint, pending int64) error {
	if pending == constants.PendingClear {
		offer, err := s.offers.GetByID(id)
		if err != nil {
			return err
		}
		if offer == nil {
			return ErrNotFound
		}
		kept := tips.Parse(offer.Tips).OnClear().String()
		rows, err := s.offers.ClearPending(id, kept)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNothingChanged
		}
		return nil
	}
	rows, err := s.offers.UpdateColumns(id, map[string]interface{}{"pending": pending})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetDeleted 软删除 / 恢复
func (s *OfferService) SetDeleted(id uint, deleted bool) error {
	var values map[string]interface{}
	if deleted {
		values = map[string]interface{}{"deleted_at": s.now()}
	} else {
		values = map[string]interface{}{"deleted_at": nil}
	}
	rows, err := s.offers.UpdateColumns(id, values)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetTips 运营直接改写提示串
func (s *OfferService) SetTips(id uint, tipsText string) error {
	rows, err := s.offers.UpdateColumns(id, map[string]interface{}{"tips": tipsText})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetProductID 关联商品
func (s *OfferService) SetProductID(id uint, productID int64) error {
	rows, err := s.offers.UpdateColumns(id, map[string]interface{}{"product_id": productID})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetModelID 设置货号
func (s *OfferService) SetModelID(id uint, modelID string) error {
	rows, err := s.offers.UpdateColumns(id, map[string]interface{}{"model_id": modelID})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// Search 分页查询
func (s *OfferService) Search(filter repository.OfferSearchFilter) ([]models.Offer, int64, int, int, error) {
	return s.offers.Search(filter)
}

// 仅有一条折扣变更提示时的 tips 形态
var discountOnlyTips = regexp.MustCompile(`^\d{1,2} => \d{1,2} 折扣价变更;$`)

// AcknowledgeDiscountChanges 批量确认：唯一待复核原因是折扣变更的货源直接清零
func (s *OfferService) AcknowledgeDiscountChanges() (int64, error) {
	offers, err := s.offers.ListActiveByPending(constants.PendingNeedsReview)
	if err != nil {
		return 0, err
	}
	ids := make([]uint, 0, len(offers))
	for _, offer := range offers {
		if discountOnlyTips.MatchString(offer.Tips) {
			ids = append(ids, offer.ID)
		}
	}
	return s.offers.ResetPendingTips(ids)
}
