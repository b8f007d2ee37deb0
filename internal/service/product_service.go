package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/cache"
	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/ledger"
	"github.com/mifaly/new-ae-server/internal/models"
	"github.com/mifaly/new-ae-server/internal/repository"
	"github.com/mifaly/new-ae-server/internal/tips"
)

const batchLookupCacheTTL = time.Minute

// ProductService 商品业务服务：新建、快照更新、库存扣减、
// 日流量导入和各类运营操作
type ProductService struct {
	products repository.ProductRepository
	offers   repository.OfferRepository
	orders   repository.OrderRepository
	policy   config.PolicyConfig
	now      func() time.Time
}

// NewProductService 创建商品服务
func NewProductService(products repository.ProductRepository, offers repository.OfferRepository, orders repository.OrderRepository, policy config.PolicyConfig) *ProductService {
	return &ProductService{
		products: products,
		offers:   offers,
		orders:   orders,
		policy:   policy,
		now:      time.Now,
	}
}

// ProductSnapshot 采集端上报的商品快照
type ProductSnapshot struct {
	ProductID int64              `json:"product_id" binding:"required"`
	Title     string             `json:"title"`
	Cover     string             `json:"cover"`
	Price     int64              `json:"price"`
	StockInfo models.QuantityMap `json:"stock_info"` // 颜色 -> 尺码 -> 数量
	ModelID   string             `json:"model_id"`
}

// Create 从首个快照新建商品
func (s *ProductService) Create(snap *ProductSnapshot) (*models.Product, error) {
	exists, err := s.products.ExistsByProductID(snap.ProductID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrProductExists
	}

	product := models.Product{
		ProductID: snap.ProductID,
		Title:     snap.Title,
		Cover:     snap.Cover,
		Price:     snap.Price,
		ModelID:   snap.ModelID,
		StockInfo: snap.StockInfo,
		// 售出明细只借用库存结构当键的骨架，总量从 0 开始累计
		SaleInfo:   models.QuantityMap(ledger.Quantities(snap.StockInfo).Clone()),
		SaleRecord: ledger.ProductLedger{},
		Pending:    constants.PendingDraft,
	}
	if err := s.products.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 快照更新：外观字段直接覆盖；库存/售出结构只在尚未初始化时播种，
// 之后只能通过专门的库存操作修改
func (s *ProductService) Update(snap *ProductSnapshot) (*models.Product, error) {
	product, err := s.products.GetByProductID(snap.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}

	product.Title = snap.Title
	product.Cover = snap.Cover
	product.Price = snap.Price
	product.ModelID = snap.ModelID
	if len(product.StockInfo) == 0 && len(snap.StockInfo) > 0 {
		product.StockInfo = snap.StockInfo
		product.SaleInfo = models.QuantityMap(ledger.Quantities(snap.StockInfo).Clone())
	}
	product.UpdatedAt = s.now()

	rows, err := s.products.Save(product)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNothingChanged
	}
	return product, nil
}

// Get 根据平台商品ID获取
func (s *ProductService) Get(productID int64) (*models.Product, error) {
	product, err := s.products.GetByProductID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// OfferSummary 批量查询里挂在商品下的货源摘要
type OfferSummary struct {
	OfferID        int64  `json:"offer_id"`
	BetterPrice    int64  `json:"better_price"`
	ModelID        string `json:"model_id"`
	Supplier       string `json:"supplier"`
	Del            string `json:"del"`
	SkuPropsColors string `json:"sku_props_colors"`
}

// ProductWithOffers 商品及其关联货源摘要
type ProductWithOffers struct {
	Product models.Product `json:"product"`
	Offers  []OfferSummary `json:"offers"`
}

// BatchLookup 批量查询商品及其货源摘要，结果走短期缓存。
// id 数量超过上限时直接返回空结果。
func (s *ProductService) BatchLookup(ctx context.Context, productIDs []int64) (map[int64]ProductWithOffers, error) {
	if len(productIDs) == 0 || len(productIDs) > constants.BatchLookupLimit {
		return map[int64]ProductWithOffers{}, nil
	}

	key := batchLookupCacheKey(productIDs)
	cached := map[int64]ProductWithOffers{}
	if hit, err := cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	offers, err := s.offers.ListByProductIDs(productIDs)
	if err != nil {
		return nil, err
	}
	summaries := make(map[int64][]OfferSummary, len(offers))
	for _, offer := range offers {
		del := ""
		if offer.DeletedAt.Valid {
			del = "❌"
		}
		summaries[offer.ProductID] = append(summaries[offer.ProductID], OfferSummary{
			OfferID:        offer.OfferID,
			BetterPrice:    offer.BetterPrice,
			ModelID:        offer.ModelID,
			Supplier:       offer.Supplier,
			Del:            del,
			SkuPropsColors: skuPropsColors(offer.SkuInfoUse),
		})
	}

	products, err := s.products.ListByProductIDs(productIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[int64]ProductWithOffers, len(products))
	for _, product := range products {
		result[product.ProductID] = ProductWithOffers{
			Product: product,
			Offers:  summaries[product.ProductID],
		}
	}

	_ = cache.SetJSON(ctx, key, result, batchLookupCacheTTL)
	return result, nil
}

func batchLookupCacheKey(productIDs []int64) string {
	sorted := make([]int64, len(productIDs))
	copy(sorted, productIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "products:batch:" + strings.Join(parts, ",")
}

// skuPropsColors 从 SKU 原始数据里摘出第一组属性（颜色）的取值串
func skuPropsColors(skuInfo string) string {
	var payload struct {
		SkuProps []struct {
			Value json.RawMessage `json:"value"`
		} `json:"skuProps"`
	}
	if err := json.Unmarshal([]byte(skuInfo), &payload); err != nil {
		return ""
	}
	if len(payload.SkuProps) == 0 {
		return ""
	}
	return string(payload.SkuProps[0].Value)
}

// UseStockInput 发货扣库存请求
type UseStockInput struct {
	ID        uint      `json:"id" binding:"required"`
	SKU       [2]string `json:"sku"`
	Quantity  int64     `json:"quantity" binding:"required"`
	OrderID   int64     `json:"order_id" binding:"required"`
	UsedStock string    `json:"stk"`
}

// UseStock 发货扣减库存。
// SKU 键统一大写后查找；库存扣减和订单的用料记录在同一个事务里落库。
func (s *ProductService) UseStock(in *UseStockInput) error {
	product, err := s.products.GetByID(in.ID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}

	d1 := strings.ToUpper(in.SKU[0])
	d2 := strings.ToUpper(in.SKU[1])
	stock := upperKeys(product.StockInfo)
	remaining, ok := stock[d1][d2]
	if !ok {
		return ErrMissingSKU
	}
	if remaining < in.Quantity {
		return ErrInsufficientStock
	}
	stock[d1][d2] = remaining - in.Quantity
	stockCount := product.StockCount - in.Quantity

	return s.products.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orders.WithTx(tx).UpdateColumnsByOrderID(in.OrderID,
			map[string]interface{}{"used_stock": in.UsedStock})
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("orders%w", ErrConsistency)
		}
		rows, err = s.products.WithTx(tx).UpdateColumns(product.ID, map[string]interface{}{
			"stock_count": stockCount,
			"stock_info":  stock,
			"updated_at":  s.now(),
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("products%w", ErrConsistency)
		}
		return nil
	})
}

// upperKeys 两级键全部归一化成大写，上游采集的大小写并不一致
func upperKeys(m models.QuantityMap) models.QuantityMap {
	normalized := make(models.QuantityMap, len(m))
	for d1, inner := range m {
		u1 := strings.ToUpper(d1)
		if normalized[u1] == nil {
			normalized[u1] = make(map[string]int64, len(inner))
		}
		for d2, count := range inner {
			normalized[u1][strings.ToUpper(d2)] += count
		}
	}
	return normalized
}

// TrafficCounts 某商品一天的访客/成交数
type TrafficCounts struct {
	UV   int64 `json:"uv"`
	Sale int64 `json:"sale"`
}

// ImportDailySamples 导入一天的全店流量数据。
// 没出现在导入数据里的商品记当天零样本；上架够久且流量过低的回草稿箱；
// 最后清掉超过保留期的软删除商品。
func (s *ProductService) ImportDailySamples(date string, records map[int64]TrafficCounts) error {
	if _, err := time.Parse(ledger.DateLayout, date); err != nil {
		return ErrInvalidSnapshot
	}
	now := s.now()
	analysisBefore := now.AddDate(0, 0, -s.policy.AnalysisBeforeDays)

	var currentID uint
	for {
		batch, err := s.products.ListActiveAfterID(currentID, 50)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			product := &batch[i]
			currentID = product.ID

			sample := ledger.TrafficSample{Date: date}
			if counts, ok := records[product.ProductID]; ok {
				sample.UV = counts.UV
				sample.Sale = counts.Sale
			}
			product.SaleRecord.AppendOrMerge(sample)
			uv30, sales30 := product.SaleRecord.Rolling30()

			values := map[string]interface{}{
				"uv30":        uv30,
				"sales30":     sales30,
				"sale_record": product.SaleRecord,
				"updated_at":  now,
			}
			if product.CreatedAt.Before(analysisBefore) && uv30 < s.policy.UnpublishBarrierUV30 {
				values["pending"] = constants.PendingDraft
			}
			if _, err := s.products.UpdateColumns(product.ID, values); err != nil {
				return err
			}
		}
	}

	cutoff := now.AddDate(0, 0, -s.policy.RetentionDays)
	_, err := s.products.PurgeDeletedBefore(cutoff)
	return err
}

// SetPending 运营设置审核状态，置为已确认时只保留粘性提示
func (s *ProductService) SetPending(id uint, pending int64) error {
	values := map[string]interface{}{"pending": pending}
	if pending == constants.PendingClear {
		product, err := s.products.GetByID(id)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrNotFound
		}
		values["tips"] = tips.Parse(product.Tips).OnClear().String()
	}
	rows, err := s.products.UpdateColumns(id, values)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetInitedWeight 标记重量是否已人工确认
func (s *ProductService) SetInitedWeight(id uint, inited bool) error {
	rows, err := s.products.UpdateColumns(id, map[string]interface{}{"inited_weight": inited})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetDeleted 软删除 / 恢复
func (s *ProductService) SetDeleted(id uint, deleted bool) error {
	var values map[string]interface{}
	if deleted {
		values = map[string]interface{}{"deleted_at": s.now()}
	} else {
		values = map[string]interface{}{"deleted_at": nil}
	}
	rows, err := s.products.UpdateColumns(id, values)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetTips 运营直接改写提示串
func (s *ProductService) SetTips(id uint, tipsText string) error {
	rows, err := s.products.UpdateColumns(id, map[string]interface{}{"tips": tipsText})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetOfferID 关联货源
func (s *ProductService) SetOfferID(id uint, offerID int64) error {
	rows, err := s.products.UpdateColumns(id, map[string]interface{}{"offer_id": offerID})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// ClearStockInfo 清空库存明细
func (s *ProductService) ClearStockInfo(id uint) error {
	rows, err := s.products.UpdateColumns(id, map[string]interface{}{
		"stock_info": models.QuantityMap{},
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// UpdateInfo 整体替换库存或售出明细，并重算对应总量
func (s *ProductService) UpdateInfo(id uint, column string, info models.QuantityMap) error {
	var countColumn string
	switch column {
	case constants.ProductColumnSaleInfo:
		countColumn = "sale_count"
	case constants.ProductColumnStockInfo:
		countColumn = "stock_count"
	default:
		return ErrInvalidColumn
	}
	rows, err := s.products.UpdateColumns(id, map[string]interface{}{
		column:      info,
		countColumn: info.Total(),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// SetDiscount 设置运营折扣，超出上限时收敛到上限
func (s *ProductService) SetDiscount(id uint, discount int64) error {
	if discount > constants.MaxProductDiscount {
		discount = constants.MaxProductDiscount
	}
	rows, err := s.products.UpdateColumns(id, map[string]interface{}{"discount": discount})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNothingChanged
	}
	return nil
}

// PromoteDrafts 把所有草稿商品置为已确认
func (s *ProductService) PromoteDrafts() (int64, error) {
	return s.products.PromoteDrafts()
}

// Search 分页查询
func (s *ProductService) Search(filter repository.ProductSearchFilter) ([]models.Product, int64, int, int, error) {
	return s.products.Search(filter)
}
