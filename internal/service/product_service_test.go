package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/models"
)

func newProductServiceForTest(t *testing.T, env *testEnv) *ProductService {
	t.Helper()
	svc := NewProductService(env.products, env.offers, env.orders, testPolicy())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestProductCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	svc := newProductServiceForTest(t, env)

	snap := &ProductSnapshot{
		ProductID: 9001,
		Title:     "测试商品",
		Price:     19900,
		StockInfo: models.QuantityMap{"RED": {"M": 10, "L": 5}},
	}
	product, err := svc.Create(snap)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.Pending != constants.PendingDraft {
		t.Fatalf("新建商品应处于草稿态, 得到 %d", product.Pending)
	}
	if product.StockInfo["RED"]["M"] != 10 {
		t.Fatalf("库存明细未落库: %+v", product.StockInfo)
	}

	if _, err := svc.Create(snap); !errors.Is(err, ErrProductExists) {
		t.Fatalf("重复 product_id 应报冲突, 得到 %v", err)
	}

	// 外观字段覆盖; 已初始化的库存明细不被快照冲掉
	update := &ProductSnapshot{
		ProductID: 9001,
		Title:     "新标题",
		Price:     20900,
		StockInfo: models.QuantityMap{"BLUE": {"S": 99}},
	}
	product, err = svc.Update(update)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if product.Title != "新标题" || product.Price != 20900 {
		t.Fatalf("外观字段应被覆盖: %+v", product)
	}
	if _, ok := product.StockInfo["BLUE"]; ok {
		t.Fatalf("已初始化的库存不应被快照覆盖: %+v", product.StockInfo)
	}

	if _, err := svc.Update(&ProductSnapshot{ProductID: 404}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("不存在的商品应报 not found, 得到 %v", err)
	}
}

func TestUseStock(t *testing.T) {
	env := newTestEnv(t)
	svc := newProductServiceForTest(t, env)

	product := models.Product{
		ProductID:  9100,
		StockInfo:  models.QuantityMap{"red": {"m": 10}},
		StockCount: 10,
	}
	if err := env.products.Create(&product); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	order := models.Order{OrderID: 8100, ProductNum: 1, ItemNum: 4, Products: `{"9100":[]}`}
	if err := env.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}

	in := &UseStockInput{
		ID:        product.ID,
		SKU:       [2]string{"Red", "M"},
		Quantity:  4,
		OrderID:   8100,
		UsedStock: "RED/M x4",
	}
	if err := svc.UseStock(in); err != nil {
		t.Fatalf("use stock failed: %v", err)
	}

	reloaded, _ := env.products.GetByID(product.ID)
	if reloaded.StockInfo["RED"]["M"] != 6 {
		t.Fatalf("库存应扣到 6: %+v", reloaded.StockInfo)
	}
	if reloaded.StockCount != 6 {
		t.Fatalf("库存总量应扣到 6, 得到 %d", reloaded.StockCount)
	}
	reloadedOrder, _ := env.orders.GetByOrderID(8100)
	if reloadedOrder.UsedStock != "RED/M x4" {
		t.Fatalf("订单用料记录未落库: %q", reloadedOrder.UsedStock)
	}

	// 没有该 SKU
	in.SKU = [2]string{"BLUE", "S"}
	if err := svc.UseStock(in); !errors.Is(err, ErrMissingSKU) {
		t.Fatalf("缺失 SKU 应报错, 得到 %v", err)
	}
	// 库存不足
	in.SKU = [2]string{"RED", "M"}
	in.Quantity = 99
	if err := svc.UseStock(in); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("库存不足应报错, 得到 %v", err)
	}
}

func TestUseStockRollsBackOnMissingOrder(t *testing.T) {
	env := newTestEnv(t)
	svc := newProductServiceForTest(t, env)

	product := models.Product{
		ProductID:  9200,
		StockInfo:  models.QuantityMap{"RED": {"M": 10}},
		StockCount: 10,
	}
	if err := env.products.Create(&product); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	in := &UseStockInput{
		ID:       product.ID,
		SKU:      [2]string{"RED", "M"},
		Quantity: 4,
		OrderID:  404, // 不存在
	}
	if err := svc.UseStock(in); !errors.Is(err, ErrConsistency) {
		t.Fatalf("订单缺失应整体回滚并报一致性错误, 得到 %v", err)
	}
	reloaded, _ := env.products.GetByID(product.ID)
	if reloaded.StockCount != 10 || reloaded.StockInfo["RED"]["M"] != 10 {
		t.Fatalf("回滚后库存不应变化: count=%d info=%+v", reloaded.StockCount, reloaded.StockInfo)
	}
}

func TestImportDailySamples(t *testing.T) {
	env := newTestEnv(t)
	svc := newProductServiceForTest(t, env)

	fresh := models.Product{ProductID: 9300, CreatedAt: testNow.AddDate(0, 0, -10)}
	stale := models.Product{ProductID: 9301, CreatedAt: testNow.AddDate(0, 0, -200)}
	if err := env.products.Create(&fresh); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := env.products.Create(&stale); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	// pending 为零值时建表默认值会生效, 显式写回已确认态
	env.db.Model(&models.Product{}).
		Where("id IN ?", []uint{fresh.ID, stale.ID}).
		UpdateColumn("pending", constants.PendingClear)

	records := map[int64]TrafficCounts{
		9300: {UV: 120, Sale: 15},
		// 9301 缺席, 记零样本
	}
	if err := svc.ImportDailySamples("2026-08-30", records); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	reloaded, _ := env.products.GetByProductID(9300)
	if reloaded.UV30 != 120 || reloaded.Sales30 != 15 {
		t.Fatalf("滚动统计不符: uv30=%d sales30=%d", reloaded.UV30, reloaded.Sales30)
	}
	if len(reloaded.SaleRecord) != 1 || reloaded.SaleRecord[0].Date != "2026-08-30" {
		t.Fatalf("台账样本不符: %+v", reloaded.SaleRecord)
	}
	if reloaded.Pending == constants.PendingDraft {
		t.Fatal("新上架商品不应被打回草稿箱")
	}

	// 上架超过 180 天且 30 天访客低于阈值, 回草稿箱
	reloaded, _ = env.products.GetByProductID(9301)
	if reloaded.UV30 != 0 {
		t.Fatalf("缺席商品应记零样本, uv30=%d", reloaded.UV30)
	}
	if reloaded.Pending != constants.PendingDraft {
		t.Fatalf("低流量老商品应回草稿箱, 得到 %d", reloaded.Pending)
	}

	if err := svc.ImportDailySamples("bad-date", nil); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("非法日期应被拒绝, 得到 %v", err)
	}
}

func TestUpdateInfoAndDiscount(t *testing.T) {
	env := newTestEnv(t)
	svc := newProductServiceForTest(t, env)

	product := models.Product{ProductID: 9400}
	if err := env.products.Create(&product); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	info := models.QuantityMap{"RED": {"M": 3, "L": 4}, "BLUE": {"S": 5}}
	if err := svc.UpdateInfo(product.ID, "stock_info", info); err != nil {
		t.Fatalf("update info failed: %v", err)
	}
	reloaded, _ := env.products.GetByID(product.ID)
	if reloaded.StockCount != 12 {
		t.Fatalf("库存总量应重算为 12, 得到 %d", reloaded.StockCount)
	}

	if err := svc.UpdateInfo(product.ID, "tips", info); !errors.Is(err, ErrInvalidColumn) {
		t.Fatalf("非白名单字段应被拒绝, 得到 %v", err)
	}

	// 折扣超出上限时收敛
	if err := svc.SetDiscount(product.ID, 80); err != nil {
		t.Fatalf("set discount failed: %v", err)
	}
	reloaded, _ = env.products.GetByID(product.ID)
	if reloaded.Discount != constants.MaxProductDiscount {
		t.Fatalf("折扣应被截断到 %d, 得到 %d", constants.MaxProductDiscount, reloaded.Discount)
	}
}

func TestPromoteDrafts(t *testing.T) {
	env := newTestEnv(t)
	svc := newProductServiceForTest(t, env)

	draft := models.Product{ProductID: 9500, Pending: constants.PendingDraft}
	review := models.Product{ProductID: 9501, Pending: constants.PendingNeedsReview}
	if err := env.products.Create(&draft); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := env.products.Create(&review); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	promoted, err := svc.PromoteDrafts()
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if promoted != 1 {
		t.Fatalf("应只提升草稿商品, 得到 %d", promoted)
	}
	reloaded, _ := env.products.GetByProductID(9501)
	if reloaded.Pending != constants.PendingNeedsReview {
		t.Fatalf("待复核商品不应被动, 得到 %d", reloaded.Pending)
	}
}
