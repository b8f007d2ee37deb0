package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/ledger"
	"github.com/mifaly/new-ae-server/internal/models"
)

func testPolicy() config.PolicyConfig {
	return config.PolicyConfig{
		OfferPriceRate:           1.5,
		CheckOfferSalesAfterDays: 90,
		Sale2Stock:               0.67,
		WeightRatio:              1000,
		NeedUpdateWeight:         32,
		UnpublishBarrierUV30:     10,
		AnalysisBeforeDays:       180,
		RetentionDays:            180,
		OfferURLPattern:          "https://detail.example.com/offer/{OFFER_ID}.html",
		LgOrderURLPattern:        "https://track.example.com/{LG_ORDER_ID}",
	}
}

func newOfferServiceForTest(t *testing.T, env *testEnv) *OfferService {
	t.Helper()
	svc := NewOfferService(env.offers, env.products, testPolicy())
	svc.now = func() time.Time { return testNow }
	return svc
}

func baseSnapshot() *OfferSnapshot {
	return &OfferSnapshot{
		OfferID:     100,
		Title:       "测试货源",
		Price:       100,
		BetterPrice: 60,
		SkuInfo:     `{"skuProps":[{"value":["红色"]}]}`,
		DetailURL:   "https://detail.example.com/100",
		Supplier:    "supplier-a",
		SaleInfo: ledger.Quantities{
			"color":  {"RED": 10},
			"size":   {"M": 10},
			"detail": {"RED-M": 10},
		},
	}
}

func TestOfferCreate(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	offer, err := svc.Create(baseSnapshot())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if offer.Price != 150 {
		t.Fatalf("采购价应按倍率上浮到 150, 得到 %d", offer.Price)
	}
	if offer.Discount != (150-60)*100/150 {
		t.Fatalf("折扣计算错误: %d", offer.Discount)
	}
	if offer.Pending != constants.PendingDraft {
		t.Fatalf("新建货源应处于草稿态, 得到 %d", offer.Pending)
	}
	if offer.Tips != "!草稿箱;" {
		t.Fatalf("新建货源应带粘性草稿提示, 得到 %q", offer.Tips)
	}
	if offer.SaleInfo["color"]["RED"] != 0 {
		t.Fatalf("累计销量应从 0 起步: %+v", offer.SaleInfo)
	}
	if len(offer.SaleRecord.Samples) != 1 || offer.SaleRecord.Samples[0].Count != 0 {
		t.Fatalf("台账应以当天零样本起步: %+v", offer.SaleRecord.Samples)
	}
	if offer.SaleRecord.Snapshot["color"]["RED"] != 10 {
		t.Fatalf("差分基准应为本次快照: %+v", offer.SaleRecord.Snapshot)
	}

	if _, err := svc.Create(baseSnapshot()); !errors.Is(err, ErrOfferExists) {
		t.Fatalf("重复 offer_id 应报冲突, 得到 %v", err)
	}

	bad := baseSnapshot()
	bad.OfferID = 101
	bad.Price = 0
	if _, err := svc.Create(bad); !errors.Is(err, ErrPriceInvalid) {
		t.Fatalf("价格为 0 应被拒绝, 得到 %v", err)
	}
}

func TestOfferReconcileDeltas(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)
	if _, err := svc.Create(baseSnapshot()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 第二天剩余量从 10 降到 4, 可信销量 6
	svc.now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	snap := baseSnapshot()
	snap.SaleInfo = ledger.Quantities{
		"color":  {"RED": 4},
		"size":   {"M": 4},
		"detail": {"RED-M": 4},
	}
	offer, err := svc.Reconcile(snap)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if offer.SaleInfo["detail"]["RED-M"] != 6 || offer.SaleInfo["color"]["RED"] != 6 {
		t.Fatalf("累计销量应为 6: %+v", offer.SaleInfo)
	}
	if offer.Sale30 != 6 {
		t.Fatalf("sale30 应为 6, 得到 %d", offer.Sale30)
	}
	if len(offer.SaleRecord.Samples) != 2 || offer.SaleRecord.Samples[0].Count != 6 {
		t.Fatalf("当天样本应为 6: %+v", offer.SaleRecord.Samples)
	}
	// 没有触发任何标注事件, 状态和提示不动
	if offer.Pending != constants.PendingDraft || offer.Tips != "!草稿箱;" {
		t.Fatalf("无变更事件时状态不应变动: pending=%d tips=%q", offer.Pending, offer.Tips)
	}

	// 同一天重复对账: 不再计销量, 但基准照样推进
	snap2 := baseSnapshot()
	snap2.SaleInfo = ledger.Quantities{
		"color":  {"RED": 1},
		"size":   {"M": 1},
		"detail": {"RED-M": 1},
	}
	offer, err = svc.Reconcile(snap2)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if len(offer.SaleRecord.Samples) != 2 || offer.SaleRecord.Samples[0].Count != 6 {
		t.Fatalf("同日重复对账不应累计销量: %+v", offer.SaleRecord.Samples)
	}
	if offer.SaleRecord.Snapshot["color"]["RED"] != 1 {
		t.Fatalf("同日重复对账也应推进基准: %+v", offer.SaleRecord.Snapshot)
	}

	// 第三天相对推进后的基准计算差值
	svc.now = func() time.Time { return testNow.AddDate(0, 0, 2) }
	snap3 := baseSnapshot()
	snap3.SaleInfo = ledger.Quantities{
		"color":  {"RED": 0},
		"size":   {"M": 0},
		"detail": {"RED-M": 0},
	}
	offer, err = svc.Reconcile(snap3)
	if err != nil {
		t.Fatalf("third reconcile failed: %v", err)
	}
	if offer.SaleRecord.Samples[0].Count != 1 {
		t.Fatalf("第三天销量应为 1, 得到 %+v", offer.SaleRecord.Samples)
	}
}

func TestOfferReconcileAnnotations(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	seed := models.Offer{
		OfferID:      200,
		ProductID:    1,
		Price:        150,
		BetterPrice:  60,
		Discount:     60,
		SkuInfo:      "old-sku",
		SkuInfoUse:   "old-sku",
		DetailURL:    "https://d/200",
		DetailURLUse: "https://d/200",
		Pending:      constants.PendingClear,
		CreatedAt:    testNow,
	}
	if err := env.offers.Create(&seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	// pending 为零值时建表默认值会生效, 显式写回已确认态
	env.db.Model(&models.Offer{}).Where("id = ?", seed.ID).
		UpdateColumn("pending", constants.PendingClear)

	snap := &OfferSnapshot{
		OfferID:     200,
		Price:       100,
		BetterPrice: 40,
		SkuInfo:     "new-sku",
		DetailURL:   "https://d/200",
		SaleInfo:    ledger.Quantities{"detail": {}},
	}
	offer, err := svc.Reconcile(snap)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	// 采购价不自动变, 折扣按新的同行价重算
	if offer.Price != 150 {
		t.Fatalf("对账不应改采购价, 得到 %d", offer.Price)
	}
	wantDiscount := (int64(150) - 40) * 100 / 150
	if offer.Discount != wantDiscount {
		t.Fatalf("折扣应重算为 %d, 得到 %d", wantDiscount, offer.Discount)
	}
	wantTips := "60 => 73 折扣价变更;SKU变更;"
	if offer.Tips != wantTips {
		t.Fatalf("提示不符: got %q want %q", offer.Tips, wantTips)
	}
	if offer.Pending != constants.PendingNeedsReview {
		t.Fatalf("标注事件应把已确认状态置回待复核, 得到 %d", offer.Pending)
	}
	// sku 当前值已更新, 但基线保持, 留给运营确认
	if offer.SkuInfo != "new-sku" || offer.SkuInfoUse != "old-sku" {
		t.Fatalf("sku 基线处理错误: %q / %q", offer.SkuInfo, offer.SkuInfoUse)
	}
}

func TestOfferReconcileManualRaiseTip(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)
	if _, err := svc.Create(baseSnapshot()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	snap := baseSnapshot()
	snap.BetterPrice = 200 // 高于我们的售价 150
	offer, err := svc.Reconcile(snap)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	wantTips := "!草稿箱;60 => -33 折扣价变更;手动提价！！;"
	if offer.Tips != wantTips {
		t.Fatalf("提价提示不符: got %q want %q", offer.Tips, wantTips)
	}
}

func TestOfferLowSalesTip(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	seed := models.Offer{
		OfferID:     300,
		Price:       150,
		BetterPrice: 60,
		Pending:     constants.PendingClear,
		CreatedAt:   testNow.AddDate(0, 0, -100),
	}
	if err := env.offers.Create(&seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	env.db.Model(&models.Offer{}).Where("id = ?", seed.ID).
		UpdateColumn("pending", constants.PendingClear)

	snap := &OfferSnapshot{
		OfferID:     300,
		Price:       100,
		BetterPrice: 60,
		SaleInfo: ledger.Quantities{
			"detail": {"A": 5, "B": 5, "C": 5},
		},
	}
	offer, err := svc.Reconcile(snap)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	// 上架超过 90 天, 60 天销量 0 < sku 数 3
	if offer.Tips != "销量低下架否?;" {
		t.Fatalf("应有低销量提示, 得到 %q", offer.Tips)
	}
	if offer.Pending != constants.PendingNeedsReview {
		t.Fatalf("低销量提示应触发待复核, 得到 %d", offer.Pending)
	}
}

func TestOfferLowSalesTipCountsRetiredSKUs(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	// 累计销量里有 3 个明细键, 当前快照只剩 1 个在售
	seed := models.Offer{
		OfferID:     350,
		Price:       150,
		BetterPrice: 60,
		CreatedAt:   testNow.AddDate(0, 0, -100),
		SaleInfo:    models.QuantityMap{"detail": {"A": 1, "B": 1, "C": 0}},
		SaleRecord: ledger.OfferLedger{
			Samples: []ledger.DaySample{
				{Date: ledger.Today(testNow.AddDate(0, 0, -1)), Count: 1},
				{Date: ledger.Today(testNow.AddDate(0, 0, -2)), Count: 1},
			},
			Snapshot: ledger.Quantities{"detail": {"A": 5}},
		},
	}
	if err := env.offers.Create(&seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	env.db.Model(&models.Offer{}).Where("id = ?", seed.ID).
		UpdateColumn("pending", constants.PendingClear)

	snap := &OfferSnapshot{
		OfferID:     350,
		Price:       100,
		BetterPrice: 60,
		SaleInfo: ledger.Quantities{
			"detail": {"A": 5},
		},
	}
	offer, err := svc.Reconcile(snap)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	// 60 天销量 2, 下架过的变体也计入 sku 数: 2 < 3
	if offer.Tips != "销量低下架否?;" {
		t.Fatalf("应有低销量提示, 得到 %q", offer.Tips)
	}
}

func TestOfferSetPendingClearAdvancesBaseline(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	seed := models.Offer{
		OfferID:      400,
		Price:        150,
		BetterPrice:  60,
		SkuInfo:      "new-sku",
		SkuInfoUse:   "old-sku",
		DetailURL:    "https://d/new",
		DetailURLUse: "https://d/old",
		Pending:      constants.PendingNeedsReview,
		Tips:         "!草稿箱;SKU变更;详情链接变更;",
		CreatedAt:    testNow,
	}
	if err := env.offers.Create(&seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := svc.SetPending(seed.ID, constants.PendingClear); err != nil {
		t.Fatalf("set pending failed: %v", err)
	}
	offer, err := env.offers.GetByID(seed.ID)
	if err != nil || offer == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if offer.Pending != constants.PendingClear {
		t.Fatalf("pending 应清零, 得到 %d", offer.Pending)
	}
	if offer.Tips != "!草稿箱;" {
		t.Fatalf("清零后应只留粘性提示, 得到 %q", offer.Tips)
	}
	if offer.SkuInfoUse != "new-sku" || offer.DetailURLUse != "https://d/new" {
		t.Fatalf("清零应推进基线: %q / %q", offer.SkuInfoUse, offer.DetailURLUse)
	}

	// 基线推进后, 同样的快照不再触发变更提示
	snap := &OfferSnapshot{
		OfferID:     400,
		Price:       100,
		BetterPrice: 60,
		SkuInfo:     "new-sku",
		DetailURL:   "https://d/new",
		SaleInfo:    ledger.Quantities{"detail": {}},
	}
	offer, err = svc.Reconcile(snap)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if offer.Pending != constants.PendingClear || offer.Tips != "!草稿箱;" {
		t.Fatalf("确认过的变更不应重复标注: pending=%d tips=%q", offer.Pending, offer.Tips)
	}
}

func TestAcknowledgeDiscountChanges(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	onlyDiscount := models.Offer{
		OfferID: 500, Price: 150, Pending: constants.PendingNeedsReview,
		Tips: "10 => 20 折扣价变更;",
	}
	alsoSKU := models.Offer{
		OfferID: 501, Price: 150, Pending: constants.PendingNeedsReview,
		Tips: "10 => 20 折扣价变更;SKU变更;",
	}
	if err := env.offers.Create(&onlyDiscount); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := env.offers.Create(&alsoSKU); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cleared, err := svc.AcknowledgeDiscountChanges()
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("应只清理 1 个货源, 得到 %d", cleared)
	}
	offer, _ := env.offers.GetByID(onlyDiscount.ID)
	if offer.Pending != constants.PendingClear || offer.Tips != "" {
		t.Fatalf("纯折扣变更应被清零: pending=%d tips=%q", offer.Pending, offer.Tips)
	}
	offer, _ = env.offers.GetByID(alsoSKU.ID)
	if offer.Pending != constants.PendingNeedsReview {
		t.Fatalf("还有其它提示的货源不应被清: %d", offer.Pending)
	}
}

func TestOfferNextRefreshURL(t *testing.T) {
	env := newTestEnv(t)
	svc := newOfferServiceForTest(t, env)

	stale := models.Offer{OfferID: 600, ProductID: 1, Price: 150}
	if err := env.offers.Create(&stale); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	env.db.Model(&models.Offer{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", testNow.AddDate(0, 0, -1))

	url, err := svc.NextRefreshURL()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if url != "https://detail.example.com/offer/600.html" {
		t.Fatalf("抓取地址不符: %q", url)
	}

	// 今天刷新过之后游标耗尽, 顺手清理过期软删除并报 all done
	env.db.Model(&models.Offer{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", testNow)
	expired := models.Offer{OfferID: 601, Price: 150}
	if err := env.offers.Create(&expired); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	env.db.Model(&models.Offer{}).Where("id = ?", expired.ID).
		UpdateColumn("deleted_at", testNow.AddDate(0, 0, -200))

	if _, err := svc.NextRefreshURL(); !errors.Is(err, ErrAllDone) {
		t.Fatalf("游标耗尽应报 all done, 得到 %v", err)
	}
	var count int64
	env.db.Unscoped().Model(&models.Offer{}).Where("offer_id = ?", int64(601)).Count(&count)
	if count != 0 {
		t.Fatal("过期软删除货源应被物理清除")
	}
}
