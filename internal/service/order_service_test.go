package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/models"
)

func newOrderServiceForTest(t *testing.T, env *testEnv) *OrderService {
	t.Helper()
	svc := NewOrderService(env.orders, env.products, testPolicy())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestOrderBatchUpsert(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env)

	inputs := map[string]OrderInput{
		"7001": {Remark: "首单", ProductNum: 1, ItemNum: 2, Products: `{"9001":[]}`},
		"7002": {Remark: "", ProductNum: 2, ItemNum: 3, Products: `{"9001":[],"9002":[]}`},
		"bad":  {Remark: "非法键被忽略"},
	}
	if _, err := svc.BatchUpsert(inputs); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	orders, err := env.orders.ListByOrderIDs([]int64{7001, 7002})
	if err != nil || len(orders) != 2 {
		t.Fatalf("应落库 2 单: %v %d", err, len(orders))
	}

	// 第二次同步: 已存在的只更新备注, 不新增不覆盖其它字段
	existing, err := svc.BatchUpsert(map[string]OrderInput{
		"7001": {Remark: "改备注", ProductNum: 99, ItemNum: 99},
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if len(existing) != 1 {
		t.Fatalf("应返回 1 条已有订单, 得到 %d", len(existing))
	}
	reloaded, _ := env.orders.GetByOrderID(7001)
	if reloaded.Remark != "改备注" {
		t.Fatalf("备注未更新: %q", reloaded.Remark)
	}
	if reloaded.ProductNum != 1 || reloaded.ItemNum != 2 {
		t.Fatalf("重复同步不应覆盖结构字段: %+v", reloaded)
	}
}

func TestAssignLgIDsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env)

	order := models.Order{OrderID: 7100, ProductNum: 1, ItemNum: 1}
	if err := env.db.Create(&order).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	orders, err := svc.AssignLgIDs([]LgIDAssignment{{OrderID: 7100, LgOrderID: "LP100"}})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if orders[0].LgOrderID == nil || *orders[0].LgOrderID != "LP100" {
		t.Fatalf("物流单号未写入: %+v", orders[0].LgOrderID)
	}

	// 更大的单号可以覆盖
	orders, err = svc.AssignLgIDs([]LgIDAssignment{{OrderID: 7100, LgOrderID: "LP200"}})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if *orders[0].LgOrderID != "LP200" {
		t.Fatalf("更大的单号应覆盖: %q", *orders[0].LgOrderID)
	}

	// 更小的单号不允许回退
	orders, err = svc.AssignLgIDs([]LgIDAssignment{{OrderID: 7100, LgOrderID: "LP150"}})
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if *orders[0].LgOrderID != "LP200" {
		t.Fatalf("单号不应回退: %q", *orders[0].LgOrderID)
	}
}

func TestRecordWeight(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env)

	product := models.Product{ProductID: 9600}
	if err := env.products.Create(&product); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	env.db.Model(&models.Product{}).Where("id = ?", product.ID).
		UpdateColumn("pending", constants.PendingClear)
	order := models.Order{OrderID: 7200, ProductNum: 1, ItemNum: 2, Products: `{"9600":[]}`}
	if err := env.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}

	advisory, err := svc.RecordWeight(7200, 4000, 2)
	if err != nil {
		t.Fatalf("record weight failed: %v", err)
	}
	if advisory != "" {
		t.Fatalf("单品订单不应有提示语: %q", advisory)
	}

	reloaded, _ := env.products.GetByProductID(9600)
	if reloaded.WeightCalCount != 2 || reloaded.SaleWeight != 4000 {
		t.Fatalf("估算器累计错误: count=%d weight=%d", reloaded.WeightCalCount, reloaded.SaleWeight)
	}
	// 4000/2 * 1000 / 1000 = 2000
	if reloaded.Weight != 2000 {
		t.Fatalf("均重应为 2000, 得到 %d", reloaded.Weight)
	}
	// 首件之后跨过 2 的幂, 触发复核
	if reloaded.Pending != constants.PendingNeedsReview {
		t.Fatalf("重量复核应触发待复核, 得到 %d", reloaded.Pending)
	}

	// 重量只能写入一次
	if _, err := svc.RecordWeight(7200, 5000, 2); !errors.Is(err, ErrWeightRecorded) {
		t.Fatalf("重复称重应被拒绝, 得到 %v", err)
	}
	if _, err := svc.RecordWeight(404, 5000, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("不存在的订单应报 not found, 得到 %v", err)
	}
}

func TestRecordWeightRejectsBeforeWrite(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env)

	broken := models.Order{OrderID: 7500, ProductNum: 1, ItemNum: 1, Products: "not-json"}
	orphan := models.Order{OrderID: 7501, ProductNum: 1, ItemNum: 1, Products: `{"404":[]}`}
	if err := env.db.Create(&broken).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := env.db.Create(&orphan).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// 商品明细解析失败时整单拒绝, 重量不能落库
	if _, err := svc.RecordWeight(7500, 777, 1); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("明细损坏应报格式错误, 得到 %v", err)
	}
	reloaded, _ := env.orders.GetByOrderID(7500)
	if reloaded.Weight != 0 {
		t.Fatalf("校验失败后重量不应写入: %d", reloaded.Weight)
	}

	// 对应商品不存在时同样整单拒绝
	if _, err := svc.RecordWeight(7501, 777, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("商品缺失应报 not found, 得到 %v", err)
	}
	reloaded, _ = env.orders.GetByOrderID(7501)
	if reloaded.Weight != 0 {
		t.Fatalf("校验失败后重量不应写入: %d", reloaded.Weight)
	}
	if _, err := svc.RecordWeight(7501, 777, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("重试应仍可进入称重流程, 得到 %v", err)
	}
}

func TestRecordWeightAdvisory(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env)

	multi := models.Order{OrderID: 7300, ProductNum: 2, ItemNum: 3, Products: `{"1":[],"2":[]}`}
	split := models.Order{OrderID: 7301, ProductNum: 1, ItemNum: 5, Products: `{"1":[]}`}
	if err := env.db.Create(&multi).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := env.db.Create(&split).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// 多商品订单: 重量照记, 但不做归因
	advisory, err := svc.RecordWeight(7300, 4000, 3)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if advisory != "多商品或分包订单无法统计重量" {
		t.Fatalf("提示语不符: %q", advisory)
	}
	reloaded, _ := env.orders.GetByOrderID(7300)
	if reloaded.Weight != 4000 {
		t.Fatalf("重量应已记录: %d", reloaded.Weight)
	}

	// 分包订单: 上报件数与订单件数不一致
	advisory, err = svc.RecordWeight(7301, 4000, 3)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if advisory == "" {
		t.Fatal("分包订单应返回提示语")
	}
}

func TestWeightReviewDue(t *testing.T) {
	// 1 必触发; 33 之前每跨一个 2 的幂触发; 之后每满 32 件触发
	wantDue := map[int64]bool{1: true, 2: true, 4: true, 8: true, 16: true, 32: true, 64: true}
	for after := int64(1); after <= 64; after++ {
		before := after - 1
		got := weightReviewDue(before, after, 32)
		if got != wantDue[after] {
			t.Fatalf("after=%d: got %v want %v", after, got, wantDue[after])
		}
	}
	// 一次跨多件也按区间判定
	if !weightReviewDue(30, 35, 32) {
		t.Fatal("30 -> 35 跨过 32 的周期边界, 应触发")
	}
	if weightReviewDue(33, 40, 32) {
		t.Fatal("33 -> 40 未跨周期边界, 不应触发")
	}
}

func TestNextWeighableURL(t *testing.T) {
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env)

	lg := "LP900"
	order := models.Order{OrderID: 7400, ProductNum: 1, ItemNum: 1, LgOrderID: &lg}
	if err := env.db.Create(&order).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	env.db.Model(&models.Order{}).Where("order_id = ?", int64(7400)).UpdateColumns(map[string]interface{}{
		"created_at": testNow.AddDate(0, 0, -10),
		"updated_at": testNow.AddDate(0, 0, -1),
	})

	url, err := svc.NextWeighableURL()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if url != "https://track.example.com/LP900" {
		t.Fatalf("查询地址不符: %q", url)
	}

	// 今天处理过后游标耗尽, 顺手清理超保留期订单并报 all done
	env.db.Model(&models.Order{}).Where("order_id = ?", int64(7400)).
		UpdateColumn("updated_at", testNow)
	ancient := models.Order{OrderID: 7401, ProductNum: 1, ItemNum: 1}
	if err := env.db.Create(&ancient).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	env.db.Model(&models.Order{}).Where("order_id = ?", int64(7401)).
		UpdateColumn("created_at", testNow.AddDate(0, 0, -200))

	if _, err := svc.NextWeighableURL(); !errors.Is(err, ErrAllDone) {
		t.Fatalf("游标耗尽应报 all done, 得到 %v", err)
	}
	var count int64
	env.db.Model(&models.Order{}).Where("order_id = ?", int64(7401)).Count(&count)
	if count != 0 {
		t.Fatal("超保留期订单应被清除")
	}
}
