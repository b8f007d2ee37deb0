package service

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/models"
	"github.com/mifaly/new-ae-server/internal/repository"
)

// OrderService 订单业务服务：批量同步、物流单号、称重统计
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	policy   config.PolicyConfig
	now      func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, policy config.PolicyConfig) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		policy:   policy,
		now:      time.Now,
	}
}

// OrderInput 采集端上报的订单数据
type OrderInput struct {
	OrderID    int64  `json:"order_id"`
	Remark     string `json:"remark"`
	ProductNum int64  `json:"product_num"`
	ItemNum    int64  `json:"item_num"`
	Products   string `json:"products"` // 商品ID -> SKU数量列表 的 JSON
}

// Get 根据平台订单ID获取
func (s *OrderService) Get(orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// BatchUpsert 批量同步订单：已存在的更新备注，新出现的整批插入。
// 任何一条没按预期落库都整体回滚。
func (s *OrderService) BatchUpsert(inputs map[string]OrderInput) ([]models.Order, error) {
	ids := make([]int64, 0, len(inputs))
	byID := make(map[int64]OrderInput, len(inputs))
	for key, input := range inputs {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
		byID[id] = input
	}

	existing, err := s.orders.ListByOrderIDs(ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	seen := make(map[int64]bool, len(existing))
	for i := range existing {
		order := &existing[i]
		seen[order.OrderID] = true
		order.Remark = byID[order.OrderID].Remark
		order.UpdatedAt = now
	}

	var created []models.Order
	for _, id := range ids {
		if seen[id] {
			continue
		}
		input := byID[id]
		created = append(created, models.Order{
			OrderID:    id,
			Remark:     input.Remark,
			ProductNum: input.ProductNum,
			ItemNum:    input.ItemNum,
			Products:   input.Products,
		})
	}

	err = s.orders.Transaction(func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		for _, order := range existing {
			rows, err := repo.UpdateColumnsByOrderID(order.OrderID, map[string]interface{}{
				"remark":     order.Remark,
				"updated_at": order.UpdatedAt,
			})
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("orders%w", ErrConsistency)
			}
		}
		rows, err := repo.BatchCreate(created)
		if err != nil {
			return err
		}
		if rows != int64(len(created)) {
			return fmt.Errorf("orders%w", ErrConsistency)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// LgIDAssignment 单条物流单号分配
type LgIDAssignment struct {
	OrderID   int64  `json:"order_id"`
	LgOrderID string `json:"lg_order_id"`
}

// AssignLgIDs 批量分配物流单号。
// 只在未分配或新单号更大时生效，重复回传不会倒退；返回涉及订单的现状。
func (s *OrderService) AssignLgIDs(assignments []LgIDAssignment) ([]models.Order, error) {
	now := s.now()
	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		if _, err := s.orders.AssignLgOrderID(a.OrderID, a.LgOrderID, now); err != nil {
			return nil, err
		}
		ids = append(ids, a.OrderID)
	}
	return s.orders.ListByOrderIDs(ids)
}

// NextWeighableURL 下一个待称重订单的物流查询地址。
// 只看 3 到 60 天前创建、今天还没处理、未称重且已有物流单号的订单；
// 全部处理完时顺手清掉超过保留期的订单，并返回 ErrAllDone。
func (s *OrderService) NextWeighableURL() (string, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	order, err := s.orders.NextWeighable(
		startOfDay.AddDate(0, 0, -60),
		startOfDay.AddDate(0, 0, -3),
		startOfDay,
	)
	if err != nil {
		return "", err
	}
	if order == nil || order.LgOrderID == nil {
		cutoff := startOfDay.AddDate(0, 0, -s.policy.RetentionDays)
		if _, err := s.orders.PurgeCreatedBefore(cutoff); err != nil {
			return "", err
		}
		return "", ErrAllDone
	}
	if s.policy.LgOrderURLPattern == "" {
		return "", ErrNoURLPattern
	}
	return strings.Replace(s.policy.LgOrderURLPattern, "{LG_ORDER_ID}", *order.LgOrderID, 1), nil
}

// RecordWeight 记录订单实测重量并把重量摊到对应商品的估算器上。
// 重量只能写入一次；多商品或分包订单记下重量后不做归因，
// 返回提示语而非错误。
func (s *OrderService) RecordWeight(orderID, weight, itemNum int64) (string, error) {
	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", ErrNotFound
	}
	if order.Weight > 0 {
		return "", ErrWeightRecorded
	}

	weightValues := map[string]interface{}{
		"weight":     weight,
		"updated_at": s.now(),
	}

	// 多商品或分包订单只记重量不做归因，单独落库即可
	if order.ProductNum != 1 || itemNum != order.ItemNum {
		rows, err := s.orders.UpdateColumnsByOrderID(orderID, weightValues)
		if err != nil {
			return "", err
		}
		if rows == 0 {
			return "", fmt.Errorf("orders%w", ErrConsistency)
		}
		return "多商品或分包订单无法统计重量", nil
	}

	// 归因路径先做全部校验，再一个事务里同时写订单和商品
	productID, err := singleProductID(order.Products)
	if err != nil {
		return "", err
	}
	product, err := s.products.GetByProductID(productID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", fmt.Errorf("未能获取该订单的产品: %w", ErrNotFound)
	}

	origCount := product.WeightCalCount
	product.WeightCalCount += order.ItemNum
	product.SaleWeight += weight
	product.Weight = product.SaleWeight / product.WeightCalCount * 1000 / s.policy.WeightRatio

	if weightReviewDue(origCount, product.WeightCalCount, s.policy.NeedUpdateWeight) {
		product.Pending = constants.PendingNeedsReview
	}

	err = s.orders.Transaction(func(tx *gorm.DB) error {
		rows, err := s.orders.WithTx(tx).UpdateColumnsByOrderID(orderID, weightValues)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("orders%w", ErrConsistency)
		}
		rows, err = s.products.WithTx(tx).UpdateColumns(product.ID, map[string]interface{}{
			"weight_cal_count": product.WeightCalCount,
			"sale_weight":      product.SaleWeight,
			"weight":           product.Weight,
			"pending":          product.Pending,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("products%w", ErrConsistency)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return "", nil
}

// weightReviewDue 重量复核触发判定：第一件必触发；
// 估算还不稳定时（件数小于 33）每跨过一个 2 的幂触发一次；
// 之后每满 periodic 件触发一次。
func weightReviewDue(before, after, periodic int64) bool {
	if after == 1 {
		return true
	}
	if after < constants.WeightLog2Ceiling && ilog2(after) > ilog2(before) {
		return true
	}
	return periodic > 0 && after/periodic > before/periodic
}

// ilog2 整数 log2，0 记为 -1
func ilog2(x int64) int {
	if x <= 0 {
		return -1
	}
	return bits.Len64(uint64(x)) - 1
}

// singleProductID 从订单商品明细里取出唯一的商品ID
func singleProductID(products string) (int64, error) {
	var mapping map[string]json.RawMessage
	if err := json.Unmarshal([]byte(products), &mapping); err != nil {
		return 0, ErrInvalidSnapshot
	}
	for key := range mapping {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return 0, ErrInvalidSnapshot
		}
		return id, nil
	}
	return 0, fmt.Errorf("未找到对应的product: %w", ErrNotFound)
}

// Search 分页查询
func (s *OrderService) Search(filter repository.OrderSearchFilter) ([]models.Order, int64, int, int, error) {
	return s.orders.Search(filter)
}
