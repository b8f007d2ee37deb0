package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/models"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	GetByOrderID(orderID int64) (*models.Order, error)
	ListByOrderIDs(orderIDs []int64) ([]models.Order, error)
	BatchCreate(orders []models.Order) (int64, error)
	UpdateColumnsByOrderID(orderID int64, values map[string]interface{}) (int64, error)
	AssignLgOrderID(orderID int64, lgOrderID string, now time.Time) (int64, error)
	NextWeighable(createdFrom, createdTo, updatedBefore time.Time) (*models.Order, error)
	Search(filter OrderSearchFilter) ([]models.Order, int64, int, int, error)
	PurgeCreatedBefore(cutoff time.Time) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByOrderID 根据平台订单ID获取
func (r *GormOrderRepository) GetByOrderID(orderID int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByOrderIDs 按平台订单ID批量获取
func (r *GormOrderRepository) ListByOrderIDs(orderIDs []int64) ([]models.Order, error) {
	if len(orderIDs) == 0 {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Where("order_id IN ?", orderIDs).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// BatchCreate 批量新建订单，返回影响行数
func (r *GormOrderRepository) BatchCreate(orders []models.Order) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	result := r.db.Create(&orders)
	return result.RowsAffected, result.Error
}

// UpdateColumnsByOrderID 按平台订单ID更新指定列，返回影响行数
func (r *GormOrderRepository) UpdateColumnsByOrderID(orderID int64, values map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.Order{}).Where("order_id = ?", orderID).Updates(values)
	return result.RowsAffected, result.Error
}

// AssignLgOrderID 分配物流订单ID，只在未分配或新值更大时生效
func (r *GormOrderRepository) AssignLgOrderID(orderID int64, lgOrderID string, now time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("order_id = ? AND (lg_order_id IS NULL OR lg_order_id < ?)", orderID, lgOrderID).
		Updates(map[string]interface{}{"lg_order_id": lgOrderID, "updated_at": now})
	return result.RowsAffected, result.Error
}

// NextWeighable 下一个待称重订单（创建时间在窗口内、今天未处理、未称重、已有物流单号）
func (r *GormOrderRepository) NextWeighable(createdFrom, createdTo, updatedBefore time.Time) (*models.Order, error) {
	var order models.Order
	if err := r.db.
		Where("created_at BETWEEN ? AND ?", createdFrom, createdTo).
		Where("updated_at < ? AND weight = 0 AND lg_order_id IS NOT NULL", updatedBefore).
		Order("id ASC").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Search 订单分页查询
func (r *GormOrderRepository) Search(filter OrderSearchFilter) ([]models.Order, int64, int, int, error) {
	query := r.db.Model(&models.Order{})
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ProductID > 0 {
		query = query.Where("products LIKE ?", fmt.Sprintf("%%%d%%", filter.ProductID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, 0, 0, err
	}

	page, perPage := normalizePage(filter.Page, filter.PerPage, total)
	var orders []models.Order
	if err := applyPagination(query.Order("id DESC"), page, perPage).
		Find(&orders).Error; err != nil {
		return nil, 0, 0, 0, err
	}
	return orders, total, page, perPage, nil
}

// PurgeCreatedBefore 物理清除超出保留期的订单
func (r *GormOrderRepository) PurgeCreatedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
