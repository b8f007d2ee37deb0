package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/models"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	GetByProductID(productID int64) (*models.Product, error)
	GetByID(id uint) (*models.Product, error)
	ExistsByProductID(productID int64) (bool, error)
	Create(product *models.Product) error
	Save(product *models.Product) (int64, error)
	Search(filter ProductSearchFilter) ([]models.Product, int64, int, int, error)
	ListByProductIDs(productIDs []int64) ([]models.Product, error)
	ListActiveAfterID(afterID uint, limit int) ([]models.Product, error)
	UpdateColumns(id uint, values map[string]interface{}) (int64, error)
	UpdateColumnsByProductID(productID int64, values map[string]interface{}) (int64, error)
	PromoteDrafts() (int64, error)
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByProductID 根据平台商品ID获取（含已软删除）
func (r *GormProductRepository) GetByProductID(productID int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.Unscoped().Where("product_id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByID 根据主键获取（含已软删除）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Unscoped().First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ExistsByProductID 平台商品ID是否已存在
func (r *GormProductRepository) ExistsByProductID(productID int64) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Product{}).
		Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 新建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Save 全量保存（含已软删除行），返回影响行数
func (r *GormProductRepository) Save(product *models.Product) (int64, error) {
	result := r.db.Unscoped().Save(product)
	return result.RowsAffected, result.Error
}

// Search 商品分页查询
func (r *GormProductRepository) Search(filter ProductSearchFilter) ([]models.Product, int64, int, int, error) {
	query := r.db.Unscoped().Model(&models.Product{})
	if filter.OfferID > 0 {
		query = query.Where("offer_id = ?", filter.OfferID)
	}
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.InitedWeight != nil {
		query = query.Where("inited_weight = ?", *filter.InitedWeight)
	}
	if filter.Pending != nil {
		query = query.Where("pending = ?", *filter.Pending)
	}
	if filter.Deleted {
		query = query.Where("deleted_at IS NOT NULL")
	} else {
		query = query.Where("deleted_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, 0, 0, err
	}

	page, perPage := normalizePage(filter.Page, filter.PerPage, total)
	var products []models.Product
	if err := applyPagination(query.Order("id DESC"), page, perPage).
		Find(&products).Error; err != nil {
		return nil, 0, 0, 0, err
	}
	return products, total, page, perPage, nil
}

// ListByProductIDs 按平台商品ID批量获取
func (r *GormProductRepository) ListByProductIDs(productIDs []int64) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Unscoped().Where("product_id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListActiveAfterID 按主键顺序分批遍历未删除商品
func (r *GormProductRepository) ListActiveAfterID(afterID uint, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("id > ?", afterID).Order("id ASC").Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateColumns 按主键更新指定列，返回影响行数
func (r *GormProductRepository) UpdateColumns(id uint, values map[string]interface{}) (int64, error) {
	result := r.db.Unscoped().Model(&models.Product{}).Where("id = ?", id).Updates(values)
	return result.RowsAffected, result.Error
}

// UpdateColumnsByProductID 按平台商品ID更新指定列，返回影响行数
func (r *GormProductRepository) UpdateColumnsByProductID(productID int64, values map[string]interface{}) (int64, error) {
	result := r.db.Unscoped().Model(&models.Product{}).
		Where("product_id = ?", productID).Updates(values)
	return result.RowsAffected, result.Error
}

// PromoteDrafts 把所有草稿商品置为已确认
func (r *GormProductRepository) PromoteDrafts() (int64, error) {
	result := r.db.Model(&models.Product{}).Where("pending = ?", constants.PendingDraft).
		Update("pending", constants.PendingClear)
	return result.RowsAffected, result.Error
}

// PurgeDeletedBefore 物理清除软删除超过保留期的商品
func (r *GormProductRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&models.Product{})
	return result.RowsAffected, result.Error
}
