package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/constants"
	"github.com/mifaly/new-ae-server/internal/models"
)

// OfferRepository 货源数据访问接口
type OfferRepository interface {
	GetByOfferID(offerID int64) (*models.Offer, error)
	GetByID(id uint) (*models.Offer, error)
	ExistsByOfferID(offerID int64) (bool, error)
	Create(offer *models.Offer) error
	Save(offer *models.Offer) (int64, error)
	Search(filter OfferSearchFilter) ([]models.Offer, int64, int, int, error)
	ListByProductIDs(productIDs []int64) ([]models.Offer, error)
	NextStale(before time.Time) (*models.Offer, error)
	UpdateColumns(id uint, values map[string]interface{}) (int64, error)
	ClearPending(id uint, tips string) (int64, error)
	ListActiveByPending(pending int64) ([]models.Offer, error)
	ResetPendingTips(ids []uint) (int64, error)
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OfferRepository
}

// GormOfferRepository GORM 实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建货源仓库
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) OfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOfferRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByOfferID 根据平台货源ID获取（含已软删除）
func (r *GormOfferRepository) GetByOfferID(offerID int64) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.Unscoped().Where("offer_id = ?", offerID).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// GetByID 根据主键获取（含已软删除）
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.Unscoped().First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// ExistsByOfferID 平台货源ID是否已存在
func (r *GormOfferRepository) ExistsByOfferID(offerID int64) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Offer{}).
		Where("offer_id = ?", offerID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 新建货源
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

// Save 全量保存（含已软删除行），返回影响行数
func (r *GormOfferRepository) Save(offer *models.Offer) (int64, error) {
	result := r.db.Unscoped().Save(offer)
	return result.RowsAffected, result.Error
}

// Search 货源分页查询
func (r *GormOfferRepository) Search(filter OfferSearchFilter) ([]models.Offer, int64, int, int, error) {
	query := r.db.Unscoped().Model(&models.Offer{})
	if filter.OfferID > 0 {
		query = query.Where("offer_id = ?", filter.OfferID)
	}
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if modelID := strings.TrimSpace(filter.ModelID); modelID != "" {
		query = query.Where("model_id = ?", modelID)
	}
	if supplier := strings.TrimSpace(filter.Supplier); supplier != "" {
		query = query.Where("supplier = ?", supplier)
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
	var offers []models.Offer
	if err := applyPagination(query.Order("id DESC"), page, perPage).
		Find(&offers).Error; err != nil {
		return nil, 0, 0, 0, err
	}
	return offers, total, page, perPage, nil
}

// ListByProductIDs 按关联商品ID批量获取（含已软删除，供批量查询展示）
func (r *GormOfferRepository) ListByProductIDs(productIDs []int64) ([]models.Offer, error) {
	if len(productIDs) == 0 {
		return []models.Offer{}, nil
	}
	var offers []models.Offer
	if err := r.db.Unscoped().Where("product_id IN ?", productIDs).
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// NextStale 下一个今天还没刷新过的已关联货源
func (r *GormOfferRepository) NextStale(before time.Time) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.Where("updated_at < ? AND product_id > 0", before).
		Order("id ASC").First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// UpdateColumns 按主键更新指定列，返回影响行数
func (r *GormOfferRepository) UpdateColumns(id uint, values map[string]interface{}) (int64, error) {
	result := r.db.Unscoped().Model(&models.Offer{}).Where("id = ?", id).Updates(values)
	return result.RowsAffected, result.Error
}

// ClearPending 运营确认：置 pending、保留的 tips，并把变更检测基线推进到当前值
func (r *GormOfferRepository) ClearPending(id uint, tips string) (int64, error) {
	result := r.db.Unscoped().Model(&models.Offer{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"pending":        constants.PendingClear,
			"tips":           tips,
			"sku_info_use":   gorm.Expr("sku_info"),
			"detail_url_use": gorm.Expr("detail_url"),
		})
	return result.RowsAffected, result.Error
}

// ListActiveByPending 按审核状态获取未删除货源
func (r *GormOfferRepository) ListActiveByPending(pending int64) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.Where("pending = ?", pending).Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// ResetPendingTips 批量确认：清空 tips 并置为已确认
func (r *GormOfferRepository) ResetPendingTips(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Offer{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{"pending": constants.PendingClear, "tips": ""})
	return result.RowsAffected, result.Error
}

// PurgeDeletedBefore 物理清除软删除超过保留期的货源
func (r *GormOfferRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&models.Offer{})
	return result.RowsAffected, result.Error
}
