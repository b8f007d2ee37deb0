package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/ledger"
)

// Offer 货源表
type Offer struct {
	ID              uint               `gorm:"primarykey" json:"id"`                        // 主键
	OfferID         int64              `gorm:"uniqueIndex;not null" json:"offer_id"`        // 平台货源ID
	ProductID       int64              `gorm:"index;not null;default:0" json:"product_id"`  // 关联商品ID（0 未关联）
	SaleRecord      ledger.OfferLedger `gorm:"type:json" json:"sale_record"`                // 日销量台账 + 可订基线
	Sale30          int64              `gorm:"not null;default:0" json:"sale30"`            // 近30日销量
	Discount        int64              `gorm:"not null;default:0" json:"discount"`          // 折扣（price/better_price 推导）
	SaleInfo        QuantityMap        `gorm:"type:json" json:"sale_info"`                  // 各维度累计销量
	SkuInfoUse      string             `gorm:"type:text" json:"sku_info_use"`               // SKU变更检测基线
	DetailURLUse    string             `gorm:"type:text" json:"detail_url_use"`             // 详情链接变更检测基线
	Pending         int64              `gorm:"index;not null;default:-2" json:"pending"`    // 审核状态
	Tips            string             `gorm:"type:text" json:"tips"`                       // 变更提示
	Title           string             `gorm:"type:varchar(500);not null" json:"title"`     // 标题
	Cover           string             `gorm:"type:varchar(500)" json:"cover"`              // 封面图
	WirelessVideoID int64              `gorm:"not null;default:0" json:"wireless_video_id"` // 无线视频ID
	DetailVideoID   int64              `gorm:"not null;default:0" json:"detail_video_id"`   // 详情视频ID
	ModelID         string             `gorm:"type:varchar(100);index" json:"model_id"`     // 货号
	Price           int64              `gorm:"not null" json:"price"`                       // 采购价（分）
	BetterPrice     int64              `gorm:"not null;default:0" json:"better_price"`      // 优惠价（分）
	SkuInfo         string             `gorm:"type:text" json:"sku_info"`                   // SKU原始数据
	DetailURL       string             `gorm:"type:varchar(1000)" json:"detail_url"`        // 详情链接
	Supplier        string             `gorm:"type:varchar(200)" json:"supplier"`           // 供应商
	StoreURL        string             `gorm:"type:varchar(1000)" json:"store_url"`         // 店铺链接
	PromotionEnd    *time.Time         `json:"promotion_end"`                               // 促销结束时间
	CreatedAt       time.Time          `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt       time.Time          `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt       gorm.DeletedAt     `gorm:"index" json:"deleted_at"`                     // 软删除时间
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}
