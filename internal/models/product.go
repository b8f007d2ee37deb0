package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/mifaly/new-ae-server/internal/ledger"
)

// Product 商品表
type Product struct {
	ID             uint                 `gorm:"primarykey" json:"id"`                        // 主键
	ProductID      int64                `gorm:"uniqueIndex;not null" json:"product_id"`      // 平台商品ID
	UV30           int64                `gorm:"not null;default:0" json:"uv30"`              // 近30日访客数
	Sales30        int64                `gorm:"not null;default:0" json:"sales30"`           // 近30日销量
	SaleRecord     ledger.ProductLedger `gorm:"type:json" json:"sale_record"`                // 日访客/销量台账
	OfferID        int64                `gorm:"index;not null;default:0" json:"offer_id"`    // 关联货源ID（0 未关联）
	Discount       int64                `gorm:"not null;default:0" json:"discount"`          // 折扣（运营设置，上限 50）
	StockCount     int64                `gorm:"not null;default:0" json:"stock_count"`       // 库存总数
	SaleCount      int64                `gorm:"not null;default:0" json:"sale_count"`        // 累计售出总数
	StockInfo      QuantityMap          `gorm:"type:json" json:"stock_info"`                 // 各SKU库存
	SaleInfo       QuantityMap          `gorm:"type:json" json:"sale_info"`                  // 各SKU累计售出
	SaleWeight     int64                `gorm:"not null;default:0" json:"sale_weight"`       // 累计称重（克）
	WeightCalCount int64                `gorm:"not null;default:0" json:"weight_cal_count"`  // 累计称重件数
	Weight         int64                `gorm:"not null;default:0" json:"weight"`            // 估算单件重量
	InitedWeight   bool                 `gorm:"not null;default:false" json:"inited_weight"` // 重量已人工确认
	Pending        int64                `gorm:"index;not null;default:-2" json:"pending"`    // 审核状态
	Tips           string               `gorm:"type:text" json:"tips"`                       // 变更提示
	Title          string               `gorm:"type:varchar(500);not null" json:"title"`     // 标题
	Cover          string               `gorm:"type:varchar(500)" json:"cover"`              // 封面图
	Price          int64                `gorm:"not null;default:0" json:"price"`             // 售价（分）
	ModelID        string               `gorm:"type:varchar(100);index" json:"model_id"`     // 货号
	CreatedAt      time.Time            `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt      time.Time            `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt      gorm.DeletedAt       `gorm:"index" json:"deleted_at"`                     // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
