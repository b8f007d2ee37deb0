package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID         uint      `gorm:"primarykey" json:"id"`                       // 主键
	OrderID    int64     `gorm:"uniqueIndex;not null" json:"order_id"`       // 平台订单ID
	LgOrderID  *string   `gorm:"index;type:varchar(100)" json:"lg_order_id"` // 物流订单ID（未分配为 null）
	Weight     int64     `gorm:"not null;default:0" json:"weight"`           // 实测重量（克，0 未称重）
	UsedStock  string    `gorm:"type:text" json:"used_stock"`                // 扣减库存记录
	Remark     string    `gorm:"type:text" json:"remark"`                    // 备注
	ProductNum int64     `gorm:"not null;default:0" json:"product_num"`      // 商品种数
	ItemNum    int64     `gorm:"not null;default:0" json:"item_num"`         // 商品件数
	Products   string    `gorm:"type:text" json:"products"`                  // 商品SKU数量明细（JSON）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                    // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
