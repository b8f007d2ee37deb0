package service

import "errors"

// 业务错误定义，handler 层统一映射为响应码
var (
	ErrNotFound          = errors.New("记录不存在")
	ErrOfferExists       = errors.New("该offer_id已存在")
	ErrProductExists     = errors.New("该product_id已存在")
	ErrPriceInvalid      = errors.New("价格必须大于0")
	ErrInvalidSnapshot   = errors.New("快照数据格式错误")
	ErrInvalidColumn     = errors.New("错误的更新请求字段")
	ErrInsufficientStock = errors.New("库存不足")
	ErrMissingSKU        = errors.New("没有该sku库存记录")
	ErrWeightRecorded    = errors.New("已统计")
	ErrNoURLPattern      = errors.New("未配置链接模板")
	ErrAllDone           = errors.New("all done")
	ErrNothingChanged    = errors.New("未改变任何数据")
	ErrConsistency       = errors.New("数据未更新, 请手动检查")
)
