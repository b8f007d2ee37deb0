package constants

// 审核状态常量（pending 列的取值，正数保留给运营自定义状态）
const (
	PendingDraft       = -2 // 草稿箱，尚未人工确认
	PendingNeedsReview = -1 // 自动变更检测命中，待人工复核
	PendingClear       = 0  // 人工已确认当前内容
)

// 销量台账常量
const (
	LedgerMaxSamples = 400 // 每个实体最多保留的按天样本数
	SaleWindow30     = 30  // 月销量窗口
	SaleWindow60     = 60  // 双月销量窗口（低销量下架判断）
)

// 可信销量钳制上限：粗粒度维度（颜色/尺码）允许更大的单日销量
const (
	DeltaClampCoarse = 500 // color / size
	DeltaClampDetail = 200 // sku detail
)

// can-book 计数的三个统计维度
const (
	DimensionColor  = "color"
	DimensionSize   = "size"
	DimensionDetail = "detail"
)

// 重量估算常量
const (
	WeightLog2Ceiling = 33 // 低于该样本数时，每跨一个 2 的幂就触发人工复核
)

// 商品常量
const (
	MaxProductDiscount = 50  // 后台可调折扣上限（百分比）
	BatchLookupLimit   = 100 // 批量查询一次最多的 product_id 数
)

// 可更新的商品计数列
const (
	ProductColumnSaleInfo  = "sale_info"
	ProductColumnStockInfo = "stock_info"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型
const (
	TaskImportDailySamples = "product:import_daily" // 日流量导入
	TaskPurgeExpired       = "maintenance:purge"    // 过期数据清理
)
