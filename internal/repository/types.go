package repository

// OfferSearchFilter 查询货源列表的过滤条件
type OfferSearchFilter struct {
	Page      int
	PerPage   int
	OfferID   int64
	ProductID int64
	ModelID   string
	Supplier  string
	Pending   *int64
	Deleted   bool
}

// ProductSearchFilter 查询商品列表的过滤条件
type ProductSearchFilter struct {
	Page         int
	PerPage      int
	OfferID      int64
	ProductID    int64
	InitedWeight *bool
	Pending      *int64
	Deleted      bool
}

// OrderSearchFilter 查询订单列表的过滤条件
type OrderSearchFilter struct {
	Page      int
	PerPage   int
	OrderID   int64
	ProductID int64
}
