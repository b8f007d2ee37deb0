package repository

import "gorm.io/gorm"

const defaultPerPage = 20

// normalizePage 规范化分页参数，页码收敛到 [1, 最后一页]
func normalizePage(page, perPage int, total int64) (int, int) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	lastPage := int(total)/perPage + 1
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}
	return page, perPage
}

// applyPagination 应用分页参数
func applyPagination(query *gorm.DB, page, perPage int) *gorm.DB {
	if query == nil || perPage <= 0 {
		return query
	}
	offset := (page - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	return query.Limit(perPage).Offset(offset)
}
