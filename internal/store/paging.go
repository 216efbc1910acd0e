package store

import "crmcore/internal/domain"

// DefaultPageSize applies when a request leaves PageSize unset. The service
// layer normally fills PageSize from configuration before the store sees it.
const DefaultPageSize = 25

// PageRequest selects a window of a listing. Page is 1-based; out-of-range
// values are clamped rather than rejected.
type PageRequest struct {
	Page     int
	PageSize int
	OrderBy  OrderBy
}

// Pagination describes the window actually returned.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// Clamp resolves the request against a row count: page is forced into
// [1, totalPages], totalPages is ceil(totalRows/pageSize) with a minimum of
// 1 so an empty listing still reports page 1 of 1. The returned offset is
// ready for a LIMIT/OFFSET query or a slice window.
func (p PageRequest) Clamp(totalRows int64) (Pagination, int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	totalPages := int((totalRows + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	pg := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalRows:  totalRows,
		TotalPages: totalPages,
	}
	return pg, (page - 1) * pageSize
}

// CustomerPage is one window of a customer listing.
type CustomerPage struct {
	Customers  []domain.Customer `json:"customers"`
	Pagination Pagination        `json:"pagination"`
}

// ProductPage is one window of a product listing.
type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// OrderPage is one window of an order listing.
type OrderPage struct {
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}
