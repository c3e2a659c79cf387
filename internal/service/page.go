package service

import "github.com/Skotchmaster/storefront/pkg/util"

const (
	CatalogPageSize       = 12
	OrdersPageSize        = 10
	AdminOrdersPageSize   = 20
	AdminProductsPageSize = 100
	RecentOrdersLimit     = 5
)

type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

func newPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	if page < 1 {
		page = 1
	}
	return Page[T]{Items: items, Total: total, Page: page, Size: size}
}

func (p Page[T]) TotalPages() int64 {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + int64(p.Size) - 1) / int64(p.Size)
}

func (p Page[T]) HasNext() bool { return int64(p.Page*p.Size) < p.Total }
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

func window(page, size, def int) (int, int, int) {
	offset, limit := util.Calculate(page, size, def)
	if page < 1 {
		page = 1
	}
	return page, offset, limit
}
