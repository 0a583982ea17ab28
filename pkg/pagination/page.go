package pagination

import "context"

// Page is one fetched unit of a paginated result set. The metadata is the
// page's own; it is not assumed constant across pages.
type Page[T any] struct {
	Items      []T
	PageNo     int
	NumOfRows  int
	TotalCount int
}

// PageFunc fetches a single page by its 1-based number.
type PageFunc[T any] func(ctx context.Context, pageNo int) (Page[T], error)

// TotalPages returns ceil(TotalCount / NumOfRows), or 0 when either value
// is not positive.
func (p Page[T]) TotalPages() int {
	if p.TotalCount <= 0 || p.NumOfRows <= 0 {
		return 0
	}
	return (p.TotalCount + p.NumOfRows - 1) / p.NumOfRows
}

// NextPageNo reports the page that follows p, if any.
func NextPageNo[T any](p Page[T]) (int, bool) {
	if p.PageNo < p.TotalPages() {
		return p.PageNo + 1, true
	}
	return 0, false
}

// HasNextPage reports whether another page follows p.
func HasNextPage[T any](p Page[T]) bool {
	_, ok := NextPageNo(p)
	return ok
}

// Flatten concatenates the items of pages in the given order.
func Flatten[T any](pages []Page[T]) []T {
	n := 0
	for _, p := range pages {
		n += len(p.Items)
	}
	items := make([]T, 0, n)
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	return items
}
