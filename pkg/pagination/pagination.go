package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs.
type Params struct {
	Page  int
	Limit int
}

// Meta mirrors the backend's pagination object.
type Meta struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage floors page numbers at 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// TotalPages returns ceil(count/size); an empty set has zero pages.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Clamp keeps page within [1, totalPages]. With no pages at all the view sits on page 1.
func Clamp(page, totalPages int) int {
	if totalPages <= 0 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return NormalizePage(page)
}

// Window returns the [start, end) bounds of page within count items.
func Window(page, size, count int) (int, int) {
	if size <= 0 || count <= 0 {
		return 0, 0
	}
	start := (NormalizePage(page) - 1) * size
	if start >= count {
		return count, count
	}
	end := start + size
	if end > count {
		end = count
	}
	return start, end
}

// Slice returns the items on page without copying the backing array.
func Slice[E any](items []E, page, size int) []E {
	start, end := Window(page, size, len(items))
	return items[start:end]
}

// NewMeta computes the pagination object for page of size over totalCount rows.
func NewMeta(page, size, totalCount int) Meta {
	totalPages := TotalPages(totalCount, size)
	page = NormalizePage(page)
	return Meta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		Limit:       size,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Offset is the number of rows skipped before the current page.
func (m Meta) Offset() int {
	return (NormalizePage(m.CurrentPage) - 1) * m.Limit
}
