package content

import "math"

// TotalPages returns ceil(total/pageSize), or 0 when pageSize is not positive.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Offset returns (page-1)*pageSize and false when the window starts before the first item
// or when its start or end would overflow int.
func Offset(page, pageSize int) (int, bool) {
	if page < 1 || pageSize <= 0 {
		return 0, false
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	offset := (page - 1) * pageSize
	if offset > math.MaxInt-pageSize {
		return 0, false
	}
	return offset, true
}

// ValidatePage reports ErrInvalidPagination when page lies outside [1, TotalPages]. It does
// not clamp; callers decide whether an invalid page is a not-found response.
func ValidatePage(page, pageSize, total int) error {
	if pageSize <= 0 {
		return invalidPagination("validate page", "page size %d must be positive", pageSize)
	}
	if page < 1 {
		return invalidPagination("validate page", "page %d is before the first page", page)
	}
	if last := TotalPages(total, pageSize); page > last {
		return invalidPagination("validate page", "page %d is beyond the last page %d", page, last)
	}
	return nil
}

// Pagination describes where a page sits within a listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// NewPagination computes navigation state for page without clamping it into range.
func NewPagination(page, pageSize, total int) Pagination {
	totalPages := TotalPages(total, pageSize)
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page >= 1 && page < totalPages,
	}
}
