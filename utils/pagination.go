package utils

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage applies the lenient defaults used by list queries: anything
// below 1 falls back to the default and pageSize is capped at MaxPageSize.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the number of records to skip for a 1-based page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// TotalPages is ceil(total / pageSize); zero when there is nothing to page.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
