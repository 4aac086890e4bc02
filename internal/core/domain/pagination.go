package domain

// Page - одна страница результата
type Page[T any] struct {
	Items      []T
	Page       int // фактическая страница после ограничения диапазоном
	TotalPages int // всегда >= 1
	TotalItems int
	PageSize   int
}

// TotalPages = ceil(total/pageSize), но не меньше 1 (пустой список показывается как одна страница)
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage ограничивает номер страницы диапазоном [1, max(1, totalPages)]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate вырезает страницу из items. Номер страницы ограничивается до нарезки.
// pageSize <= 0 означает "без пагинации": одна страница со всеми элементами.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	total := len(items)

	if pageSize <= 0 {
		all := make([]T, total)
		copy(all, items)
		return Page[T]{Items: all, Page: 1, TotalPages: 1, TotalItems: total, PageSize: total}
	}

	totalPages := TotalPages(total, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	if start > end {
		start = end
	}

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: total,
		PageSize:   pageSize,
	}
}
