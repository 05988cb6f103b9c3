package response

type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// NewPaginationMeta clamps page to at least 1.
func NewPaginationMeta(page, perPage, total int) PaginationMeta {
	if page < 1 {
		page = 1
	}
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return PaginationMeta{
		CurrentPage: page,
		PerPage:     perPage,
		TotalItems:  total,
		TotalPages:  pages,
	}
}

// Bounds returns the slice range of the current page within TotalItems.
// Pages past the last one yield an empty range.
func (m PaginationMeta) Bounds() (int, int) {
	if m.PerPage <= 0 || m.CurrentPage < 1 || m.CurrentPage > m.TotalPages {
		return m.TotalItems, m.TotalItems
	}
	start := (m.CurrentPage - 1) * m.PerPage
	end := start + m.PerPage
	if end > m.TotalItems {
		end = m.TotalItems
	}
	return start, end
}
