package chat

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type PageParams struct {
	Page  int
	Limit int
}

// Clamped returns params with page and limit forced into valid bounds.
func (p PageParams) Clamped() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p PageParams) offset() int {
	return (p.Page - 1) * p.Limit
}

type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func buildPageMeta(p PageParams, totalItems int64) PageMeta {
	totalPages := totalItems / int64(p.Limit)
	if totalItems%int64(p.Limit) != 0 {
		totalPages++
	}
	return PageMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    int64(p.Page) < totalPages,
		HasPrev:    p.Page > 1,
	}
}
