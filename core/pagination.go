package core

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Pagination descriu una pàgina d'un llistat JSON. Prev i Next són els
// enllaços a les pàgines veïnes, amb la resta de paràmetres conservats.
type Pagination struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Offset     int    `json:"-"`
	RangeStart int    `json:"range_start"`
	RangeEnd   int    `json:"range_end"`
	Prev       string `json:"prev,omitempty"`
	Next       string `json:"next,omitempty"`
}

func ParseListPerPage(val string) int {
	switch strings.TrimSpace(val) {
	case "1":
		return 1
	case "5":
		return 5
	case "10":
		return 10
	case "25":
		return 25
	case "50":
		return 50
	case "100":
		return 100
	default:
		return 25
	}
}

func ParseListPage(val string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && n > 0 {
		return n
	}
	return 1
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func BuildPagination(r *http.Request, page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 25
	}
	if page <= 0 {
		page = 1
	}
	totalPages := 1
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * perPage
	rangeStart := 0
	rangeEnd := 0
	if total > 0 {
		rangeStart = offset + 1
		rangeEnd = offset + perPage
		if rangeEnd > total {
			rangeEnd = total
		}
	}

	p := Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		Offset:     offset,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	}
	if r == nil {
		return p
	}
	link := func(target int) string {
		q := cloneValues(r.URL.Query())
		q.Set("page", strconv.Itoa(target))
		q.Set("per_page", strconv.Itoa(perPage))
		return r.URL.Path + "?" + q.Encode()
	}
	if page > 1 {
		p.Prev = link(page - 1)
	}
	if page < totalPages {
		p.Next = link(page + 1)
	}
	return p
}

// Slice retorna la porció d'items de la pàgina.
func Slice[T any](items []T, p Pagination) []T {
	start, end := p.Offset, p.Offset+p.PerPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
