package entity

import "github.com/joseph-ayodele/anphuc-nienso/internal/lunar"

// MaxPageSize caps every paged listing.
const MaxPageSize = 100

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// ClampPaging forces page >= 1 and pageSize into 1..MaxPageSize; a
// non-positive pageSize takes def.
func ClampPaging(page, pageSize, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = def
	}
	pageSize = min(max(pageSize, 1), MaxPageSize)
	return page, pageSize
}

// Offset is the row offset of page.
func Offset(page, pageSize int) int { return (page - 1) * pageSize }

func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

// MemberView is a member annotated with its fortune for a reference year.
type MemberView struct {
	Member
	lunar.Fortune
}

// Annotate computes the fortune of m for year.
func Annotate(m *Member, year int) MemberView {
	return MemberView{Member: *m, Fortune: lunar.ComputeBool(m.BirthYear, m.IsMale, year)}
}
