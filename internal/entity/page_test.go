package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPaging(t *testing.T) {
	tests := []struct {
		page, size, def    int
		wantPage, wantSize int
	}{
		{0, 0, 18, 1, 18},
		{-3, 500, 18, 1, 100},
		{2, 7, 20, 2, 7},
		{1, -1, 20, 1, 20},
	}
	for _, tt := range tests {
		p, s := ClampPaging(tt.page, tt.size, tt.def)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSize, s)
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage[int](nil, 41, 3, 20)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPage([]int{}, 0, 1, 20).TotalPages)
	assert.Equal(t, 40, Offset(3, 20))
}

func TestAnnotate(t *testing.T) {
	v := Annotate(&Member{Name: "A", BirthYear: 1990, IsMale: true}, 2026)
	assert.Equal(t, 37, v.ApparentAge)
	assert.Equal(t, "La Hầu", v.Star)
	assert.Equal(t, "A", v.Name)
}
