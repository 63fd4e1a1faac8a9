package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOffset(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want int
	}{
		{"first page", Page{Page: 1, Limit: 6}, 0},
		{"third page", Page{Page: 3, Limit: 6}, 12},
		{"zero page", Page{Page: 0, Limit: 6}, 0},
		{"zero limit", Page{Page: 4, Limit: 0}, 0},
		{"saturates", Page{Page: math.MaxInt, Limit: 100}, math.MaxInt},
		{"largest exact", Page{Page: math.MaxInt/100 + 1, Limit: 100}, (math.MaxInt / 100) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.page.Offset())
		})
	}
}

func TestPageTotalPages(t *testing.T) {
	assert.Equal(t, 3, Page{Page: 1, Limit: 6}.TotalPages(13))
	assert.Equal(t, 0, Page{Page: 1, Limit: 6}.TotalPages(0))
}
