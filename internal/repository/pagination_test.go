package repository

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int32
		wantLimit      int32
		wantOffset     int32
	}{
		{"Defaults", 0, 0, DefaultPageSize, 0},
		{"Second page", 2, 10, 10, 10},
		{"Size capped", 1, 1000, MaxPageSize, 0},
		{"Negative page", -5, 10, 10, 0},
		{"Offset clamped", math.MaxInt32, 100, 100, math.MaxInt32},
		{"Large page without overflow", 21474837, 100, 100, 2147483600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := Page(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.GreaterOrEqual(t, offset, int32(0))
		})
	}
}
