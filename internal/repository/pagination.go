package repository

import "math"

const (
	DefaultPageSize int32 = 20
	MaxPageSize     int32 = 100
)

// Page turns a 1-based page number and size into limit/offset, applying the
// default and maximum page sizes. Offsets past math.MaxInt32 are clamped, so a
// huge page number yields an empty page.
func Page(page, pageSize int32) (limit, offset int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	off := int64(page-1) * int64(pageSize)
	if off > math.MaxInt32 {
		off = math.MaxInt32
	}
	return pageSize, int32(off)
}
