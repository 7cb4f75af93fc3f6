package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageIDs(t *testing.T) {
	ids := []uint64{10, 11, 12, 13, 14, 15, 16}

	tests := []struct {
		name      string
		cursor    uint64
		limit     uint64
		want      []uint64
		newCursor uint64
	}{
		{"tail shorter than limit", 5, 10, []uint64{15, 16}, 7},
		{"cursor at end", 7, 10, []uint64{}, 7},
		{"cursor past end", 100, 10, []uint64{}, 100},
		{"full page", 0, 3, []uint64{10, 11, 12}, 3},
		{"exact remainder", 4, 3, []uint64{14, 15, 16}, 7},
		{"zero limit", 2, 0, []uint64{}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cursor := pageIDs(ids, tt.cursor, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.newCursor, cursor)
		})
	}
}

func TestPageIDsEmptyIndex(t *testing.T) {
	got, cursor := pageIDs(nil, 0, 10)
	assert.Empty(t, got)
	assert.Equal(t, uint64(0), cursor)
}
