package seats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLayoutCounts(t *testing.T) {
	layout := DefaultLayout()

	perClass := map[SeatClass]int{}
	positions := map[string]bool{}
	for i := range layout {
		perClass[layout[i].Class]++
		key := layout[i].DisplayName()
		assert.False(t, positions[key], "duplicate seat %s", key)
		positions[key] = true
	}

	assert.Equal(t, 550, perClass[ClassStage])
	assert.Equal(t, 346, perClass[ClassBalcony])
	assert.Len(t, layout, 896)
}

func TestDefaultLayoutGaps(t *testing.T) {
	has := func(class SeatClass, row string, col int) bool {
		for _, s := range DefaultLayout() {
			if s.Class == class && s.Row == row && s.Column == col {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name   string
		class  SeatClass
		row    string
		col    int
		exists bool
	}{
		{"stage A ends at 26", ClassStage, "A", 27, false},
		{"stage B is full width", ClassStage, "B", 28, true},
		{"stage T starts at 5", ClassStage, "T", 4, false},
		{"balcony A starts at 9", ClassBalcony, "A", 8, false},
		{"balcony G starts at 1", ClassBalcony, "G", 1, true},
		{"balcony L skips 26", ClassBalcony, "L", 26, false},
		{"balcony N skips 22", ClassBalcony, "N", 22, false},
		{"balcony N keeps 23", ClassBalcony, "N", 23, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.exists, has(tt.class, tt.row, tt.col))
		})
	}
}

func TestSeatLabels(t *testing.T) {
	seat := Seat{Row: "C", Column: 12, Class: ClassBalcony}

	assert.Equal(t, "C12", seat.Label())
	assert.Equal(t, "Balcony C12", seat.DisplayName())
	assert.True(t, ClassStage.Valid())
	assert.False(t, SeatClass("PIT").Valid())
}
