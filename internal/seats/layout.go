package seats

// rowSpec lists the columns present in one row of the venue
type rowSpec struct {
	row     string
	columns []int
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for c := from; c <= to; c++ {
		out = append(out, c)
	}
	return out
}

func without(cols []int, drop ...int) []int {
	skip := make(map[int]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]int, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

func letters(from, to byte) []string {
	out := make([]string, 0, to-from+1)
	for r := from; r <= to; r++ {
		out = append(out, string(r))
	}
	return out
}

func stageRows() []rowSpec {
	var rows []rowSpec
	for _, r := range letters('A', 'T') {
		switch r {
		case "A":
			rows = append(rows, rowSpec{r, span(1, 26)})
		case "S", "T":
			rows = append(rows, rowSpec{r, span(5, 28)})
		default:
			rows = append(rows, rowSpec{r, span(1, 28)})
		}
	}
	return rows
}

func balconyRows() []rowSpec {
	var rows []rowSpec
	for _, r := range letters('A', 'N') {
		cols := span(1, 29)
		switch r {
		case "A", "B", "C", "D", "E", "F":
			cols = span(9, 29)
		case "K":
			cols = without(cols, 28)
		case "L":
			cols = without(cols, 28, 26, 24)
		case "M", "N":
			cols = without(cols, 28, 26, 24, 22)
		}
		rows = append(rows, rowSpec{r, cols})
	}
	return rows
}

// DefaultLayout returns every seat of the house: twenty stage rows and
// fourteen balcony rows with the aisle gaps of the real venue.
func DefaultLayout() []Seat {
	var out []Seat
	for _, spec := range []struct {
		class SeatClass
		rows  []rowSpec
	}{
		{ClassStage, stageRows()},
		{ClassBalcony, balconyRows()},
	} {
		for _, row := range spec.rows {
			for _, col := range row.columns {
				out = append(out, Seat{Row: row.row, Column: col, Class: spec.class})
			}
		}
	}
	return out
}
