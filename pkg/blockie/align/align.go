package align

import "strings"

// Column returns the zero-based display column reached after writing s,
// counted from its last newline. Tabs advance to the next multiple of tab.
func Column(s string, tab int) int {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	col := 0
	for _, r := range s {
		if r == '\t' && tab > 0 {
			col += tab - col%tab
			continue
		}
		col++
	}
	return col
}

// Pad returns the number of spaces that move column col to target.
func Pad(col, target int) int {
	if target <= col {
		return 0
	}
	return target - col
}

// Join concatenates the segments of every member of a sibling group. Before
// the k-th segment boundary it inserts spaces so that the boundary falls on the
// largest column any member reaches there. Members with fewer segments take
// part only in the boundaries they have.
func Join(members [][]string, tab int) []string {
	out := make([]string, len(members))
	maxSegments := 0
	for i, segs := range members {
		if len(segs) > 0 {
			out[i] = segs[0]
		}
		maxSegments = max(maxSegments, len(segs))
	}

	cols := make([]int, len(members))
	for k := 1; k < maxSegments; k++ {
		target := 0
		for i, segs := range members {
			if k < len(segs) {
				cols[i] = Column(out[i], tab)
				target = max(target, cols[i])
			}
		}
		for i, segs := range members {
			if k < len(segs) {
				out[i] += strings.Repeat(" ", Pad(cols[i], target)) + segs[k]
			}
		}
	}
	return out
}
