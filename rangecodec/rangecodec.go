// Package rangecodec renders integer selections as compact range strings such
// as "1-3, 5, 7-9".
package rangecodec

import (
	"slices"
	"strconv"
	"strings"
)

// Encode groups consecutive runs of values into "a-b" segments and renders
// singletons as "a". Segments are joined by ", ". The input is sorted and
// deduplicated on a copy before grouping, so callers may pass any order.
func Encode(values []int) string {
	if len(values) == 0 {
		return ""
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	start := sorted[0]
	prev := sorted[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(start))
		if prev != start {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(prev))
		}
	}
	for _, value := range sorted[1:] {
		if value == prev+1 {
			prev = value
			continue
		}
		flush()
		start, prev = value, value
	}
	flush()
	return b.String()
}

// Span renders a contiguous interval as "first-last".
func Span(first, last int) string {
	return strconv.Itoa(first) + "-" + strconv.Itoa(last)
}

// Expand returns every integer in the inclusive interval [first, last]. An
// inverted interval is expanded from last to first.
func Expand(first, last int) []int {
	if first > last {
		first, last = last, first
	}
	out := make([]int, 0, last-first+1)
	for value := first; value <= last; value++ {
		out = append(out, value)
	}
	return out
}
