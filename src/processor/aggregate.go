package processor

import (
	"slices"
)

// CategoryCount is one histogram bucket.
type CategoryCount struct {
	Category string
	Count    int
}

// CategoryHistogram maps each category value to its row count. Keys iterate in
// ascending order.
type CategoryHistogram struct {
	Column string
	counts map[string]int
	keys   []string
}

// Histogram counts the rows of t per value of a categorical column. Callers
// pass the full loaded table; the result does not depend on any selection.
func Histogram(t Table, column string) (CategoryHistogram, error) {
	get, err := categoryColumn(column)
	if err != nil {
		return CategoryHistogram{}, err
	}

	h := CategoryHistogram{Column: column, counts: make(map[string]int)}
	for _, r := range t {
		key := get(r)
		if _, ok := h.counts[key]; !ok {
			h.keys = append(h.keys, key)
		}
		h.counts[key]++
	}
	slices.Sort(h.keys)
	return h, nil
}

func (h CategoryHistogram) Count(category string) int { return h.counts[category] }

// Total is the number of rows the histogram was built from.
func (h CategoryHistogram) Total() int {
	total := 0
	for _, n := range h.counts {
		total += n
	}
	return total
}

func (h CategoryHistogram) Entries() []CategoryCount {
	out := make([]CategoryCount, 0, len(h.keys))
	for _, k := range h.keys {
		out = append(out, CategoryCount{Category: k, Count: h.counts[k]})
	}
	return out
}

// DistinctValues returns the sorted distinct values of a categorical column.
func DistinctValues(t Table, column string) ([]string, error) {
	h, err := Histogram(t, column)
	if err != nil {
		return nil, err
	}
	return slices.Clone(h.keys), nil
}
