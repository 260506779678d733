package processor

import (
	"cmp"
	"slices"
)

// TopN returns the n records with the largest values in column, largest
// first. Ties keep their input order. Fewer than n records are all returned.
func TopN(t Table, column string, n int) (Table, error) {
	get, err := numericColumn(column)
	if err != nil {
		return nil, err
	}
	if n <= 0 || t.Empty() {
		return Table{}, nil
	}

	sorted := t.Clone()
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return cmp.Compare(get(b), get(a))
	})

	if n < len(sorted) {
		sorted = sorted[:n:n]
	}
	return sorted, nil
}
