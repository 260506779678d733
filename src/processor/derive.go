package processor

import (
	"AirportsExplorer/src/utils"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// FeetToMeters is the exact international foot.
const FeetToMeters = 0.3048

// ToMeters converts feet to meters rounded to two decimals.
func ToMeters(ft float64) float64 {
	return utils.Round2(ft * FeetToMeters)
}

// WithElevationMeters returns a copy of t carrying elevation_m on every record.
func WithElevationMeters(t Table) Table {
	out := make(Table, len(t))
	for i, r := range t {
		r.ElevationM = ToMeters(r.ElevationFt)
		r.HasMeters = true
		out[i] = r
	}
	return out
}

// Stats returns the average elevation_ft and the record count.
func Stats(t Table) (average float64, count int) {
	average, count, _ = StatsOf(t, ColElevationFt)
	return average, count
}

// StatsOf returns the average of a numeric column and the record count.
// An empty table yields (0, 0).
func StatsOf(t Table, column string) (average float64, count int, err error) {
	get, err := numericColumn(column)
	if err != nil {
		return 0, 0, err
	}

	count = len(t)
	if count == 0 {
		return 0, 0, nil
	}

	var total float64
	for _, r := range t {
		total += get(r)
	}
	return total / float64(count), count, nil
}

// NamesContaining lazily yields the names containing sub, compared under
// Unicode case folding.
func NamesContaining(t Table, sub string) iter.Seq[string] {
	return func(yield func(string) bool) {
		// a Caser carries state, so each iteration gets its own
		fold := cases.Fold()
		needle := fold.String(sub)
		for _, r := range t {
			if strings.Contains(fold.String(r.Name), needle) {
				if !yield(r.Name) {
					return
				}
			}
		}
	}
}

// MatchingNames collects NamesContaining.
func MatchingNames(t Table, sub string) []string {
	return slices.Collect(NamesContaining(t, sub))
}

// CountContaining counts the names containing sub.
func CountContaining(t Table, sub string) int {
	n := 0
	for range NamesContaining(t, sub) {
		n++
	}
	return n
}
