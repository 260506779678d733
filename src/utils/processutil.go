package utils

import (
	"math"

	"github.com/go-gota/gota/dataframe"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether df carries a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names in want that df does not carry, in want order.
func MissingColumns(df dataframe.DataFrame, want []string) []string {
	var missing []string
	for _, name := range want {
		if !HasColumn(df, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Round2 rounds half away from zero to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
