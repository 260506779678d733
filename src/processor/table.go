package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Dataset column names.
const (
	ColName         = "name"
	ColElevationFt  = "elevation_ft"
	ColElevationM   = "elevation_m"
	ColISORegion    = "iso_region"
	ColType         = "type"
	ColLatitudeDeg  = "latitude_deg"
	ColLongitudeDeg = "longitude_deg"
)

// RequiredColumns must be present and non-empty for a row to be admitted.
var RequiredColumns = []string{
	ColName,
	ColElevationFt,
	ColISORegion,
	ColType,
	ColLatitudeDeg,
	ColLongitudeDeg,
}

// Record is one airport row.
type Record struct {
	Name         string
	ElevationFt  float64
	ISORegion    string
	Type         string
	LatitudeDeg  float64
	LongitudeDeg float64

	// ElevationM is only meaningful when HasMeters is set by WithElevationMeters.
	ElevationM float64
	HasMeters  bool
}

// Table is an ordered sequence of records. Operations in this package never
// modify a Table they are given.
type Table []Record

func (t Table) Len() int     { return len(t) }
func (t Table) Empty() bool  { return len(t) == 0 }
func (t Table) Clone() Table { return append(Table{}, t...) }

// UnknownColumnError is returned when a column name does not exist or has the
// wrong kind for the requested operation.
type UnknownColumnError struct {
	Column string
	Kind   string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown %s column %q", e.Kind, e.Column)
}

type numericAccessor func(Record) float64
type categoryAccessor func(Record) string

func numericColumn(column string) (numericAccessor, error) {
	switch column {
	case ColElevationFt:
		return func(r Record) float64 { return r.ElevationFt }, nil
	case ColElevationM:
		return func(r Record) float64 {
			if r.HasMeters {
				return r.ElevationM
			}
			return ToMeters(r.ElevationFt)
		}, nil
	case ColLatitudeDeg:
		return func(r Record) float64 { return r.LatitudeDeg }, nil
	case ColLongitudeDeg:
		return func(r Record) float64 { return r.LongitudeDeg }, nil
	}
	return nil, &UnknownColumnError{Column: column, Kind: "numeric"}
}

func categoryColumn(column string) (categoryAccessor, error) {
	switch column {
	case ColName:
		return func(r Record) string { return r.Name }, nil
	case ColISORegion:
		return func(r Record) string { return r.ISORegion }, nil
	case ColType:
		return func(r Record) string { return r.Type }, nil
	}
	return nil, &UnknownColumnError{Column: column, Kind: "categorical"}
}

// Floats returns the values of a numeric column in table order.
func (t Table) Floats(column string) ([]float64, error) {
	get, err := numericColumn(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = get(r)
	}
	return out, nil
}

// Strings returns the values of a categorical column in table order.
func (t Table) Strings(column string) ([]string, error) {
	get, err := categoryColumn(column)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = get(r)
	}
	return out, nil
}

// Frame renders the selected columns as a DataFrame for display.
func (t Table) Frame(columns ...string) (dataframe.DataFrame, error) {
	list := make([]series.Series, 0, len(columns))
	for _, col := range columns {
		if values, err := t.Floats(col); err == nil {
			list = append(list, series.New(values, series.Float, col))
			continue
		}
		values, err := t.Strings(col)
		if err != nil {
			return dataframe.DataFrame{}, &UnknownColumnError{Column: col, Kind: "display"}
		}
		list = append(list, series.New(values, series.String, col))
	}

	df := dataframe.New(list...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %w", df.Err)
	}
	return df, nil
}
