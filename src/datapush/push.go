package datapush

import (
	"AirportsExplorer/src/processor"
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Page headings.
const (
	PageTitle       = "New England Airports Viewer"
	SidebarHeader   = "Filter Options"
	ChartHeading    = "Elevation Chart"
	TypeCountsLabel = "Airport Type Counts:"
	MapHeading      = "Airport Locations on Map"
	MapDetailLabel  = "Detailed Airport Info (Simulated Hover)"
	MetersHeading   = "Elevation in Meters"
)

// Map detail columns after renaming the coordinate columns.
const (
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

// Push hands a computed view to p in page order. An empty session shows
// nothing; the load diagnostic has already been reported.
func Push(p Presenter, s *processor.Session, view processor.View) error {
	if s.Empty() {
		return nil
	}

	// 1. Page chrome and selectors
	p.Title(PageTitle)
	p.Header(SidebarHeader)
	p.Selectors(s.States(), s.Types(), view.Selection)

	// 2. Ranked table and chart
	p.Subheader(view.Chart.Title)
	top, err := view.Top.Frame(processor.ColName, processor.ColElevationFt)
	if err != nil {
		return fmt.Errorf("top grid: %w", err)
	}
	p.Grid(top)

	p.Subheader(ChartHeading)
	p.BarChart(view.Chart)

	// 3. Statistics and the dataset-wide type counts
	for _, line := range view.StatLines() {
		p.Text(line)
	}
	p.Text(TypeCountsLabel)
	p.Histogram(view.Types)

	// 4. Map with its detail grid
	p.Subheader(MapHeading)
	p.Map(view.Points)

	detail, err := MapDetail(view.Filtered)
	if err != nil {
		return err
	}
	p.Text(MapDetailLabel)
	p.Grid(detail)

	// 5. Converted elevations
	p.Subheader(MetersHeading)
	meters, err := view.Filtered.Frame(processor.ColName, processor.ColElevationFt, processor.ColElevationM)
	if err != nil {
		return fmt.Errorf("meters grid: %w", err)
	}
	p.Grid(meters)

	return nil
}

// MapDetail is the hover grid for the map: name, elevation and the
// coordinates under their map names.
func MapDetail(t processor.Table) (dataframe.DataFrame, error) {
	df, err := t.Frame(processor.ColName, processor.ColElevationFt, processor.ColLatitudeDeg, processor.ColLongitudeDeg)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("map detail grid: %w", err)
	}
	df = df.Rename(ColLatitude, processor.ColLatitudeDeg).Rename(ColLongitude, processor.ColLongitudeDeg)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("map detail grid: %w", df.Err)
	}
	return df, nil
}
