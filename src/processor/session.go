package processor

import (
	"AirportsExplorer/src/storage"
	"AirportsExplorer/src/utils"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNoData is returned by Compute when the loaded table is empty.
var ErrNoData = errors.New("no airport data loaded")

// SelectionError reports a selector value that does not occur in the loaded table.
type SelectionError struct {
	Column string
	Value  string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s %q does not occur in the dataset", e.Column, e.Value)
}

// ChartYLabel labels the elevation axis.
const ChartYLabel = "Elevation (ft)"

// TopTitle names the ranked table and chart for n airports.
func TopTitle(n int) string {
	return fmt.Sprintf("Top %d Airports by Elevation", n)
}

// Selection is the (state, type) pair picked by the user.
type Selection struct {
	State string
	Type  string
}

// Options tune a session.
type Options struct {
	TopN        int
	NameKeyword string
	Logger      *storage.Logger
}

// Summary is an (average, count) pair.
type Summary struct {
	Average float64
	Count   int
}

// BarChart is the payload for a labelled bar chart.
type BarChart struct {
	Title  string
	YLabel string
	Labels []string
	Values []float64
}

// MapPoint is one airport on the map.
type MapPoint struct {
	Latitude    float64
	Longitude   float64
	Name        string
	ElevationFt float64
}

// View holds everything one pass computes for a selection.
type View struct {
	Selection   Selection
	Filtered    Table // filtered rows carrying elevation_m
	Top         Table
	Chart       BarChart
	Feet        Summary
	Meters      Summary
	NameKeyword string
	NameMatches []string
	Types       CategoryHistogram // over the whole dataset
	Points      []MapPoint
	Elapsed     time.Duration
}

// Session owns the loaded table for its lifetime and recomputes a View each
// time the selection changes.
type Session struct {
	table  Table
	opts   Options
	states []string
	types  []string
}

// NewSession wraps a loaded table.
func NewSession(t Table, opts Options) *Session {
	if opts.TopN == 0 {
		opts.TopN = 5
	}
	if opts.NameKeyword == "" {
		opts.NameKeyword = "airport"
	}
	if opts.Logger == nil {
		opts.Logger = storage.NewLoggerTo(io.Discard)
	}

	states, _ := DistinctValues(t, ColISORegion)
	types, _ := DistinctValues(t, ColType)
	return &Session{
		table:  t,
		opts:   opts,
		states: states,
		types:  types,
	}
}

// Table returns the loaded table. Callers must not modify it.
func (s *Session) Table() Table { return s.table }

// Empty reports whether there is anything to show.
func (s *Session) Empty() bool { return s.table.Empty() }

// States are the selectable state codes, sorted.
func (s *Session) States() []string { return append([]string(nil), s.states...) }

// Types are the selectable airport types, sorted.
func (s *Session) Types() []string { return append([]string(nil), s.types...) }

// DefaultSelection is the first state and the first type, or the zero
// Selection for an empty session.
func (s *Session) DefaultSelection() Selection {
	if len(s.states) == 0 || len(s.types) == 0 {
		return Selection{}
	}
	return Selection{State: s.states[0], Type: s.types[0]}
}

// Validate checks that both selector values occur in the loaded table.
func (s *Session) Validate(sel Selection) error {
	if !utils.Contains(s.states, sel.State) {
		return &SelectionError{Column: ColISORegion, Value: sel.State}
	}
	if !utils.Contains(s.types, sel.Type) {
		return &SelectionError{Column: ColType, Value: sel.Type}
	}
	return nil
}

// Compute runs one full pass for sel: filter, convert, then rank, summarise,
// count names, build the histogram and the map points. The independent steps
// only read the filtered and loaded tables.
func (s *Session) Compute(ctx context.Context, sel Selection) (View, error) {
	if s.table.Empty() {
		return View{}, ErrNoData
	}
	if err := s.Validate(sel); err != nil {
		return View{}, err
	}

	t1 := time.Now()

	// 1. Filter by state and type, then derive meters
	filtered := WithElevationMeters(Filter(s.table, sel.State, sel.Type))

	view := View{
		Selection:   sel,
		Filtered:    filtered,
		NameKeyword: s.opts.NameKeyword,
	}

	// 2. Derivations fan out over read-only inputs
	g, gctx := errgroup.WithContext(ctx)
	run := func(fn func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	run(func() error {
		top, err := TopN(filtered, ColElevationFt, s.opts.TopN)
		if err != nil {
			return err
		}
		view.Top = top
		view.Chart = NewBarChart(TopTitle(s.opts.TopN), top, ColElevationFt)
		return nil
	})
	run(func() error {
		avg, n, err := StatsOf(filtered, ColElevationFt)
		view.Feet = Summary{Average: avg, Count: n}
		return err
	})
	run(func() error {
		avg, n, err := StatsOf(filtered, ColElevationM)
		view.Meters = Summary{Average: avg, Count: n}
		return err
	})
	run(func() error {
		view.NameMatches = MatchingNames(filtered, s.opts.NameKeyword)
		return nil
	})
	run(func() error {
		h, err := Histogram(s.table, ColType)
		view.Types = h
		return err
	})
	run(func() error {
		view.Points = MapPoints(filtered)
		return nil
	})

	if err := g.Wait(); err != nil {
		return View{}, fmt.Errorf("compute view for %s/%s: %w", sel.State, sel.Type, err)
	}

	view.Elapsed = time.Since(t1)
	s.opts.Logger.WithFields(logrus.Fields{
		"state":    sel.State,
		"type":     sel.Type,
		"matched":  filtered.Len(),
		"duration": view.Elapsed.String(),
	}).Debug("view computed")

	return view, nil
}

// NewBarChart turns a ranked table into bar labels and heights.
func NewBarChart(title string, t Table, column string) BarChart {
	chart := BarChart{
		Title:  title,
		YLabel: ChartYLabel,
		Labels: make([]string, 0, len(t)),
		Values: make([]float64, 0, len(t)),
	}
	values, err := t.Floats(column)
	if err != nil {
		return chart
	}
	for i, r := range t {
		chart.Labels = append(chart.Labels, r.Name)
		chart.Values = append(chart.Values, values[i])
	}
	return chart
}

// MapPoints extracts coordinates with their hover details.
func MapPoints(t Table) []MapPoint {
	out := make([]MapPoint, 0, len(t))
	for _, r := range t {
		out = append(out, MapPoint{
			Latitude:    r.LatitudeDeg,
			Longitude:   r.LongitudeDeg,
			Name:        r.Name,
			ElevationFt: r.ElevationFt,
		})
	}
	return out
}

// StatLines formats the statistics shown under the chart.
func (v View) StatLines() []string {
	return []string{
		fmt.Sprintf("Average Elevation for %s airports in %s: %.2f ft across %d airports.",
			v.Selection.Type, v.Selection.State, v.Feet.Average, v.Feet.Count),
		fmt.Sprintf("Average Elevation for %s airports in %s: %.2f m across %d airports.",
			v.Selection.Type, v.Selection.State, v.Meters.Average, v.Meters.Count),
		fmt.Sprintf("Airports with '%s' in the name: %d", v.NameKeyword, len(v.NameMatches)),
	}
}
