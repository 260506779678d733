package datapush

import (
	"AirportsExplorer/src/processor"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/olekukonko/tablewriter"
)

// Presenter displays computed results. Implementations never compute
// anything themselves.
type Presenter interface {
	Title(text string)
	Header(text string)
	Subheader(text string)
	Selectors(states, types []string, sel processor.Selection)
	Grid(df dataframe.DataFrame)
	BarChart(chart processor.BarChart)
	Text(line string)
	Histogram(h processor.CategoryHistogram)
	Map(points []processor.MapPoint)
	Error(msg string)
}

const barWidth = 40

// TextPresenter renders to a terminal.
type TextPresenter struct {
	out io.Writer
}

func NewTextPresenter(out io.Writer) *TextPresenter {
	return &TextPresenter{out: out}
}

func (p *TextPresenter) Title(text string) {
	fmt.Fprintf(p.out, "%s\n%s\n", text, strings.Repeat("=", len(text)))
}

func (p *TextPresenter) Header(text string) {
	fmt.Fprintf(p.out, "\n[%s]\n", text)
}

func (p *TextPresenter) Subheader(text string) {
	fmt.Fprintf(p.out, "\n%s\n%s\n", text, strings.Repeat("-", len(text)))
}

func (p *TextPresenter) Selectors(states, types []string, sel processor.Selection) {
	fmt.Fprintf(p.out, "Select a state: %s  (%s)\n", sel.State, strings.Join(states, ", "))
	fmt.Fprintf(p.out, "Select an airport type: %s  (%s)\n", sel.Type, strings.Join(types, ", "))
}

func (p *TextPresenter) Grid(df dataframe.DataFrame) {
	table := p.newTable(df.Names())
	for i := 0; i < df.Nrow(); i++ {
		row := make([]string, df.Ncol())
		for j := range row {
			row[j] = formatElement(df.Elem(i, j))
		}
		table.Append(row)
	}
	table.Render()
}

func (p *TextPresenter) BarChart(chart processor.BarChart) {
	fmt.Fprintf(p.out, "%s  [%s]\n", chart.Title, chart.YLabel)
	if len(chart.Values) == 0 {
		fmt.Fprintln(p.out, "(no data)")
		return
	}

	var highest float64
	width := 0
	for i, v := range chart.Values {
		highest = max(highest, v)
		width = max(width, len(chart.Labels[i]))
	}
	for i, v := range chart.Values {
		n := 0
		if highest > 0 && v > 0 {
			n = max(1, int(v/highest*barWidth))
		}
		fmt.Fprintf(p.out, "%-*s | %s %s\n", width, chart.Labels[i], strings.Repeat("#", n),
			humanize.FormatFloat("#,###.##", v))
	}
}

func (p *TextPresenter) Text(line string) {
	fmt.Fprintln(p.out, line)
}

func (p *TextPresenter) Histogram(h processor.CategoryHistogram) {
	table := p.newTable([]string{h.Column, "count"})
	for _, entry := range h.Entries() {
		table.Append([]string{entry.Category, humanize.Comma(int64(entry.Count))})
	}
	table.SetFooter([]string{"total", humanize.Comma(int64(h.Total()))})
	table.Render()
}

// Map prints the bounding box of the points; tile rendering is left to
// graphical front ends.
func (p *TextPresenter) Map(points []processor.MapPoint) {
	if len(points) == 0 {
		fmt.Fprintln(p.out, "(no locations)")
		return
	}
	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLon, maxLon := points[0].Longitude, points[0].Longitude
	for _, pt := range points[1:] {
		minLat, maxLat = min(minLat, pt.Latitude), max(maxLat, pt.Latitude)
		minLon, maxLon = min(minLon, pt.Longitude), max(maxLon, pt.Longitude)
	}
	fmt.Fprintf(p.out, "%d locations within latitude [%.4f, %.4f] longitude [%.4f, %.4f]\n",
		len(points), minLat, maxLat, minLon, maxLon)
}

func (p *TextPresenter) Error(msg string) {
	fmt.Fprintf(p.out, "ERROR: %s\n", msg)
}

func (p *TextPresenter) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func formatElement(el series.Element) string {
	if el.IsNA() {
		return ""
	}
	if el.Type() == series.Float {
		return humanize.FormatFloat("#,###.##", el.Float())
	}
	return el.String()
}
