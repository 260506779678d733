package file

import (
	"AirportsExplorer/src/config"
	"AirportsExplorer/src/processor"
	"AirportsExplorer/src/storage"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type recordingDiag struct {
	messages []string
}

func (d *recordingDiag) Error(msg string) { d.messages = append(d.messages, msg) }

func newTestLogger() (*storage.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return storage.NewLoggerTo(buf), buf
}

func TestLoadCSV(t *testing.T) {
	logger, buf := newTestLogger()

	table, err := Load(context.Background(), Source{Path: "testdata/airports.csv"}, logger)
	require.NoError(t, err)
	require.Len(t, table, 4)

	logan := table[0]
	assert.Equal(t, "General Edward Lawrence Logan International Airport", logan.Name)
	assert.Equal(t, "large_airport", logan.Type)
	assert.Equal(t, "US-MA", logan.ISORegion)
	assert.Equal(t, 20.0, logan.ElevationFt)
	assert.InDelta(t, 42.3643, logan.LatitudeDeg, 1e-9)
	assert.InDelta(t, -71.005203, logan.LongitudeDeg, 1e-9)
	assert.False(t, logan.HasMeters)

	names, err := table.Strings(processor.ColName)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"General Edward Lawrence Logan International Airport",
		"Small Field",
		"Summit Heliport",
		"Bangor International Airport",
	}, names)

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "latitude_deg")
	assert.Contains(t, out, "admitted=4")
	assert.Contains(t, out, "incomplete=1")
	assert.Contains(t, out, "invalid=1")
}

func TestLoadMissingFile(t *testing.T) {
	logger, _ := newTestLogger()

	table, err := Load(context.Background(), Source{Path: "testdata/nope.csv"}, logger)
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestLoadOrEmptyReportsFailure(t *testing.T) {
	logger, buf := newTestLogger()
	diag := &recordingDiag{}

	table := LoadOrEmpty(context.Background(), Source{Path: "testdata/nope.csv"}, diag, logger)
	assert.NotNil(t, table)
	assert.True(t, table.Empty())
	assert.Equal(t, []string{LoadFailedMessage}, diag.messages)
	assert.Contains(t, buf.String(), "level=error")
}

func TestLoadOrEmptySuccess(t *testing.T) {
	logger, _ := newTestLogger()
	diag := &recordingDiag{}

	table := LoadOrEmpty(context.Background(), Source{Path: "testdata/airports.csv"}, diag, logger)
	assert.Len(t, table, 4)
	assert.Empty(t, diag.messages)
}

func TestLoadMalformedCSV(t *testing.T) {
	logger, _ := newTestLogger()

	_, err := Load(context.Background(), Source{Path: "testdata/malformed.csv"}, logger)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "parse csv", perr.Op)
}

func TestLoadHeaderOnly(t *testing.T) {
	logger, _ := newTestLogger()

	_, err := Load(context.Background(), Source{Path: "testdata/header_only.csv"}, logger)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestLoadMissingColumns(t *testing.T) {
	logger, _ := newTestLogger()

	_, err := Load(context.Background(), Source{Path: "testdata/missing_columns.csv"}, logger)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{processor.ColElevationFt, processor.ColISORegion}, serr.Missing)
}

func TestLoadColumnMapping(t *testing.T) {
	logger, _ := newTestLogger()
	src := Source{
		Path: "testdata/renamed.csv",
		Columns: &config.DataConfig{Columns: map[string]string{
			processor.ColName:         "airport_name",
			processor.ColType:         "kind",
			processor.ColLatitudeDeg:  "lat",
			processor.ColLongitudeDeg: "lon",
			processor.ColElevationFt:  "elevation",
			processor.ColISORegion:    "region",
		}},
	}

	table, err := Load(context.Background(), src, logger)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "Bangor International Airport", table[1].Name)
	assert.Equal(t, "medium_airport", table[1].Type)
	assert.Equal(t, "US-ME", table[1].ISORegion)
	assert.Equal(t, 192.0, table[1].ElevationFt)
}

func TestInvalidRowError(t *testing.T) {
	df, err := readFrame(Source{Path: "testdata/airports.csv"})
	require.NoError(t, err)

	table, invalid := toTable(dropIncomplete(numberRows(df)))
	assert.Len(t, table, 4)
	require.Len(t, invalid, 1)

	rowErr := invalid[0]
	assert.Equal(t, 6, rowErr.Row)
	assert.Equal(t, processor.ColLatitudeDeg, rowErr.Column)
	assert.Equal(t, "abc", rowErr.Value)
	assert.True(t, errors.Is(rowErr, strconv.ErrSyntax))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airports.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDropsNullTokens(t *testing.T) {
	path := writeCSV(t, "name,type,latitude_deg,longitude_deg,elevation_ft,iso_region\n"+
		"Small Field,small_airport,42.1,-71.5,100,US-MA\n"+
		"Nan Elev Field,small_airport,42.2,-71.6,nan,US-MA\n"+
		"Null Type Field,NULL,42.3,-71.7,120,US-MA\n"+
		"Slash Field,small_airport,N/A,-71.8,130,US-MA\n"+
		"None Field,small_airport,42.4,-71.9,140,None\n"+
		"Excel Field,small_airport,42.5,#N/A,150,US-MA\n"+
		"Lower Null Field,null,42.6,-72.0,160,US-MA\n")

	logger, buf := newTestLogger()
	table, err := Load(context.Background(), Source{Path: path}, logger)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Small Field", table[0].Name)
	assert.Contains(t, buf.String(), "incomplete=6")
}

func TestLoadRejectsNonFiniteNumbers(t *testing.T) {
	path := writeCSV(t, "name,type,latitude_deg,longitude_deg,elevation_ft,iso_region\n"+
		"Small Field,small_airport,42.1,-71.5,100,US-MA\n"+
		"Infinite Field,small_airport,42.2,-71.6,inf,US-MA\n"+
		"Sunken Field,small_airport,42.3,-71.7,-Infinity,US-MA\n"+
		"Odd NaN Field,small_airport,42.4,-71.8,NAN,US-MA\n")

	df, err := readFrame(Source{Path: path})
	require.NoError(t, err)

	table, invalid := toTable(dropIncomplete(numberRows(df)))
	require.Len(t, table, 1)
	require.Len(t, invalid, 3)
	for _, rowErr := range invalid {
		assert.Equal(t, processor.ColElevationFt, rowErr.Column)
		assert.ErrorIs(t, rowErr, errNotFinite)
	}
	assert.Equal(t, 2, invalid[0].Row)

	avg, n := processor.Stats(table)
	assert.Equal(t, 100.0, avg)
	assert.Equal(t, 1, n)
}

func TestLoadShortRowIsDropped(t *testing.T) {
	path := writeCSV(t, "name,type,latitude_deg,longitude_deg,elevation_ft,iso_region\n"+
		"Small Field,small_airport,42.1,-71.5,100,US-MA\n"+
		"Short Field,small_airport,42.2,-71.6,110\n"+
		"\n"+
		"Bangor International Airport,medium_airport,44.8074,-68.828102,192,US-ME\n")

	logger, buf := newTestLogger()
	table, err := Load(context.Background(), Source{Path: path}, logger)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "Bangor International Airport", table[1].Name)
	assert.Contains(t, buf.String(), "incomplete=1")
}

func TestLoadLongRowFails(t *testing.T) {
	path := writeCSV(t, "name,type,latitude_deg,longitude_deg,elevation_ft,iso_region\n"+
		"Small Field,small_airport,42.1,-71.5,100,US-MA,extra\n")

	logger, _ := newTestLogger()
	_, err := Load(context.Background(), Source{Path: path}, logger)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "parse csv", perr.Op)
	assert.Contains(t, perr.Error(), "line 2 has 7 fields")
}

func TestPadRecords(t *testing.T) {
	got, err := padRecords([][]string{{"a", "b", "c"}, {"1"}, {}, {"1", "2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "", ""}, {"1", "2", "3"}}, got)

	got, err = padRecords(nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadUTF8WithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	content := "\xEF\xBB\xBFname,type,latitude_deg,longitude_deg,elevation_ft,iso_region\n" +
		"Small Field,small_airport,42.1,-71.5,100,US-MA\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	logger, _ := newTestLogger()
	table, err := Load(context.Background(), Source{Path: path}, logger)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Small Field", table[0].Name)
}

func TestLoadLatin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.csv")
	content := "name,type,latitude_deg,longitude_deg,elevation_ft,iso_region\n" +
		"A\xE9rodrome du Lac,seaplane_base,45.1,-69.2,1030,US-ME\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	logger, _ := newTestLogger()
	table, err := Load(context.Background(), Source{Path: path, Encoding: "latin1"}, logger)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Aérodrome du Lac", table[0].Name)
}

func TestLoadUnsupportedEncoding(t *testing.T) {
	logger, _ := newTestLogger()

	_, err := Load(context.Background(), Source{Path: "testdata/airports.csv", Encoding: "ebcdic"}, logger)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "decode", perr.Op)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger, _ := newTestLogger()
	_, err := Load(ctx, Source{Path: "testdata/airports.csv"}, logger)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	xl := excelize.NewFile()
	defer xl.Close()

	if sheet != "Sheet1" {
		require.NoError(t, xl.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, xl.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "airports.xlsx")
	require.NoError(t, xl.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t, "Airports", [][]any{
		{"name", "type", "iso_region", "latitude_deg", "longitude_deg", "elevation_ft"},
		{"Small Field", "small_airport", "US-MA", "42.1", "-71.5", "100"},
		{"Summit Heliport", "heliport", "US-NH", "44.27", "-71.3", "6288"},
		// trailing empty elevation is trimmed by excelize
		{"No Elevation Strip", "small_airport", "US-VT", "44", "-72.5"},
	})

	logger, _ := newTestLogger()
	table, err := Load(context.Background(), Source{Path: path, SheetName: "Airports"}, logger)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "Summit Heliport", table[1].Name)
	assert.Equal(t, 6288.0, table[1].ElevationFt)

	// first sheet when no name is given
	table, err = Load(context.Background(), Source{Path: path}, logger)
	require.NoError(t, err)
	assert.Len(t, table, 2)
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	path := writeWorkbook(t, "Airports", [][]any{
		{"name", "type", "iso_region", "latitude_deg", "longitude_deg", "elevation_ft"},
	})

	logger, _ := newTestLogger()
	_, err := Load(context.Background(), Source{Path: path, SheetName: "Heliports"}, logger)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "Heliports")
}

func TestLoadXLSXCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	logger, _ := newTestLogger()
	_, err := Load(context.Background(), Source{Path: path}, logger)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "open xlsx", perr.Op)
}
