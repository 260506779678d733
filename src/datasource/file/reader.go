// reader.go
package file

import (
	"AirportsExplorer/src/processor"
	"AirportsExplorer/src/storage"
	"AirportsExplorer/src/utils"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadFailedMessage is the diagnostic shown to the user when loading fails.
const LoadFailedMessage = "Error loading the dataset. Please check the file."

// rowColumn carries the 1-based data row number through filtering.
const rowColumn = "__row"

// nanValues are read as missing cells: the usual spreadsheet and database
// spellings of a null.
var nanValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "<nil>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// errNotFinite is wrapped by InvalidRowError for NaN and infinite values.
var errNotFinite = errors.New("not a finite number")

// ErrSourceMissing reports that the data source does not exist.
var ErrSourceMissing = errors.New("data source not found")

// ParseError reports a data source that exists but cannot be read or decoded.
type ParseError struct {
	Path string
	Op   string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from the header.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns %s", e.Path, strings.Join(e.Missing, ", "))
}

// InvalidRowError describes a row whose numeric field does not parse. Such
// rows are dropped and logged; they never fail a load.
type InvalidRowError struct {
	Row    int // 1-based data row in the source, header excluded
	Column string
	Value  string
	Err    error
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("row %d: %s %q is not a number", e.Row, e.Column, e.Value)
}

func (e *InvalidRowError) Unwrap() error { return e.Err }

// Source names a dataset file and how to read it.
type Source struct {
	Path      string
	SheetName string            // xlsx only; first sheet when empty
	Encoding  string            // csv only; utf-8 when empty
	Columns   ColumnMapper      // nil when headers use the logical names
}

// ColumnMapper returns the header a source file uses for a logical column.
type ColumnMapper interface {
	Column(logical string) string
}

// Diagnostics receives user-visible messages.
type Diagnostics interface {
	Error(msg string)
}

// Load reads src into a Table. Rows missing any required field, or whose
// numeric fields do not parse, are dropped. On error the Table is nil.
func Load(ctx context.Context, src Source, logger *storage.Logger) (processor.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Read the raw sheet into a DataFrame of strings
	df, err := readFrame(src)
	if err != nil {
		return nil, err
	}

	// 2. Map source headers onto the logical column names
	df = renameColumns(df, src.Columns)
	if missing := utils.MissingColumns(df, processor.RequiredColumns); len(missing) > 0 {
		return nil, &SchemaError{Path: src.Path, Missing: missing}
	}

	// 3. Keep rows where every required field is present
	total := df.Nrow()
	df = dropIncomplete(numberRows(df))
	if df.Err != nil {
		return nil, &ParseError{Path: src.Path, Op: "filter", Err: df.Err}
	}

	// 4. Convert to typed records
	table, invalid := toTable(df)
	for _, rowErr := range invalid {
		logger.WithFields(logrus.Fields{"source": src.Path}).Warning(rowErr.Error())
	}

	logger.WithFields(logrus.Fields{
		"source":     src.Path,
		"rows":       total,
		"admitted":   table.Len(),
		"incomplete": total - df.Nrow(),
		"invalid":    len(invalid),
	}).Info("dataset loaded")

	return table, nil
}

// LoadOrEmpty is Load with the failure handled here: the error is logged,
// diag receives LoadFailedMessage and an empty Table is returned.
func LoadOrEmpty(ctx context.Context, src Source, diag Diagnostics, logger *storage.Logger) processor.Table {
	table, err := Load(ctx, src, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("load %s: %v", src.Path, err))
		if diag != nil {
			diag.Error(LoadFailedMessage)
		}
		return processor.Table{}
	}
	return table
}

func readFrame(src Source) (dataframe.DataFrame, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrSourceMissing, src.Path)
		}
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "open", Err: err}
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(src.Path), ".xlsx") {
		return readXLSX(f, src)
	}
	return readCSV(f, src)
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	}
}

func readCSV(r io.Reader, src Source) (dataframe.DataFrame, error) {
	dec, err := decoder(src.Encoding)
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "decode", Err: err}
	}

	// short rows are padded with missing cells and dropped later, not fatal
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "parse csv", Err: err}
	}
	records, err := padRecords(rows)
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "parse csv", Err: err}
	}

	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "parse csv", Err: df.Err}
	}
	return df, nil
}

func readXLSX(r io.Reader, src Source) (dataframe.DataFrame, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "open xlsx", Err: err}
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "open xlsx", Err: errors.New("workbook has no sheets")}
	}
	sheet := sheets[0]
	if src.SheetName != "" {
		if !utils.Contains(sheets, src.SheetName) {
			return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "open xlsx",
				Err: fmt.Errorf("sheet %q not found", src.SheetName)}
		}
		sheet = src.SheetName
	}

	rows, err := xl.GetRows(sheet)
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "read sheet", Err: err}
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "read sheet", Err: errors.New("sheet is empty")}
	}

	// excelize trims trailing empty cells
	records, err := padRecords(rows)
	if err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "parse xlsx", Err: err}
	}

	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, &ParseError{Path: src.Path, Op: "parse xlsx", Err: df.Err}
	}
	return df, nil
}

// padRecords pads every row to the header width and skips empty rows. A row
// wider than the header is an error.
func padRecords(rows [][]string) ([][]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if len(row) > width {
			return nil, fmt.Errorf("line %d has %d fields, header has %d", i+1, len(row), width)
		}
		padded := make([]string, width)
		copy(padded, row)
		records = append(records, padded)
	}
	return records, nil
}

// decoder maps an encoding name to a text decoder. UTF-8 input may carry a BOM.
func decoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "gbk":
		return simplifiedchinese.GBK.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

func renameColumns(df dataframe.DataFrame, mapper ColumnMapper) dataframe.DataFrame {
	if mapper == nil {
		return df
	}
	for _, logical := range processor.RequiredColumns {
		header := mapper.Column(logical)
		if header == "" || header == logical {
			continue
		}
		if utils.HasColumn(df, header) && !utils.HasColumn(df, logical) {
			df = df.Rename(logical, header)
		}
	}
	return df
}

func numberRows(df dataframe.DataFrame) dataframe.DataFrame {
	rows := make([]int, df.Nrow())
	for i := range rows {
		rows[i] = i + 1
	}
	return df.Mutate(series.New(rows, series.Int, rowColumn))
}

func dropIncomplete(df dataframe.DataFrame) dataframe.DataFrame {
	present := func(el series.Element) bool {
		return !el.IsNA() && strings.TrimSpace(el.String()) != ""
	}

	filters := make([]dataframe.F, 0, len(processor.RequiredColumns))
	for _, col := range processor.RequiredColumns {
		filters = append(filters, dataframe.F{
			Colname:    col,
			Comparator: series.CompFunc,
			Comparando: present,
		})
	}
	return df.FilterAggregation(dataframe.And, filters...)
}

func toTable(df dataframe.DataFrame) (processor.Table, []*InvalidRowError) {
	var (
		names   = df.Col(processor.ColName)
		elev    = df.Col(processor.ColElevationFt)
		regions = df.Col(processor.ColISORegion)
		types   = df.Col(processor.ColType)
		lats    = df.Col(processor.ColLatitudeDeg)
		lons    = df.Col(processor.ColLongitudeDeg)
		rows    = df.Col(rowColumn)
	)

	table := make(processor.Table, 0, df.Nrow())
	var invalid []*InvalidRowError

	for i := 0; i < df.Nrow(); i++ {
		var rowErr *InvalidRowError
		number := func(s series.Series, column string) float64 {
			raw := strings.TrimSpace(s.Elem(i).String())
			v, err := strconv.ParseFloat(raw, 64)
			if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				err = errNotFinite
			}
			if err != nil && rowErr == nil {
				row, _ := rows.Elem(i).Int()
				rowErr = &InvalidRowError{Row: row, Column: column, Value: raw, Err: err}
			}
			return v
		}

		r := processor.Record{
			Name:         names.Elem(i).String(),
			ElevationFt:  number(elev, processor.ColElevationFt),
			ISORegion:    regions.Elem(i).String(),
			Type:         types.Elem(i).String(),
			LatitudeDeg:  number(lats, processor.ColLatitudeDeg),
			LongitudeDeg: number(lons, processor.ColLongitudeDeg),
		}
		if rowErr != nil {
			invalid = append(invalid, rowErr)
			continue
		}
		table = append(table, r)
	}
	return table, invalid
}
