package main

import (
	"AirportsExplorer/src/config"
	"AirportsExplorer/src/datapush"
	"AirportsExplorer/src/datasource/file"
	"AirportsExplorer/src/processor"
	"AirportsExplorer/src/storage"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"
)

type options struct {
	configDir   string
	configFile  string
	dataConfig  string
	dataFile    string
	sheet       string
	encoding    string
	logFile     string
	state       string
	airportType string
	topN        int
	interactive bool
	logAddr     string
	columns     map[string]string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	kingpin.FatalIfError(err, "airports")
}

func newApp(opts *options, out io.Writer) *kingpin.Application {
	app := kingpin.New("airports", datapush.PageTitle+": filter and summarise New England airports.")
	app.UsageWriter(out)
	app.ErrorWriter(out)

	app.Flag("config-dir", "Folder holding the configuration files.").Default("./config").StringVar(&opts.configDir)
	app.Flag("config", "Application configuration file.").Default("config.json").StringVar(&opts.configFile)
	app.Flag("data-config", "Column mapping configuration file.").Default("dataconfig.json").StringVar(&opts.dataConfig)
	app.Flag("data", "Dataset file (.csv or .xlsx), overrides data.file.").StringVar(&opts.dataFile)
	app.Flag("sheet", "Worksheet to read from an .xlsx dataset.").StringVar(&opts.sheet)
	app.Flag("encoding", "Text encoding of a .csv dataset.").StringVar(&opts.encoding)
	app.Flag("log", "Log file, overrides log_name.").StringVar(&opts.logFile)
	app.Flag("state", "State code to select, e.g. US-MA.").Short('s').StringVar(&opts.state)
	app.Flag("type", "Airport type to select, e.g. small_airport.").Short('t').StringVar(&opts.airportType)
	app.Flag("top", "Number of airports in the ranking.").IntVar(&opts.topN)
	app.Flag("interactive", "Read further selections from stdin.").Short('i').BoolVar(&opts.interactive)
	app.Flag("log-addr", "Serve the live log at http://ADDR/logs.").StringVar(&opts.logAddr)
	app.Flag("column", "Map a column to the dataset's header, e.g. elevation_ft=elevation.").
		PlaceHolder("COLUMN=HEADER").StringMapVar(&opts.columns)
	return app
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts := &options{}
	if _, err := newApp(opts, stdout).Parse(args); err != nil {
		return err
	}

	// 1. Configuration, with flags taking precedence
	cfg, dcfg, err := config.LoadConfig(opts.configDir, opts.configFile, opts.dataConfig)
	if err != nil {
		return err
	}
	opts.apply(cfg, dcfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Logging
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		return err
	}
	defer logger.Close()

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LogMaxSize != "" {
		maxSize, err := storage.ParseSize(cfg.LogMaxSize)
		if err != nil {
			return fmt.Errorf("log_max_size: %w", err)
		}
		if err := logger.CheckRotate(maxSize); err != nil {
			logger.Warning(err.Error())
		}
	}

	if opts.logAddr != "" {
		shutdown := startLogServer(opts.logAddr, logger)
		defer shutdown()
	}

	// 3. Load once for the whole session
	presenter := datapush.NewTextPresenter(stdout)
	src := file.Source{
		Path:      cfg.Data.File,
		SheetName: cfg.Data.SheetName,
		Encoding:  cfg.Data.Encoding,
		Columns:   dcfg,
	}
	table := file.LoadOrEmpty(ctx, src, presenter, logger)

	session := processor.NewSession(table, processor.Options{
		TopN:        cfg.View.TopN,
		NameKeyword: cfg.View.NameKeyword,
		Logger:      logger,
	})
	if session.Empty() {
		logger.Warning("no airport data to show")
		return nil
	}

	// 4. Render the first selection, then any typed on stdin
	sel := session.DefaultSelection()
	if opts.state != "" {
		sel.State = opts.state
	}
	if opts.airportType != "" {
		sel.Type = opts.airportType
	}

	timeout := time.Duration(cfg.View.ComputeTimeout)
	if err := render(ctx, session, presenter, sel, timeout); err != nil {
		return err
	}
	if !opts.interactive {
		return nil
	}
	return interact(ctx, session, presenter, stdin, stdout, timeout)
}

func (o *options) apply(cfg *config.Config, dcfg *config.DataConfig) {
	for column, header := range o.columns {
		dcfg.SetColumn(column, header)
	}
	if o.dataFile != "" {
		cfg.Data.File = o.dataFile
	}
	if o.sheet != "" {
		cfg.Data.SheetName = o.sheet
	}
	if o.encoding != "" {
		cfg.Data.Encoding = o.encoding
	}
	if o.logFile != "" {
		cfg.LogName = o.logFile
	}
	if o.topN != 0 {
		cfg.View.TopN = o.topN
	}
}

// render computes one view and pushes it. A selection the dataset does not
// contain is reported to the user and is not an error.
func render(ctx context.Context, session *processor.Session, p datapush.Presenter,
	sel processor.Selection, timeout time.Duration) error {

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	view, err := session.Compute(ctx, sel)
	var selErr *processor.SelectionError
	if errors.As(err, &selErr) {
		p.Error(selErr.Error())
		return nil
	}
	if err != nil {
		return err
	}
	return datapush.Push(p, session, view)
}

func interact(ctx context.Context, session *processor.Session, p datapush.Presenter,
	stdin io.Reader, stdout io.Writer, timeout time.Duration) error {

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\nSTATE TYPE (or quit)> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		fields := strings.Fields(scanner.Text())
		switch {
		case len(fields) == 0:
			continue
		case len(fields) == 1 && (fields[0] == "quit" || fields[0] == "exit"):
			return nil
		case len(fields) != 2:
			p.Error("expected a state and a type, e.g. US-MA small_airport")
			continue
		}

		sel := processor.Selection{State: fields[0], Type: fields[1]}
		if err := render(ctx, session, p, sel, timeout); err != nil {
			return err
		}
	}
}

// logStream streams every log entry to the client until it disconnects.
func logStream(logger *storage.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		logChan := logger.Subscribe()
		defer logger.Unsubscribe(logChan)

		flush := func() {
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		fmt.Fprintln(w, "# streaming log")
		flush()

		for {
			select {
			case msg, ok := <-logChan:
				if !ok {
					return
				}
				if _, err := fmt.Fprintln(w, msg); err != nil {
					return
				}
				flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}

func startLogServer(addr string, logger *storage.Logger) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/logs", logStream(logger))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("log server: " + err.Error())
		}
	}()
	logger.WithFields(logrus.Fields{"addr": addr}).Info("log stream listening")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
