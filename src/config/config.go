package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultDataFile       = "New_England_Airports.csv"
	DefaultTopN           = 5
	DefaultNameKeyword    = "airport"
	DefaultComputeTimeout = Duration(10 * time.Second)
)

// Config is the application configuration read from config.json.
type Config struct {
	Data struct {
		File      string `json:"file"`       // dataset path, .csv or .xlsx
		SheetName string `json:"sheet_name"` // xlsx only; first sheet when empty
		Encoding  string `json:"encoding"`   // utf-8, latin1, windows-1252, gbk
	} `json:"data"`

	View struct {
		TopN           int      `json:"top_n"`
		NameKeyword    string   `json:"name_keyword"`
		ComputeTimeout Duration `json:"compute_timeout"`
	} `json:"view"`

	LogName    string `json:"log_name"` // stderr when empty
	LogLevel   string `json:"log_level"`
	LogMaxSize string `json:"log_max_size"` // e.g. "10 * 1024 * 1024"
}

// DataConfig maps the logical dataset columns to the header names used by a
// particular source file. Columns absent from the map keep their logical name.
type DataConfig struct {
	Columns map[string]string `json:"columns"`
}

// LoadConfig reads jsonFile and dataJsonFile from jsonFolder. Both files are
// parsed concurrently and every parse failure is reported.
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read data config: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, dcfg, nil
}

func (c *Config) applyDefaults() {
	if c.Data.File == "" {
		c.Data.File = DefaultDataFile
	}
	if c.View.TopN == 0 {
		c.View.TopN = DefaultTopN
	}
	if c.View.NameKeyword == "" {
		c.View.NameKeyword = DefaultNameKeyword
	}
	if c.View.ComputeTimeout == 0 {
		c.View.ComputeTimeout = DefaultComputeTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects settings no session can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.View.TopN < 0 {
		errs = append(errs, fmt.Errorf("view.top_n must be positive, got %d", c.View.TopN))
	}
	if c.View.ComputeTimeout < 0 {
		errs = append(errs, fmt.Errorf("view.compute_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("parse Config: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	dcfg := &DataConfig{}
	if err := json.Unmarshal(data, dcfg); err != nil {
		errChan <- fmt.Errorf("parse DataConfig: %w", err)
		return
	}
	if dcfg.Columns == nil {
		dcfg.Columns = map[string]string{}
	}
	resultChan <- dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("configuration only partially loaded")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	return fmt.Errorf("config load failed: %w", errors.Join(errs...))
}

// Duration wraps time.Duration so it reads and writes as "5s" in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Column returns the source header for a logical column.
func (dc *DataConfig) Column(name string) string {
	if header, ok := dc.Columns[name]; ok && header != "" {
		return header
	}
	return name
}

// SetColumn maps a logical column to a source header.
func (dc *DataConfig) SetColumn(name, header string) {
	if dc.Columns == nil {
		dc.Columns = map[string]string{}
	}
	dc.Columns[name] = header
}
