package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/56quarters/redeye/internal/rule"
)

type configFilter struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
}

type config_impl struct {
	expressions map[string][]rule.Expression
	Input       struct {
		Filename string `json:"filename"`
		Format   string `json:"format"`
		Follow   bool   `json:"follow"`
	} `json:"input"`
	Logger struct {
		Filename string `json:"filename"`
		MaxSize  int    `json:"maxsize"`
		MaxAge   int    `json:"maxage"`
		Verbose  bool   `json:"verbose"`
	} `json:"logger"`
	Database struct {
		Filename string `json:"filename"`
	} `json:"database"`
	Filters []configFilter `json:"filters"`
}

func (cfg *config_impl) Init(filename string) error {
	data, err := os.ReadFile(filename)
	if err == nil {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return err
	}
	switch cfg.Input.Format {
	case "", "common", "combined":
	default:
		return fmt.Errorf("unknown input format '%s', expected 'common' or 'combined'", cfg.Input.Format)
	}
	if cfg.Input.Follow && len(cfg.Input.Filename) == 0 {
		return errors.New("cannot follow stdin, follow requires an input filename")
	}
	if len(cfg.Input.Filename) > 0 {
		err = canReadFile(cfg.Input.Filename, "access log")
	}
	if err == nil && len(cfg.Database.Filename) > 0 {
		err = canWriteFile(cfg.Database.Filename, "database")
	}
	if err == nil && len(cfg.Logger.Filename) > 0 {
		err = canWriteFile(cfg.Logger.Filename, "log")
	}
	if err == nil {
		err = cfg.updateExpressions()
	}
	if err != nil {
		return err
	}
	if len(cfg.Logger.Filename) > 0 {
		log.SetOutput(&lumberjack.Logger{
			Filename: cfg.Logger.Filename,
			MaxSize:  cfg.Logger.MaxSize,
			MaxAge:   cfg.Logger.MaxAge,
			Compress: true})
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)
	}
	return nil
}

func (cfg *config_impl) InputFilename() string {
	return cfg.Input.Filename
}

func (cfg *config_impl) InputFormat() string {
	return cfg.Input.Format
}

func (cfg *config_impl) IsFollow() bool {
	return cfg.Input.Follow
}

func (cfg *config_impl) IsVerbose() bool {
	return cfg.Logger.Verbose
}

func (cfg *config_impl) DatabaseFilename() string {
	return cfg.Database.Filename
}

func (cfg *config_impl) IsFiltered(host string, method string, uri string, protocol string, status int) bool {
	data := map[rule.Property]any{}
	data[rule.PROP_HOST] = host
	data[rule.PROP_METHOD] = method
	data[rule.PROP_URI] = uri
	data[rule.PROP_PROTOCOL] = protocol
	data[rule.PROP_STATUS] = status
	for _, filter := range cfg.Filters {
		if rule.EvaluateExpressions(cfg.expressions[filter.Name], data) {
			if cfg.Logger.Verbose {
				log.Printf("Dropped record for filter '%s'. Host %s, Status %d, URI '%s'.\n", filter.Name, host, status, uri)
			}
			return true
		}
	}
	return false
}

// private

func (cfg *config_impl) updateExpressions() error {
	cfg.expressions = make(map[string][]rule.Expression)
	for _, filter := range cfg.Filters {
		expressions, err := parseFilter(filter)
		if err != nil {
			return err
		}
		if _, contains := cfg.expressions[filter.Name]; contains {
			return fmt.Errorf("filter name '%s' is not unique", filter.Name)
		}
		cfg.expressions[filter.Name] = expressions
	}
	return nil
}

func parseFilter(filter configFilter) ([]rule.Expression, error) {
	if len(filter.Name) == 0 {
		return nil, errors.New("missing 'name' in filter definition")
	}
	if len(filter.Condition) == 0 {
		return nil, errors.New("missing 'condition' in filter definition")
	}
	expressions, err := rule.ParseCondition(filter.Condition)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter '%s': %s", filter.Name, err.Error())
	}
	return expressions, nil
}

func canReadFile(filename string, desc string) error {
	return canOpenFile(filename, desc, true)
}

func canWriteFile(filename string, desc string) error {
	return canOpenFile(filename, desc, false)
}

func canOpenFile(filename string, desc string, readonly bool) error {
	if len(filename) == 0 {
		return fmt.Errorf("missing %s filename in config", desc)
	}
	var err error
	var file *os.File
	if readonly {
		file, err = os.Open(filename)
	} else {
		file, err = os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0640)
	}
	if err == nil {
		file.Close()
	}
	return err
}
