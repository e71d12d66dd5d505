package config

import (
	"github.com/56quarters/redeye/internal/rule"
)

// Optional JSON configuration for the converter. Everything has a flag or
// a default, a config file is only needed for the rotating diagnostic
// log, the sqlite archive and record filters.
//
// Example:
//
//	{
//	  "input": {"filename": "/var/log/nginx/access.log", "format": "combined", "follow": true},
//	  "logger": {"filename": "/var/log/redeye.log", "maxsize": 10, "maxage": 7, "verbose": true},
//	  "database": {"filename": "/var/lib/redeye/archive.db"},
//	  "filters": [
//	    {"name": "health-checks", "condition": "starts-with( uri, '/healthz' )"}
//	  ]
//	}
type Config interface {
	// Initializes the configuration from the given JSON file and
	// routes the log package to the configured rotating log file.
	Init(filename string) error
	// Returns the input filename, empty for stdin.
	InputFilename() string
	// Returns the configured input format: "", "common" or "combined".
	InputFormat() string
	// Returns whether the input file is followed as it grows.
	IsFollow() bool
	// Returns whether progress information is logged.
	IsVerbose() bool
	// Returns the sqlite archive filename, empty when archiving is off.
	DatabaseFilename() string
	// Returns whether a parsed record matches any configured filter
	// and should be dropped from the output.
	IsFiltered(host string, method string, uri string, protocol string, status int) bool
}

func NewConfig() Config {
	var cfg config_impl
	cfg.expressions = make(map[string][]rule.Expression)
	return &cfg
}
