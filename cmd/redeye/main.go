// Redeye converts Apache httpd style access logs to JSON understood by
// Logstash. Log entries are read line by line from stdin or a file,
// converted, and emitted on stdout. Common and Combined access log
// formats are supported, see
// https://httpd.apache.org/docs/current/logs.html#accesslog
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/56quarters/redeye/internal/config"
	"github.com/56quarters/redeye/internal/database"
	"github.com/56quarters/redeye/internal/emitter"
	"github.com/56quarters/redeye/internal/parser"
	"github.com/56quarters/redeye/internal/reader"
	"github.com/56quarters/redeye/internal/tailer"
)

var (
	flagCommon = flag.Bool("common-format", false,
		"parse log entries assuming the Common log format, entries that do not match are skipped with a warning")
	flagCombined = flag.Bool("combined-format", false,
		"parse log entries assuming the Combined log format, entries that do not match are skipped with a warning")
	flagFile    = flag.String("file", "", "read the given access log file instead of stdin")
	flagFollow  = flag.Bool("follow", false, "keep reading the access log file as it grows, requires -file or a config input")
	flagConfig  = flag.String("config", "", "JSON config file for logging, record filters and the sqlite archive")
	flagVerbose = flag.Bool("verbose", false, "log progress information")
)

func main() {
	flag.Parse()
	if *flagCommon && *flagCombined {
		fmt.Fprintln(os.Stderr, "ERROR: -common-format and -combined-format are mutually exclusive")
		os.Exit(1)
	}

	cfg := config.NewConfig()
	if len(*flagConfig) > 0 {
		if err := cfg.Init(*flagConfig); err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
	}

	format := parser.FormatAny
	switch {
	case *flagCommon || cfg.InputFormat() == "common":
		format = parser.FormatCommon
	case *flagCombined || cfg.InputFormat() == "combined":
		format = parser.FormatCombined
	}

	filename := *flagFile
	if len(filename) == 0 {
		filename = cfg.InputFilename()
	}
	follow := *flagFollow || cfg.IsFollow()
	if follow && len(filename) == 0 {
		fmt.Fprintln(os.Stderr, "ERROR: -follow requires an access log file")
		os.Exit(1)
	}

	var archive *database.Archive
	if len(cfg.DatabaseFilename()) > 0 {
		var err error
		archive, err = database.Open(cfg.DatabaseFilename())
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
		defer archive.Close()
	}

	emit := emitter.New(os.Stdout)
	defer emit.Close()

	pipe := &pipeline{
		cfg:     cfg,
		format:  format,
		emit:    emit,
		archive: archive,
	}
	var err error
	if follow {
		err = pipe.runFollow(filename)
	} else {
		err = pipe.runStream(filename)
	}
	if err != nil {
		log.Println("ERROR:", err)
		os.Exit(1)
	}
	if *flagVerbose || cfg.IsVerbose() {
		log.Printf("Processed %d lines. Failed to parse %d lines.\n", pipe.lines, pipe.failures)
	}
}

type pipeline struct {
	cfg      config.Config
	format   parser.Format
	emit     *emitter.Emitter
	archive  *database.Archive
	lines    int
	failures int
}

// process converts a single line. Parse failures are warnings, the
// stream keeps going.
func (p *pipeline) process(line string) {
	p.lines++
	record, err := parser.ParseFormat(line, p.format)
	if err != nil {
		p.failures++
		log.Println("WARN:", err)
		return
	}
	if p.cfg.IsFiltered(record.RemoteHost, record.Method, record.RequestedURI, record.Protocol, int(record.StatusCode)) {
		return
	}
	if p.archive != nil {
		if _, err := p.archive.Insert(record); err != nil {
			log.Printf("ERROR: Failed to archive log line '%s': %s\n", line, err.Error())
		}
	}
	if err := p.emit.Emit(record); err != nil {
		log.Printf("ERROR: Failed to write record for log line '%s': %s\n", line, err.Error())
	}
}

// runStream reads the file, or stdin when filename is empty, until EOF.
func (p *pipeline) runStream(filename string) error {
	input := io.Reader(os.Stdin)
	if len(filename) > 0 {
		file, err := os.Open(filename)
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	}
	lines := reader.New(input)
	for {
		line, number, err := lines.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read failed at line %d: %w", number, err)
		}
		p.process(line)
	}
}

// runFollow keeps converting lines as the file grows until a shutdown
// signal arrives.
func (p *pipeline) runFollow(filename string) error {
	tail, err := tailer.New(filename)
	if err != nil {
		return err
	}
	defer tail.Stop()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case sig := <-stop:
			log.Printf("Shutdown signal %v received.\n", sig)
			return nil
		case line, ok := <-tail.Lines():
			if !ok {
				return nil
			}
			p.process(line)
		case err := <-tail.Errs():
			log.Println("ERROR: Failed to watch access log file.", err)
		}
	}
}
