package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parses the bracketed access log timestamp, e.g. 10/Oct/2000:13:55:36 -0700
// (the strftime format %d/%b/%Y:%H:%M:%S %z). time.Parse is not used here:
// it matches month names case insensitively and rejects days that do not
// exist in the given month, while access logs require the canonical
// capitalization and are replayed as written, impossible dates included.

// public

// ParseTimestamp parses the contents of the timestamp field, without the
// brackets, into an instant that keeps the zone offset of the log line.
// The offset is never normalized to UTC or to local time.
func ParseTimestamp(value string) (time.Time, error) {
	clock, zone, found := strings.Cut(value, " ")
	if !found {
		return time.Time{}, fmt.Errorf("missing zone offset in timestamp '%s'", value)
	}
	date, hms, found := strings.Cut(clock, ":")
	if !found {
		return time.Time{}, fmt.Errorf("missing time of day in timestamp '%s'", value)
	}

	dmy := strings.Split(date, "/")
	if len(dmy) != 3 {
		return time.Time{}, fmt.Errorf("malformed date '%s'", date)
	}
	day, err := parseComponent(dmy[0], "day", 1, 31)
	if err != nil {
		return time.Time{}, err
	}
	month, ok := months[dmy[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month '%s'", dmy[1])
	}
	if len(dmy[2]) != 4 {
		return time.Time{}, fmt.Errorf("year '%s' is not four digits", dmy[2])
	}
	year, err := parseComponent(dmy[2], "year", 0, 9999)
	if err != nil {
		return time.Time{}, err
	}

	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("malformed time of day '%s'", hms)
	}
	hour, err := parseComponent(parts[0], "hour", 0, 23)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := parseComponent(parts[1], "minute", 0, 59)
	if err != nil {
		return time.Time{}, err
	}
	second, err := parseComponent(parts[2], "second", 0, 59)
	if err != nil {
		return time.Time{}, err
	}

	offset, err := parseZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, hour, minute, second, 0, time.FixedZone(zone, offset)), nil
}

// private

// Month abbreviations as Apache writes them. Lookup is case sensitive.
var months = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

func parseComponent(str string, name string, min, max int) (int, error) {
	if len(str) == 0 {
		return 0, fmt.Errorf("missing %s", name)
	}
	for i := 0; i < len(str); i++ {
		if str[i] < '0' || str[i] > '9' {
			return 0, fmt.Errorf("%s '%s' is not a number", name, str)
		}
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%s '%s' is not a number", name, str)
	}
	if val < min || val > max {
		return 0, fmt.Errorf("%s %d out of range", name, val)
	}
	return val, nil
}

// parseZone parses a signed +HHMM/-HHMM offset into seconds east of UTC.
func parseZone(zone string) (int, error) {
	if len(zone) != 5 || (zone[0] != '+' && zone[0] != '-') {
		return 0, fmt.Errorf("malformed zone offset '%s'", zone)
	}
	hours, err := parseComponent(zone[1:3], "zone hour", 0, 23)
	if err != nil {
		return 0, err
	}
	minutes, err := parseComponent(zone[3:5], "zone minute", 0, 59)
	if err != nil {
		return 0, err
	}
	offset := hours*3600 + minutes*60
	if zone[0] == '-' {
		offset = -offset
	}
	return offset, nil
}
