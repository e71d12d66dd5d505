package parser

import (
	"strings"
)

// ParseRequestLine splits the contents of the quoted request field into
// method, requested URI and protocol. Nothing is validated against a
// whitelist, any method or protocol string is accepted as written.
//
// Clients sending garbage produce request fields with fewer than three
// parts, and Apache logs them verbatim. Those lines degrade to whatever
// parts could be determined, with empty strings for the rest, instead of
// failing. A URI containing spaces keeps them: the method is the first
// part, the protocol the last, the URI everything in between.
func ParseRequestLine(value string) (method, uri, protocol string) {
	if len(value) == 0 {
		return "", "", ""
	}
	parts := strings.Split(value, " ")
	switch len(parts) {
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	case 3:
		return parts[0], parts[1], parts[2]
	default:
		return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
	}
}
