package rule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var operatorMap = map[string]Operator{
	"eq":          OPR_EQ,
	"ne":          OPR_NE,
	"ge":          OPR_GE,
	"gt":          OPR_GT,
	"le":          OPR_LE,
	"lt":          OPR_LT,
	"contains":    OPR_IN,
	"starts-with": OPR_STARTS,
	"ends-with":   OPR_ENDS,
}

var propertyMap = map[string]Property{
	"status":   PROP_STATUS,
	"uri":      PROP_URI,
	"host":     PROP_HOST,
	"method":   PROP_METHOD,
	"protocol": PROP_PROTOCOL,
}

// substring operators make no sense for the numeric status property
var invalidNumberOperators = []Operator{OPR_IN, OPR_STARTS, OPR_ENDS}

// evaluation

func evaluateExpression(expr Expression, data map[Property]any) bool {
	val := data[expr.Prop]
	for _, arg := range expr.Values {
		// or conjunction for the argument list
		if evaluateValue(expr.Op, val, arg) {
			return true
		}
	}
	return false
}

func evaluateValue(op Operator, val any, arg any) bool {
	switch v := val.(type) {
	case int:
		if a, ok := arg.(int); ok {
			return evaluateInt(op, v, a)
		}
	case string:
		if a, ok := arg.(string); ok {
			return evaluateString(op, v, a)
		}
	}
	return false
}

func evaluateString(op Operator, val string, arg string) bool {
	switch op {
	case OPR_EQ:
		return val == arg
	case OPR_NE:
		return val != arg
	case OPR_GE:
		return val >= arg
	case OPR_GT:
		return val > arg
	case OPR_LE:
		return val <= arg
	case OPR_LT:
		return val < arg
	case OPR_IN:
		return strings.Contains(val, arg)
	case OPR_STARTS:
		return strings.HasPrefix(val, arg)
	case OPR_ENDS:
		return strings.HasSuffix(val, arg)
	}
	return false
}

func evaluateInt(op Operator, val int, arg int) bool {
	switch op {
	case OPR_EQ:
		return val == arg
	case OPR_NE:
		return val != arg
	case OPR_GE:
		return val >= arg
	case OPR_GT:
		return val > arg
	case OPR_LE:
		return val <= arg
	case OPR_LT:
		return val < arg
	}
	return false
}

// parsing

type scanner struct {
	str string
	idx int
}

func parseCondition(str string) ([]Expression, error) {
	s := &scanner{str: str}
	var ret []Expression
	for {
		expr, err := s.parseExpr()
		if err != nil {
			return nil, err
		}
		ret = append(ret, expr)
		if !s.matchTerminal("and") {
			break
		}
	}
	s.skipSpace()
	if s.idx < len(s.str) {
		return nil, fmt.Errorf("unexpected input in '%s' at position %d", s.str, s.idx)
	}
	return ret, nil
}

func (s *scanner) parseExpr() (Expression, error) {
	var expr Expression
	symbol, ok := s.matchSymbol()
	if !ok {
		return expr, fmt.Errorf("missing function in '%s' at position %d", s.str, s.idx)
	}
	expr.Op, ok = operatorMap[symbol]
	if !ok {
		return expr, fmt.Errorf("unknown function '%s' in '%s'", symbol, s.str)
	}
	if !s.matchRune('(') {
		return expr, fmt.Errorf("missing '(' in '%s' at position %d", s.str, s.idx)
	}
	symbol, ok = s.matchSymbol()
	if !ok {
		return expr, fmt.Errorf("missing property in '%s' at position %d", s.str, s.idx)
	}
	expr.Prop, ok = propertyMap[symbol]
	if !ok {
		return expr, fmt.Errorf("unknown property '%s' in '%s'", symbol, s.str)
	}
	if isIntType(expr.Prop) && slices.Contains(invalidNumberOperators, expr.Op) {
		return expr, fmt.Errorf("invalid function for property '%s' in '%s'", symbol, s.str)
	}
	for {
		if !s.matchRune(',') {
			return expr, fmt.Errorf("missing ',' in '%s' at position %d", s.str, s.idx)
		}
		val, err := s.parseValue(isIntType(expr.Prop))
		if err != nil {
			return expr, err
		}
		expr.Values = append(expr.Values, val)
		s.skipSpace()
		if s.idx < len(s.str) && s.str[s.idx] == ')' {
			s.idx++
			return expr, nil
		}
	}
}

func (s *scanner) parseValue(isIntType bool) (any, error) {
	if isIntType {
		number, ok := s.matchNumber()
		if !ok {
			return nil, fmt.Errorf("value is not a number in '%s' at position %d", s.str, s.idx)
		}
		val, err := strconv.Atoi(number)
		if err != nil {
			return nil, fmt.Errorf("value is not a number in '%s' at position %d", s.str, s.idx)
		}
		return val, nil
	}
	val, ok := s.matchString()
	if !ok {
		return nil, fmt.Errorf("value is not a string in '%s' at position %d", s.str, s.idx)
	}
	return val, nil
}

func isIntType(prop Property) bool {
	return prop == PROP_STATUS
}

func (s *scanner) skipSpace() {
	for s.idx < len(s.str) && unicode.IsSpace(rune(s.str[s.idx])) {
		s.idx++
	}
}

func (s *scanner) matchRune(expected byte) bool {
	s.skipSpace()
	if s.idx < len(s.str) && s.str[s.idx] == expected {
		s.idx++
		return true
	}
	return false
}

func (s *scanner) matchTerminal(terminal string) bool {
	s.skipSpace()
	if strings.HasPrefix(s.str[s.idx:], terminal) {
		s.idx += len(terminal)
		return true
	}
	return false
}

func (s *scanner) matchSymbol() (string, bool) {
	s.skipSpace()
	start := s.idx
	for s.idx < len(s.str) {
		c := s.str[s.idx]
		if !isLetter(c) && !isDigit(c) && c != '-' && c != '_' {
			break
		}
		s.idx++
	}
	if s.idx == start || !isLetter(s.str[start]) {
		return "", false
	}
	return s.str[start:s.idx], true
}

func (s *scanner) matchNumber() (string, bool) {
	s.skipSpace()
	start := s.idx
	for s.idx < len(s.str) && isDigit(s.str[s.idx]) {
		s.idx++
	}
	return s.str[start:s.idx], s.idx > start
}

func (s *scanner) matchString() (string, bool) {
	if !s.matchRune('\'') {
		return "", false
	}
	start := s.idx
	for s.idx < len(s.str) && s.str[s.idx] != '\'' {
		s.idx++
	}
	if s.idx >= len(s.str) {
		return "", false
	}
	val := s.str[start:s.idx]
	s.idx++
	return val, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
