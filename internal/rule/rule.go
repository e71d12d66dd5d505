package rule

// Conditions for filtering parsed access log records, e.g. to drop
// health check noise before it reaches the output.
//
// EXPR := OPERATOR '(' PROPERTY ',' VALUES ')' | EXPR 'and' EXPR
// VALUES := NUMBER | STRING | VALUES ',' VALUES
// STRING := "'" CHAR "'"
// OPERATOR := eq | ne | gt | ge | lt | le | contains | starts-with | ends-with
// PROPERTY := status | uri | host | method | protocol

type Operator int

type Property int

type Expression struct {
	Op     Operator
	Prop   Property
	Values []any
}

const (
	OPR_EQ Operator = iota
	OPR_NE
	OPR_GE
	OPR_GT
	OPR_LE
	OPR_LT
	OPR_IN
	OPR_STARTS
	OPR_ENDS
)

const (
	PROP_STATUS Property = iota
	PROP_URI
	PROP_HOST
	PROP_METHOD
	PROP_PROTOCOL
)

// ParseCondition parses a condition string into a list of expressions
// joined by 'and'.
func ParseCondition(str string) ([]Expression, error) {
	return parseCondition(str)
}

// EvaluateExpressions returns whether all expressions hold for the given
// property values. Within one expression the value list is an 'or'
// conjunction.
func EvaluateExpressions(expressions []Expression, data map[Property]any) bool {
	for _, expr := range expressions {
		if !evaluateExpression(expr, data) {
			return false
		}
	}
	return true
}
