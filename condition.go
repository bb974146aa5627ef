package treeq

import (
	"strconv"
	"strings"
)

// comparisonOps is the fixed probe order for conditions. The first
// operator found in the text wins, so >= and <= are probed before
// their single-character prefixes.
var comparisonOps = []string{" == ", " != ", " >= ", " <= ", " > ", " < "}

// evalCondition decides a boolean for if/select/logical contexts.
// Comparisons are probed first, then not/and/or, and a condition with
// no operator at all falls back to the truthiness of its result.
func evalCondition(v Value, cond string, depth int) (bool, error) {
	if depth > maxEvalDepth {
		return false, errExec("maximum recursion depth exceeded")
	}
	cond = strings.TrimSpace(cond)
	if stripped := stripOuterParens(cond); stripped != cond {
		return evalCondition(v, stripped, depth+1)
	}
	for _, op := range comparisonOps {
		pos := strings.Index(cond, op)
		if pos < 0 {
			continue
		}
		left, err := evalOperand(v, cond[:pos], depth)
		if err != nil {
			return false, err
		}
		right, err := evalOperand(v, cond[pos+len(op):], depth)
		if err != nil {
			return false, err
		}
		switch strings.TrimSpace(op) {
		case "==":
			return left.Equal(right), nil
		case "!=":
			return !left.Equal(right), nil
		case ">=":
			return compareValues(left, right) >= 0, nil
		case "<=":
			return compareValues(left, right) <= 0, nil
		case ">":
			return compareValues(left, right) > 0, nil
		default:
			return compareValues(left, right) < 0, nil
		}
	}
	if rest, ok := strings.CutPrefix(cond, "not "); ok {
		b, err := evalCondition(v, rest, depth+1)
		if err != nil {
			return false, err
		}
		return !b, nil
	}
	if pos := strings.Index(cond, " and "); pos >= 0 {
		left, err := evalCondition(v, cond[:pos], depth+1)
		if err != nil {
			return false, err
		}
		if !left {
			return false, nil
		}
		return evalCondition(v, cond[pos+5:], depth+1)
	}
	if pos := strings.Index(cond, " or "); pos >= 0 {
		left, err := evalCondition(v, cond[:pos], depth+1)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return evalCondition(v, cond[pos+4:], depth+1)
	}
	result, err := evalOperand(v, cond, depth)
	if err != nil {
		return false, err
	}
	return result.Truthy(), nil
}

// evalOperand resolves one side of a comparison: a literal when the
// text parses as one, otherwise a full query against the input.
func evalOperand(v Value, s string, depth int) (Value, error) {
	s = strings.TrimSpace(s)
	if lit, ok := parseLiteral(s); ok {
		return lit, nil
	}
	return eval(v, s, depth+1)
}

// parseLiteral recognizes self-contained values: keywords, numbers,
// quoted strings and bracketed JSON containers. Anything else is not
// a literal and must be evaluated as a query.
func parseLiteral(s string) (Value, bool) {
	switch s {
	case "true":
		return Bool(true), true
	case "false":
		return Bool(false), true
	case "null":
		return Null(), true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Number(float64(n)), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f), true
	}
	if len(s) >= 2 {
		switch {
		case strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`),
			strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"),
			strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
			if v, err := decodeJSONValue(s); err == nil {
				return v, true
			}
		}
	}
	return Null(), false
}

// compareValues orders two values. Numbers compare numerically and
// strings lexically; booleans put false before true. Arrays and
// objects compare by element count only. Values of different kinds
// fall back to comparing their display strings.
func compareValues(a, b Value) int {
	if a.Kind == b.Kind {
		switch a.Kind {
		case KindNull:
			return 0
		case KindBool:
			return boolOrder(a.Boolean) - boolOrder(b.Boolean)
		case KindNumber:
			switch {
			case a.Num < b.Num:
				return -1
			case a.Num > b.Num:
				return 1
			}
			return 0
		case KindString:
			return strings.Compare(a.Str, b.Str)
		case KindArray:
			return intOrder(len(a.Items), len(b.Items))
		default:
			return intOrder(a.Fields.Len(), b.Fields.Len())
		}
	}
	return strings.Compare(a.Display(), b.Display())
}

func boolOrder(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intOrder(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
