package treeq

import (
	"math"
	"strings"
)

// eval is the core dispatcher. It classifies the query by syntactic
// shape and routes to the matching handler. The probe order is load
// bearing: conditionals and try/catch must win over pipe splitting,
// the alternative operator must win over the optional suffix, and
// constructions must win over expression evaluation.
func eval(v Value, query string, depth int) (Value, error) {
	if depth > maxEvalDepth {
		return Null(), errExec("maximum recursion depth exceeded")
	}
	query = strings.TrimSpace(query)
	if query == "" || query == "." {
		return v, nil
	}
	if strings.HasPrefix(query, "if ") {
		return evalConditional(v, query, depth)
	}
	if strings.HasPrefix(query, "try ") {
		return evalTryCatch(v, query, depth)
	}
	if stages := splitPipe(query); len(stages) > 1 {
		return evalPipe(v, stages, depth)
	}
	if pos := indexTopLevel(query, " // "); pos >= 0 {
		return evalAlternative(v, query[:pos], query[pos+4:], depth)
	}
	if strings.HasSuffix(query, "?") && !strings.HasSuffix(query, `"?`) {
		res, err := eval(v, query[:len(query)-1], depth+1)
		if err != nil {
			return Null(), nil
		}
		return res, nil
	}
	if stripped := stripOuterParens(query); stripped != query {
		return eval(v, stripped, depth+1)
	}
	if inner, ok := cutWrapped(query, "with_entries(", ")"); ok {
		return evalWithEntries(v, inner, depth)
	}
	if inner, ok := cutWrapped(query, "del(", ")"); ok {
		return evalDel(v, inner)
	}
	if inner, ok := cutWrapped(query, "[", "]"); ok {
		if strings.Contains(inner, ":") {
			return evalSliceExpr(v, inner)
		}
		return evalArrayConstruction(v, inner, depth)
	}
	if inner, ok := cutWrapped(query, "{", "}"); ok {
		return evalObjectConstruction(v, inner, depth)
	}
	if res, handled, err := tryBuiltin(v, query, depth); handled {
		return res, err
	}
	if isLogicalQuery(query) || isComparisonQuery(query) {
		b, err := evalCondition(v, query, depth+1)
		if err != nil {
			return Null(), err
		}
		return Bool(b), nil
	}
	if _, _, ok := findArithOp(query); ok {
		return evalArithmetic(v, query, depth)
	}
	if name, _, ok := splitFunctionCall(query); ok {
		return Null(), errFunc(name)
	}
	if !strings.HasPrefix(query, ".") {
		if lit, ok := parseLiteral(query); ok {
			return lit, nil
		}
	}
	return evalPath(v, query)
}

func cutWrapped(q, prefix, suffix string) (string, bool) {
	if strings.HasPrefix(q, prefix) && strings.HasSuffix(q, suffix) {
		return q[len(prefix) : len(q)-len(suffix)], true
	}
	return "", false
}

func isLogicalQuery(q string) bool {
	return strings.HasPrefix(q, "not ") ||
		containsTopLevel(q, " and ") ||
		containsTopLevel(q, " or ")
}

func isComparisonQuery(q string) bool {
	for _, op := range comparisonOps {
		if containsTopLevel(q, op) {
			return true
		}
	}
	return false
}

//---- Pipes ----

// evalPipe threads the value through the stages left to right. A
// stage ending in "[]" followed by more stages acts as a generator:
// the remaining pipeline runs once per element and failed or filtered
// out elements are dropped rather than aborting the whole query.
func evalPipe(v Value, stages []string, depth int) (Value, error) {
	cur := v
	for i, stage := range stages {
		if strings.HasSuffix(stage, "[]") && i < len(stages)-1 {
			iterated, err := eval(cur, stage, depth+1)
			if err != nil {
				return Null(), err
			}
			if iterated.Kind != KindArray {
				cur = iterated
				continue
			}
			rest := strings.Join(stages[i+1:], " | ")
			filtering := strings.HasPrefix(rest, "select(")
			var out []Value
			for _, item := range iterated.Items {
				mapped, err := eval(item, rest, depth+1)
				if err != nil {
					continue
				}
				if filtering && mapped.Kind == KindNull {
					continue
				}
				out = append(out, mapped)
			}
			return arrayOf(out), nil
		}
		res, err := eval(cur, stage, depth+1)
		if err != nil {
			return Null(), err
		}
		cur = res
	}
	return cur, nil
}

//---- Alternative ----

// evalAlternative implements "A // B": B is used when A errors or
// yields null or false.
func evalAlternative(v Value, left, right string, depth int) (Value, error) {
	res, err := eval(v, strings.TrimSpace(left), depth+1)
	if err == nil && res.Kind != KindNull && !(res.Kind == KindBool && !res.Boolean) {
		return res, nil
	}
	alt := strings.TrimSpace(right)
	if lit, ok := parseLiteral(alt); ok && !strings.Contains(alt, " // ") {
		return lit, nil
	}
	return eval(v, alt, depth+1)
}

//---- Try/catch ----

func evalTryCatch(v Value, query string, depth int) (Value, error) {
	rest := strings.TrimSpace(query[4:])
	if pos := indexTopLevel(rest, " catch "); pos >= 0 {
		res, err := eval(v, rest[:pos], depth+1)
		if err == nil {
			return res, nil
		}
		handler := strings.TrimSpace(rest[pos+7:])
		if lit, ok := parseLiteral(handler); ok {
			return lit, nil
		}
		return eval(v, handler, depth+1)
	}
	res, err := eval(v, rest, depth+1)
	if err != nil {
		return Null(), nil
	}
	return res, nil
}

//---- Conditionals ----

func evalConditional(v Value, query string, depth int) (Value, error) {
	endPos, err := findMatchingEnd(query)
	if err != nil {
		return Null(), err
	}
	body := query[:endPos]
	thenPos := strings.Index(body, " then ")
	if thenPos < 0 {
		return Null(), errSyntax("missing 'then' in conditional")
	}
	cond := strings.TrimSpace(query[3:thenPos])
	elsePos := findElse(body)

	var thenExpr, elseExpr string
	hasElse := elsePos > thenPos
	if hasElse {
		thenExpr = strings.TrimSpace(body[thenPos+6 : elsePos])
		elseExpr = strings.TrimSpace(body[elsePos+4 : endPos-3])
	} else {
		thenExpr = strings.TrimSpace(body[thenPos+6 : endPos-3])
	}

	ok, err := evalCondition(v, cond, depth+1)
	if err != nil {
		return Null(), err
	}
	var res Value
	switch {
	case ok:
		res, err = evalBranch(v, thenExpr, depth)
	case hasElse:
		res, err = evalBranch(v, elseExpr, depth)
	default:
		res = Null()
	}
	if err != nil {
		return Null(), err
	}

	// anything after "end" must continue the pipeline
	rem := strings.TrimSpace(query[endPos:])
	if rem == "" {
		return res, nil
	}
	if rest, ok := strings.CutPrefix(rem, "|"); ok {
		return eval(res, rest, depth+1)
	}
	return Null(), errSyntax("unexpected input after 'end': %s", rem)
}

// evalBranch evaluates a then/else arm: a literal stands for itself,
// anything else is a full query against the conditional's input.
func evalBranch(v Value, expr string, depth int) (Value, error) {
	if expr == "" {
		return Null(), nil
	}
	if lit, ok := parseLiteral(expr); ok {
		return lit, nil
	}
	return eval(v, expr, depth+1)
}

//---- Constructions ----

// evalArrayConstruction handles "[EXPR]" collection. A single inner
// query that already yields an array is collected as-is, so
// "[.items[] | .id]" does not end up double-wrapped.
func evalArrayConstruction(v Value, content string, depth int) (Value, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return arrayOf(nil), nil
	}
	if !hasTopLevelComma(content) {
		res, err := eval(v, content, depth+1)
		if err != nil {
			return Null(), err
		}
		if res.Kind == KindArray {
			return res, nil
		}
		return Array(res), nil
	}
	var items []Value
	for _, part := range splitTopLevelCommas(content) {
		item, err := literalOrQuery(v, part, depth)
		if err != nil {
			return Null(), err
		}
		items = append(items, item)
	}
	return arrayOf(items), nil
}

func evalSliceExpr(v Value, content string) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("cannot slice %s", v.Type())
	}
	seg, err := parseBracket(content, "["+content+"]")
	if err != nil {
		return Null(), err
	}
	if seg.kind != segSlice {
		return Null(), errSyntax("invalid slice [%s]", content)
	}
	return arrayOf(sliceArray(v.Items, seg.start, seg.end)), nil
}

func evalObjectConstruction(v Value, content string, depth int) (Value, error) {
	obj := NewObject()
	content = strings.TrimSpace(content)
	if content == "" {
		return ObjectValue(obj), nil
	}
	for _, pair := range splitTopLevelCommas(content) {
		colon := indexTopLevel(pair, ":")
		if colon < 0 {
			// shorthand {name} pulls .name from the input
			key := trimQuotes(strings.TrimSpace(pair))
			val, err := eval(v, "."+key, depth+1)
			if err != nil {
				return Null(), err
			}
			obj.Set(key, val)
			continue
		}
		key := trimQuotes(strings.TrimSpace(pair[:colon]))
		val, err := literalOrQuery(v, pair[colon+1:], depth)
		if err != nil {
			return Null(), err
		}
		obj.Set(key, val)
	}
	return ObjectValue(obj), nil
}

// literalOrQuery resolves construction elements and assignment values:
// literals stand for themselves, and anything query-shaped runs as a
// query. A bare word that is neither is kept as a plain string, which
// keeps forgiving inputs like {status: active} working.
func literalOrQuery(v Value, s string, depth int) (Value, error) {
	s = strings.TrimSpace(s)
	if lit, ok := parseLiteral(s); ok {
		return lit, nil
	}
	res, err := eval(v, s, depth+1)
	if err != nil && isBareWord(s) {
		return String(s), nil
	}
	return res, err
}

func isBareWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && r != '-' && !isAlphaNum(r) {
			return false
		}
	}
	return true
}

func isAlphaNum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func trimQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

//---- Arithmetic ----

// evalArithmetic splits the expression at the operator chosen by the
// right-to-left finder and combines the recursively evaluated sides.
func evalArithmetic(v Value, expr string, depth int) (Value, error) {
	if depth > maxEvalDepth {
		return Null(), errExec("maximum recursion depth exceeded")
	}
	expr = strings.TrimSpace(expr)
	if stripped := stripOuterParens(expr); stripped != expr {
		return eval(v, stripped, depth+1)
	}
	pos, op, ok := findArithOp(expr)
	if !ok {
		return literalOrQuery(v, expr, depth)
	}
	left, err := evalArithmetic(v, expr[:pos], depth+1)
	if err != nil {
		return Null(), err
	}
	right, err := evalArithmetic(v, expr[pos+1:], depth+1)
	if err != nil {
		return Null(), err
	}
	return combineArith(left, right, op)
}

func combineArith(left, right Value, op byte) (Value, error) {
	if op == '+' {
		switch {
		case left.Kind == KindNumber && right.Kind == KindNumber:
			return Number(left.Num + right.Num), nil
		case left.Kind == KindString && right.Kind == KindString:
			return String(left.Str + right.Str), nil
		case left.Kind == KindArray && right.Kind == KindArray:
			items := make([]Value, 0, len(left.Items)+len(right.Items))
			items = append(items, left.Items...)
			items = append(items, right.Items...)
			return arrayOf(items), nil
		default:
			return Null(), errType("cannot add %s and %s", left.Type(), right.Type())
		}
	}
	if left.Kind != KindNumber || right.Kind != KindNumber {
		return Null(), errType("cannot apply %q to %s and %s", string(op), left.Type(), right.Type())
	}
	switch op {
	case '-':
		return Number(left.Num - right.Num), nil
	case '*':
		return Number(left.Num * right.Num), nil
	case '/':
		if right.Num == 0 {
			return Null(), errDivZero()
		}
		return Number(left.Num / right.Num), nil
	default: // '%'
		if right.Num == 0 {
			return Null(), errDivZero()
		}
		return Number(math.Mod(left.Num, right.Num)), nil
	}
}
