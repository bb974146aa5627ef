package treeq

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// bareBuiltins are the zero-argument builtins recognized as plain
// words.
var bareBuiltins = map[string]func(Value) (Value, error){
	"keys":           fnKeys,
	"values":         fnValues,
	"length":         fnLength,
	"type":           fnType,
	"reverse":        fnReverse,
	"sort":           fnSort,
	"unique":         fnUnique,
	"flatten":        func(v Value) (Value, error) { return fnFlatten(v, 1) },
	"add":            fnAdd,
	"min":            fnMin,
	"max":            fnMax,
	"empty":          func(Value) (Value, error) { return arrayOf(nil), nil },
	"not":            func(v Value) (Value, error) { return Bool(!v.Truthy()), nil },
	"to_entries":     fnToEntries,
	"from_entries":   fnFromEntries,
	"floor":          fnFloor,
	"ceil":           fnCeil,
	"round":          fnRound,
	"abs":            fnAbs,
	"tostring":       fnToString,
	"tonumber":       fnToNumber,
	"trim":           fnTrim,
	"ascii_upcase":   fnUpcase,
	"ascii_downcase": fnDowncase,
	"paths":          fnPaths,
	"leaf_paths":     fnLeafPaths,
	"objects":        fnObjects,
}

// argBuiltins is populated in init: several entries (map, select,
// sort_by, group_by) evaluate sub-queries through eval, which reads
// this map back through tryBuiltin, so a composite literal would be an
// initialization cycle.
var argBuiltins map[string]func(v Value, args string, depth int) (Value, error)

func init() {
	argBuiltins = map[string]func(v Value, args string, depth int) (Value, error){
		"map":        fnMap,
		"select":     fnSelect,
		"sort_by":    fnSortBy,
		"group_by":   fnGroupBy,
		"has":        noDepth(fnHas),
		"contains":   noDepth(fnContains),
		"startswith": noDepth(fnStartswith),
		"endswith":   noDepth(fnEndswith),
		"split":      noDepth(fnSplit),
		"join":       noDepth(fnJoin),
		"test":       noDepth(fnTest),
		"match":      noDepth(fnMatch),
		"indices":    noDepth(fnIndices),
		"index":      noDepth(fnIndex),
		"rindex":     noDepth(fnRindex),
		"ltrimstr":   noDepth(fnLtrimstr),
		"rtrimstr":   noDepth(fnRtrimstr),
		"flatten":    noDepth(fnFlattenArg),
		"error":      noDepth(fnError),
	}
}

func noDepth(f func(Value, string) (Value, error)) func(Value, string, int) (Value, error) {
	return func(v Value, args string, _ int) (Value, error) { return f(v, args) }
}

// tryBuiltin dispatches builtin calls. The handled result is false
// when the query is not builtin-shaped at all, so the dispatcher can
// keep probing; a recognized call that fails reports its own error.
func tryBuiltin(v Value, query string, depth int) (res Value, handled bool, err error) {
	if name, args, ok := splitFunctionCall(query); ok {
		if fn, known := argBuiltins[name]; known {
			res, err = fn(v, strings.TrimSpace(args), depth)
			return res, true, err
		}
		return Null(), false, nil
	}
	if fn, known := bareBuiltins[query]; known {
		res, err = fn(v)
		return res, true, err
	}
	return Null(), false, nil
}

// unquoteArg resolves a raw string argument. Quoted text decodes as a
// JSON string so escapes like \t and \\ reach the builtin unescaped;
// bare words pass through as-is.
func unquoteArg(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if v, err := decodeJSONValue(s); err == nil && v.Kind == KindString {
			return v.Str
		}
		return s[1 : len(s)-1]
	}
	return s
}

// parseArgValue interprets a raw argument as a literal search value,
// with a plain-string fallback for bare words.
func parseArgValue(s string) Value {
	s = strings.TrimSpace(s)
	if lit, ok := parseLiteral(s); ok {
		return lit
	}
	return String(s)
}

//---- Zero-argument builtins ----

func fnKeys(v Value) (Value, error) {
	switch v.Kind {
	case KindObject:
		keys := make([]Value, 0, v.Fields.Len())
		for _, k := range v.Fields.Keys() {
			keys = append(keys, String(k))
		}
		return arrayOf(keys), nil
	case KindArray:
		keys := make([]Value, len(v.Items))
		for i := range v.Items {
			keys[i] = Number(float64(i))
		}
		return arrayOf(keys), nil
	default:
		return Null(), errType("keys requires an object or array")
	}
}

func fnValues(v Value) (Value, error) {
	switch v.Kind {
	case KindObject:
		items, _ := elementsOf(v)
		return arrayOf(items), nil
	case KindArray:
		return v, nil
	default:
		return Null(), errType("values requires an object or array")
	}
}

func fnLength(v Value) (Value, error) {
	switch v.Kind {
	case KindString:
		return Number(float64(len(v.Str))), nil
	case KindArray:
		return Number(float64(len(v.Items))), nil
	case KindObject:
		return Number(float64(v.Fields.Len())), nil
	case KindNull:
		return Number(0), nil
	default:
		return Null(), errType("length requires a string, array, or object")
	}
}

func fnType(v Value) (Value, error) {
	return String(v.Type()), nil
}

func fnReverse(v Value) (Value, error) {
	switch v.Kind {
	case KindArray:
		out := make([]Value, len(v.Items))
		for i, item := range v.Items {
			out[len(v.Items)-1-i] = item
		}
		return arrayOf(out), nil
	case KindString:
		runes := []rune(v.Str)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return String(string(runes)), nil
	default:
		return Null(), errType("reverse requires an array or string")
	}
}

func fnSort(v Value) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("sort requires an array")
	}
	out := make([]Value, len(v.Items))
	copy(out, v.Items)
	sort.SliceStable(out, func(i, j int) bool {
		return sortCompare(out[i], out[j]) < 0
	})
	return arrayOf(out), nil
}

func fnUnique(v Value) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("unique requires an array")
	}
	seen := make(map[string]struct{}, len(v.Items))
	var out []Value
	for _, item := range v.Items {
		key := string(appendJSON(nil, item))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return arrayOf(out), nil
}

func fnFlatten(v Value, depth int) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("flatten requires an array")
	}
	if depth == 0 {
		return v, nil
	}
	var out []Value
	for _, item := range v.Items {
		if item.Kind == KindArray {
			inner, err := fnFlatten(item, depth-1)
			if err != nil {
				return Null(), err
			}
			out = append(out, inner.Items...)
			continue
		}
		out = append(out, item)
	}
	return arrayOf(out), nil
}

func fnFlattenArg(v Value, args string) (Value, error) {
	if args == "" {
		return fnFlatten(v, 1)
	}
	depth, err := strconv.Atoi(args)
	if err != nil {
		return Null(), errArg("flatten depth must be a number")
	}
	if depth < 0 {
		return Null(), errArg("flatten depth must be non-negative")
	}
	return fnFlatten(v, depth)
}

func fnAdd(v Value) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("add requires an array")
	}
	if len(v.Items) == 0 {
		return Null(), nil
	}
	allKind := v.Items[0].Kind
	for _, item := range v.Items {
		if item.Kind != allKind {
			return Null(), errType("add requires all elements to be of the same type")
		}
	}
	switch allKind {
	case KindNumber:
		sum := 0.0
		for _, item := range v.Items {
			sum += item.Num
		}
		return Number(sum), nil
	case KindString:
		var b strings.Builder
		for _, item := range v.Items {
			b.WriteString(item.Str)
		}
		return String(b.String()), nil
	case KindArray:
		var out []Value
		for _, item := range v.Items {
			out = append(out, item.Items...)
		}
		return arrayOf(out), nil
	default:
		return Null(), errType("add requires numbers, strings, or arrays")
	}
}

func fnMin(v Value) (Value, error) { return extremum(v, "min", -1) }

func fnMax(v Value) (Value, error) { return extremum(v, "max", 1) }

func extremum(v Value, name string, want int) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("%s requires an array", name)
	}
	if len(v.Items) == 0 {
		return Null(), nil
	}
	best := v.Items[0]
	for _, item := range v.Items[1:] {
		if c := sortCompare(item, best); (want < 0 && c < 0) || (want > 0 && c > 0) {
			best = item
		}
	}
	return best, nil
}

func fnToEntries(v Value) (Value, error) {
	if v.Kind != KindObject {
		return Null(), errType("to_entries requires an object")
	}
	entries := make([]Value, 0, v.Fields.Len())
	for _, k := range v.Fields.Keys() {
		val, _ := v.Fields.Get(k)
		entry := NewObject()
		entry.Set("key", String(k))
		entry.Set("value", val)
		entries = append(entries, ObjectValue(entry))
	}
	return arrayOf(entries), nil
}

func fnFromEntries(v Value) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("from_entries requires an array")
	}
	obj := NewObject()
	for _, entry := range v.Items {
		if entry.Kind != KindObject {
			continue
		}
		key, ok := entry.Fields.Get("key")
		if !ok || key.Kind != KindString {
			continue
		}
		val, ok := entry.Fields.Get("value")
		if !ok {
			continue
		}
		obj.Set(key.Str, val)
	}
	return ObjectValue(obj), nil
}

func fnFloor(v Value) (Value, error) { return numericOp(v, "floor", math.Floor) }

func fnCeil(v Value) (Value, error) { return numericOp(v, "ceil", math.Ceil) }

func fnRound(v Value) (Value, error) { return numericOp(v, "round", math.Round) }

func fnAbs(v Value) (Value, error) { return numericOp(v, "abs", math.Abs) }

func numericOp(v Value, name string, f func(float64) float64) (Value, error) {
	if v.Kind != KindNumber {
		return Null(), errType("%s requires a number", name)
	}
	return Number(f(v.Num)), nil
}

func fnToString(v Value) (Value, error) {
	return String(v.Display()), nil
}

func fnToNumber(v Value) (Value, error) {
	switch v.Kind {
	case KindNumber:
		return v, nil
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return Null(), errType("cannot convert %q to number", v.Str)
		}
		return Number(f), nil
	case KindBool:
		if v.Boolean {
			return Number(1), nil
		}
		return Number(0), nil
	default:
		return Null(), errType("cannot convert %s to number", v.Type())
	}
}

func fnTrim(v Value) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("trim requires a string")
	}
	return String(strings.TrimSpace(v.Str)), nil
}

func fnUpcase(v Value) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("ascii_upcase requires a string")
	}
	return String(strings.ToUpper(v.Str)), nil
}

func fnDowncase(v Value) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("ascii_downcase requires a string")
	}
	return String(strings.ToLower(v.Str)), nil
}

// fnPaths lists every path in the tree, containers included, as
// arrays of string components. Array indexes appear as strings so a
// path stays a uniform string array.
func fnPaths(v Value) (Value, error) {
	var out []Value
	collectPaths(v, nil, false, &out)
	return arrayOf(out), nil
}

// fnLeafPaths lists only paths ending at scalars or empty containers.
func fnLeafPaths(v Value) (Value, error) {
	var out []Value
	collectPaths(v, nil, true, &out)
	return arrayOf(out), nil
}

func collectPaths(v Value, prefix []string, leavesOnly bool, out *[]Value) {
	record := func() {
		if len(prefix) == 0 {
			return
		}
		items := make([]Value, len(prefix))
		for i, p := range prefix {
			items[i] = String(p)
		}
		*out = append(*out, arrayOf(items))
	}
	switch v.Kind {
	case KindObject:
		if !leavesOnly || v.Fields.Len() == 0 {
			record()
		}
		for _, k := range v.Fields.Keys() {
			item, _ := v.Fields.Get(k)
			collectPaths(item, extendPath(prefix, k), leavesOnly, out)
		}
	case KindArray:
		if !leavesOnly || len(v.Items) == 0 {
			record()
		}
		for i, item := range v.Items {
			collectPaths(item, extendPath(prefix, strconv.Itoa(i)), leavesOnly, out)
		}
	default:
		record()
	}
}

func extendPath(prefix []string, component string) []string {
	next := make([]string, len(prefix)+1)
	copy(next, prefix)
	next[len(prefix)] = component
	return next
}

// fnObjects filters to object values: arrays keep only their object
// elements, an object passes through, and scalars yield nothing.
func fnObjects(v Value) (Value, error) {
	switch v.Kind {
	case KindObject:
		return v, nil
	case KindArray:
		var out []Value
		for _, item := range v.Items {
			if item.Kind == KindObject {
				out = append(out, item)
			}
		}
		return arrayOf(out), nil
	default:
		return arrayOf(nil), nil
	}
}

//---- Builtins with arguments ----

func fnMap(v Value, expr string, depth int) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("map requires an array")
	}
	filtering := strings.HasPrefix(expr, "select(")
	var out []Value
	for _, item := range v.Items {
		mapped, err := eval(item, expr, depth+1)
		if err != nil {
			return Null(), err
		}
		if filtering && mapped.Kind == KindNull {
			continue
		}
		out = append(out, mapped)
	}
	return arrayOf(out), nil
}

func fnSelect(v Value, cond string, depth int) (Value, error) {
	if v.Kind == KindArray {
		var out []Value
		for _, item := range v.Items {
			ok, err := evalCondition(item, cond, depth+1)
			if err != nil {
				return Null(), err
			}
			if ok {
				out = append(out, item)
			}
		}
		return arrayOf(out), nil
	}
	ok, err := evalCondition(v, cond, depth+1)
	if err != nil {
		return Null(), err
	}
	if ok {
		return v, nil
	}
	return Null(), nil
}

func fnSortBy(v Value, expr string, depth int) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("sort_by requires an array")
	}
	type keyed struct {
		item Value
		key  Value
	}
	pairs := make([]keyed, len(v.Items))
	for i, item := range v.Items {
		key, err := eval(item, expr, depth+1)
		if err != nil {
			return Null(), err
		}
		pairs[i] = keyed{item: item, key: key}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return sortCompare(pairs[i].key, pairs[j].key) < 0
	})
	out := make([]Value, len(pairs))
	for i, p := range pairs {
		out[i] = p.item
	}
	return arrayOf(out), nil
}

// fnGroupBy buckets elements by equal key, keeping groups in
// first-seen order.
func fnGroupBy(v Value, expr string, depth int) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("group_by requires an array")
	}
	groups := make(map[string]int)
	var out []Value
	for _, item := range v.Items {
		key, err := eval(item, expr, depth+1)
		if err != nil {
			return Null(), err
		}
		keyStr := string(appendJSON(nil, key))
		idx, ok := groups[keyStr]
		if !ok {
			idx = len(out)
			groups[keyStr] = idx
			out = append(out, arrayOf(nil))
		}
		out[idx] = arrayOf(append(out[idx].Items, item))
	}
	return arrayOf(out), nil
}

func fnHas(v Value, args string) (Value, error) {
	key := unquoteArg(args)
	if v.Kind == KindObject {
		return Bool(v.Fields.Has(key)), nil
	}
	return Bool(false), nil
}

func fnContains(v Value, args string) (Value, error) {
	switch v.Kind {
	case KindString:
		return Bool(strings.Contains(v.Str, unquoteArg(args))), nil
	case KindArray:
		needle := parseArgValue(args)
		for _, item := range v.Items {
			if item.Equal(needle) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	default:
		return Null(), errType("contains requires a string or array")
	}
}

func fnStartswith(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("startswith requires a string")
	}
	return Bool(strings.HasPrefix(v.Str, unquoteArg(args))), nil
}

func fnEndswith(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("endswith requires a string")
	}
	return Bool(strings.HasSuffix(v.Str, unquoteArg(args))), nil
}

func fnSplit(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("split requires a string")
	}
	parts := strings.Split(v.Str, unquoteArg(args))
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return arrayOf(out), nil
}

func fnJoin(v Value, args string) (Value, error) {
	if v.Kind != KindArray {
		return Null(), errType("join requires an array")
	}
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.Display()
	}
	return String(strings.Join(parts, unquoteArg(args))), nil
}

func fnTest(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("test requires a string")
	}
	re, err := regexp.Compile(unquoteArg(args))
	if err != nil {
		return Null(), errArg("invalid regex: %v", err)
	}
	return Bool(re.MatchString(v.Str)), nil
}

// fnMatch returns the first match as {offset, length, string,
// captures}, or null when the pattern does not match.
func fnMatch(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("match requires a string")
	}
	re, err := regexp.Compile(unquoteArg(args))
	if err != nil {
		return Null(), errArg("invalid regex: %v", err)
	}
	loc := re.FindStringSubmatchIndex(v.Str)
	if loc == nil {
		return Null(), nil
	}
	result := NewObject()
	result.Set("offset", Number(float64(loc[0])))
	result.Set("length", Number(float64(loc[1]-loc[0])))
	result.Set("string", String(v.Str[loc[0]:loc[1]]))
	var captures []Value
	for g := 1; g*2 < len(loc); g++ {
		if loc[g*2] < 0 {
			continue
		}
		captures = append(captures, String(v.Str[loc[g*2]:loc[g*2+1]]))
	}
	result.Set("captures", arrayOf(captures))
	return ObjectValue(result), nil
}

func fnIndices(v Value, args string) (Value, error) {
	needle := parseArgValue(args)
	switch v.Kind {
	case KindArray:
		var out []Value
		for i, item := range v.Items {
			if item.Equal(needle) {
				out = append(out, Number(float64(i)))
			}
		}
		return arrayOf(out), nil
	case KindString:
		if needle.Kind != KindString {
			return Null(), errType("indices on a string requires a string search value")
		}
		var out []Value
		for start := 0; ; {
			pos := strings.Index(v.Str[start:], needle.Str)
			if pos < 0 {
				break
			}
			out = append(out, Number(float64(start+pos)))
			start += pos + 1
			if start > len(v.Str) {
				break
			}
		}
		return arrayOf(out), nil
	default:
		return Null(), errType("indices requires an array or string")
	}
}

func fnIndex(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("index requires a string")
	}
	pos := strings.Index(v.Str, unquoteArg(args))
	if pos < 0 {
		return Null(), nil
	}
	return Number(float64(pos)), nil
}

func fnRindex(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("rindex requires a string")
	}
	pos := strings.LastIndex(v.Str, unquoteArg(args))
	if pos < 0 {
		return Null(), nil
	}
	return Number(float64(pos)), nil
}

func fnLtrimstr(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("ltrimstr requires a string")
	}
	return String(strings.TrimPrefix(v.Str, unquoteArg(args))), nil
}

func fnRtrimstr(v Value, args string) (Value, error) {
	if v.Kind != KindString {
		return Null(), errType("rtrimstr requires a string")
	}
	return String(strings.TrimSuffix(v.Str, unquoteArg(args))), nil
}

func fnError(_ Value, args string) (Value, error) {
	return Null(), errExec("%s", unquoteArg(args))
}

//---- Ordering for sorts ----

// sortCompare is the total order used by sort, sort_by, min and max.
// Null sorts first; arrays and objects order by element count;
// remaining mixed kinds count as equal so sorting stays stable.
func sortCompare(a, b Value) int {
	if a.Kind == KindNull || b.Kind == KindNull {
		switch {
		case a.Kind == b.Kind:
			return 0
		case a.Kind == KindNull:
			return -1
		default:
			return 1
		}
	}
	if a.Kind == b.Kind {
		return compareValues(a, b)
	}
	return 0
}
