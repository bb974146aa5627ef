package treeq

import (
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	segField segmentKind = iota
	segIndex
	segWildcard
	segSlice
)

// pathSegment is one step of a decomposed path expression such as
// .users[0].name or .items[1:3].
type pathSegment struct {
	kind  segmentKind
	field string
	index int
	start *int
	end   *int
}

// parsePath decomposes a path expression into segments. The input
// must start with '.' and may mix field access, numeric indexing,
// wildcards ([], [*], .*) and slices ([a:b]).
func parsePath(path string) ([]pathSegment, error) {
	if !strings.HasPrefix(path, ".") {
		return nil, errSyntax("path must start with '.': %s", path)
	}
	var segs []pathSegment
	i := 1
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
		case '[':
			close := strings.IndexByte(path[i:], ']')
			if close < 0 {
				return nil, errSyntax("unterminated '[' in path %s", path)
			}
			inner := path[i+1 : i+close]
			seg, err := parseBracket(inner, path)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i += close + 1
		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			name := path[i:j]
			if name == "*" {
				segs = append(segs, pathSegment{kind: segWildcard})
			} else {
				segs = append(segs, pathSegment{kind: segField, field: name})
			}
			i = j
		}
	}
	return segs, nil
}

func parseBracket(inner, path string) (pathSegment, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" || inner == "*" {
		return pathSegment{kind: segWildcard}, nil
	}
	if strings.Contains(inner, ":") {
		parts := strings.SplitN(inner, ":", 2)
		seg := pathSegment{kind: segSlice}
		if s := strings.TrimSpace(parts[0]); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return seg, errSyntax("invalid slice bound %q in path %s", s, path)
			}
			seg.start = &n
		}
		if s := strings.TrimSpace(parts[1]); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return seg, errSyntax("invalid slice bound %q in path %s", s, path)
			}
			seg.end = &n
		}
		return seg, nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return pathSegment{}, errSyntax("invalid array index %q in path %s", inner, path)
	}
	return pathSegment{kind: segIndex, index: n}, nil
}

// navigate walks v along segs. Missing keys and out-of-range indexes
// are reported as errors; the '?' suffix in the dispatcher converts
// them to null when the caller asked for that.
func navigate(v Value, segs []pathSegment) (Value, error) {
	if len(segs) == 0 {
		return v, nil
	}
	seg, rest := segs[0], segs[1:]
	switch seg.kind {
	case segField:
		if v.Kind != KindObject {
			return Null(), errType("cannot access field %q on %s", seg.field, v.Type())
		}
		item, ok := v.Fields.Get(seg.field)
		if !ok {
			return Null(), errKey("%s", seg.field)
		}
		return navigate(item, rest)
	case segIndex:
		if v.Kind != KindArray {
			return Null(), errType("cannot index %s with a number", v.Type())
		}
		idx := seg.index
		if idx < 0 {
			idx += len(v.Items)
		}
		if idx < 0 || idx >= len(v.Items) {
			return Null(), errIndex("index %d on array of length %d", seg.index, len(v.Items))
		}
		return navigate(v.Items[idx], rest)
	case segSlice:
		if v.Kind != KindArray {
			return Null(), errType("cannot slice %s", v.Type())
		}
		sliced := sliceArray(v.Items, seg.start, seg.end)
		return navigate(arrayOf(sliced), rest)
	default: // wildcard
		items, err := elementsOf(v)
		if err != nil {
			return Null(), err
		}
		if len(rest) == 0 {
			return arrayOf(items), nil
		}
		var out []Value
		for _, item := range items {
			mapped, err := navigate(item, rest)
			if err != nil {
				continue
			}
			out = append(out, mapped)
		}
		return arrayOf(out), nil
	}
}

// elementsOf lists the iterable elements of v: array items, or object
// values in key order.
func elementsOf(v Value) ([]Value, error) {
	switch v.Kind {
	case KindArray:
		return v.Items, nil
	case KindObject:
		items := make([]Value, 0, v.Fields.Len())
		for _, k := range v.Fields.Keys() {
			item, _ := v.Fields.Get(k)
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, errType("cannot iterate over %s", v.Type())
	}
}

func sliceArray(items []Value, start, end *int) []Value {
	lo, hi := 0, len(items)
	if start != nil {
		lo = clampIndex(*start, len(items))
	}
	if end != nil {
		hi = clampIndex(*end, len(items))
	}
	if lo > hi {
		lo = hi
	}
	out := make([]Value, hi-lo)
	copy(out, items[lo:hi])
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// collectAll gathers every value in the tree in document order, the
// ".." recursive descent. Containers are included as well as leaves.
func collectAll(v Value, out *[]Value) {
	*out = append(*out, v)
	switch v.Kind {
	case KindArray:
		for _, item := range v.Items {
			collectAll(item, out)
		}
	case KindObject:
		for _, k := range v.Fields.Keys() {
			item, _ := v.Fields.Get(k)
			collectAll(item, out)
		}
	}
}

// collectField gathers every value stored under the given key at any
// depth, the "..field" form.
func collectField(v Value, field string, out *[]Value) {
	switch v.Kind {
	case KindArray:
		for _, item := range v.Items {
			collectField(item, field, out)
		}
	case KindObject:
		if item, ok := v.Fields.Get(field); ok {
			*out = append(*out, item)
		}
		for _, k := range v.Fields.Keys() {
			item, _ := v.Fields.Get(k)
			collectField(item, field, out)
		}
	}
}

// evalPath answers the plain path portion of the query language: ".",
// ".." descent, ".[]" iteration and dotted navigation.
func evalPath(v Value, query string) (Value, error) {
	if query == "." {
		return v, nil
	}
	if query == ".." {
		var all []Value
		collectAll(v, &all)
		return arrayOf(all), nil
	}
	if strings.HasPrefix(query, "..") {
		field := query[2:]
		if field == "" || strings.ContainsAny(field, ".[") {
			return Null(), errSyntax("invalid recursive descent %q", query)
		}
		var found []Value
		collectField(v, field, &found)
		return arrayOf(found), nil
	}
	if !strings.HasPrefix(query, ".") {
		return Null(), errSyntax("path must start with '.': %s", query)
	}
	segs, err := parsePath(query)
	if err != nil {
		return Null(), err
	}
	return navigate(v, segs)
}
