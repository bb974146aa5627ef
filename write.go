package treeq

import (
	"strings"
)

// setPath stores val at the location named by path, mutating the tree
// in place. A missing intermediate field is created on the way down:
// an empty array when the next segment is an index, an empty object
// otherwise. Array elements can only be replaced, not appended.
func setPath(root *Value, path string, val Value) error {
	path = strings.TrimSpace(path)
	if path == "." {
		*root = val
		return nil
	}
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		*root = val
		return nil
	}
	return applySet(root, segs, val)
}

func applySet(cur *Value, segs []pathSegment, val Value) error {
	seg := segs[0]
	switch seg.kind {
	case segField:
		if cur.Kind != KindObject {
			return errType("cannot set field %q on %s", seg.field, cur.Type())
		}
		if len(segs) == 1 {
			cur.Fields.Set(seg.field, val)
			return nil
		}
		child, ok := cur.Fields.Get(seg.field)
		if !ok {
			if segs[1].kind == segIndex {
				child = arrayOf(nil)
			} else {
				child = emptyObject()
			}
		}
		if err := applySet(&child, segs[1:], val); err != nil {
			return err
		}
		cur.Fields.Set(seg.field, child)
		return nil
	case segIndex:
		if cur.Kind != KindArray {
			return errType("cannot index %s with a number", cur.Type())
		}
		idx := seg.index
		if idx < 0 {
			idx += len(cur.Items)
		}
		if idx < 0 || idx >= len(cur.Items) {
			return errIndex("index %d on array of length %d", seg.index, len(cur.Items))
		}
		if len(segs) == 1 {
			cur.Items[idx] = val
			return nil
		}
		return applySet(&cur.Items[idx], segs[1:], val)
	default:
		return errSyntax("wildcards and slices are not assignable")
	}
}

// deletePath removes the location named by path. Removing a missing
// object key is a no-op; removing an array element shifts the
// elements after it down by one.
func deletePath(root *Value, path string) error {
	path = strings.TrimSpace(path)
	if path == "." {
		return errSyntax("cannot delete root")
	}
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return errSyntax("cannot delete root")
	}
	return applyDelete(root, segs)
}

func applyDelete(cur *Value, segs []pathSegment) error {
	seg := segs[0]
	if len(segs) == 1 {
		switch seg.kind {
		case segField:
			if cur.Kind != KindObject {
				return errType("cannot delete field %q from %s", seg.field, cur.Type())
			}
			cur.Fields.Delete(seg.field)
			return nil
		case segIndex:
			if cur.Kind != KindArray {
				return errType("cannot delete index from %s", cur.Type())
			}
			idx := seg.index
			if idx < 0 {
				idx += len(cur.Items)
			}
			if idx < 0 || idx >= len(cur.Items) {
				return errIndex("index %d on array of length %d", seg.index, len(cur.Items))
			}
			cur.Items = append(cur.Items[:idx], cur.Items[idx+1:]...)
			return nil
		default:
			return errSyntax("wildcards and slices are not deletable")
		}
	}
	switch seg.kind {
	case segField:
		if cur.Kind != KindObject {
			return errType("cannot access field %q on %s", seg.field, cur.Type())
		}
		child, ok := cur.Fields.Get(seg.field)
		if !ok {
			return errKey("%s", seg.field)
		}
		if err := applyDelete(&child, segs[1:]); err != nil {
			return err
		}
		cur.Fields.Set(seg.field, child)
		return nil
	case segIndex:
		if cur.Kind != KindArray {
			return errType("cannot index %s with a number", cur.Type())
		}
		idx := seg.index
		if idx < 0 {
			idx += len(cur.Items)
		}
		if idx < 0 || idx >= len(cur.Items) {
			return errIndex("index %d on array of length %d", seg.index, len(cur.Items))
		}
		return applyDelete(&cur.Items[idx], segs[1:])
	default:
		return errSyntax("wildcards and slices are not deletable")
	}
}

// evalDel implements del(PATH): the input is copied and the location
// removed from the copy, so shared subtrees stay untouched.
func evalDel(v Value, path string) (Value, error) {
	out := v.Clone()
	if err := deletePath(&out, strings.TrimSpace(path)); err != nil {
		return Null(), err
	}
	return out, nil
}

// evalWithEntries rewrites an object through its entry list: each
// {key, value} entry runs through expr and the results are folded
// back into an object. An expr containing " = " assigns into the
// entry instead of replacing it, which covers the common
// ".value = EXPR" form.
func evalWithEntries(v Value, expr string, depth int) (Value, error) {
	if v.Kind != KindObject {
		return Null(), errType("with_entries requires an object")
	}
	expr = strings.TrimSpace(expr)
	entries, err := fnToEntries(v)
	if err != nil {
		return Null(), err
	}
	assignPos := indexTopLevel(expr, " = ")
	var out []Value
	for _, entry := range entries.Items {
		if assignPos >= 0 {
			target := strings.TrimSpace(expr[:assignPos])
			rhs := strings.TrimSpace(expr[assignPos+3:])
			if !strings.HasPrefix(target, ".") {
				return Null(), errSyntax("assignment target must start with '.': %s", target)
			}
			newVal, err := eval(entry, rhs, depth+1)
			if err != nil {
				return Null(), err
			}
			updated := entry.Clone()
			updated.Fields.Set(target[1:], newVal)
			out = append(out, updated)
			continue
		}
		mapped, err := eval(entry, expr, depth+1)
		if err != nil {
			return Null(), err
		}
		out = append(out, mapped)
	}
	return fnFromEntries(arrayOf(out))
}
