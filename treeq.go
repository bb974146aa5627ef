package treeq

// maxEvalDepth bounds recursive query evaluation. Queries are written
// by people, not machines; anything deeper than this is a runaway.
const maxEvalDepth = 64

// Evaluate runs a read query against v and returns the result. The
// input is never modified; queries that restructure data return new
// containers.
func Evaluate(v Value, query string) (Value, error) {
	return eval(v, query, 0)
}

// EvaluateWrite applies a single assignment of the form
// "PATH = VALUE" to the tree rooted at v, mutating it in place, and
// returns the updated root. The right-hand side may be a literal or a
// query evaluated against the current tree.
func EvaluateWrite(v *Value, query string) (Value, error) {
	pos := indexTopLevel(query, " = ")
	if pos < 0 {
		return Null(), errSyntax("write operations require assignment syntax: .path = value")
	}
	path := query[:pos]
	rhs := query[pos+3:]
	val, err := literalOrQuery(*v, rhs, 0)
	if err != nil {
		return Null(), err
	}
	if err := setPath(v, path, val); err != nil {
		return Null(), err
	}
	return *v, nil
}
