package treeq

import (
	"strings"
	"unicode"
)

// The scanners in this file are shared by the dispatcher, the
// condition evaluator and the expression evaluator. They all treat
// double-quoted strings as opaque and respect (), [] and {} nesting.

// scanMask records, per byte, whether the position is inside a string
// literal and the bracket nesting depth at that position.
type scanMask struct {
	inString []bool
	depth    []int
}

func buildScanMask(s string) scanMask {
	m := scanMask{
		inString: make([]bool, len(s)),
		depth:    make([]int, len(s)),
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			m.inString[i] = true
			m.depth[i] = depth
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			m.inString[i] = true
		case '(', '[', '{':
			m.depth[i] = depth
			depth++
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
		m.depth[i] = depth
	}
	return m
}

// indexTopLevel returns the first index of sub in s that sits at
// nesting depth zero and outside string literals, or -1.
func indexTopLevel(s, sub string) int {
	if sub == "" {
		return -1
	}
	m := buildScanMask(s)
	for i := 0; i+len(sub) <= len(s); i++ {
		if m.inString[i] || m.depth[i] != 0 {
			continue
		}
		if strings.HasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}

func containsTopLevel(s, sub string) bool {
	return indexTopLevel(s, sub) >= 0
}

// splitPipe splits q on " | " separators that sit at nesting depth
// zero, so pipes inside parentheses, constructions and strings stay
// attached to their stage.
func splitPipe(q string) []string {
	m := buildScanMask(q)
	var parts []string
	start := 0
	for i := 0; i+3 <= len(q); i++ {
		if m.inString[i] || m.depth[i] != 0 {
			continue
		}
		if q[i:i+3] == " | " {
			parts = append(parts, strings.TrimSpace(q[start:i]))
			start = i + 3
			i += 2
		}
	}
	parts = append(parts, strings.TrimSpace(q[start:]))
	return parts
}

// splitTopLevelCommas splits s on commas at nesting depth zero.
func splitTopLevelCommas(s string) []string {
	m := buildScanMask(s)
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && !m.inString[i] && m.depth[i] == 0 {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func hasTopLevelComma(s string) bool {
	m := buildScanMask(s)
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && !m.inString[i] && m.depth[i] == 0 {
			return true
		}
	}
	return false
}

// wordAt reports whether word occupies s[i:] with word boundaries on
// both sides. A boundary is the string edge, whitespace or a paren.
func wordAt(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	if i > 0 {
		prev := s[i-1]
		if prev != ' ' && prev != '\t' && prev != '(' && prev != ';' {
			return false
		}
	}
	end := i + len(word)
	if end < len(s) {
		next := s[end]
		if next != ' ' && next != '\t' && next != ')' {
			return false
		}
	}
	return true
}

// findMatchingEnd returns the index just past the "end" keyword that
// closes the conditional opening q. The leading "if " of q itself
// counts as the first opening.
func findMatchingEnd(q string) (int, error) {
	m := buildScanMask(q)
	depth := 0
	for i := 0; i < len(q); i++ {
		if m.inString[i] {
			continue
		}
		if wordAt(q, i, "if") {
			depth++
			i++
			continue
		}
		if wordAt(q, i, "end") {
			depth--
			if depth == 0 {
				return i + 3, nil
			}
			i += 2
		}
	}
	return 0, errSyntax("missing 'end' in conditional")
}

// findElse locates the "else" belonging to the outermost "if" of q,
// skipping else keywords of nested conditionals. Returns -1 if the
// conditional has no else branch.
func findElse(q string) int {
	m := buildScanMask(q)
	depth := 0
	for i := 0; i < len(q); i++ {
		if m.inString[i] {
			continue
		}
		if wordAt(q, i, "if") {
			depth++
			i++
			continue
		}
		if wordAt(q, i, "end") {
			depth--
			i += 2
			continue
		}
		if depth == 1 && wordAt(q, i, "else") {
			return i
		}
	}
	return -1
}

// findArithOp locates the operator to split an arithmetic expression
// at. It scans right to left so chains evaluate left-associatively,
// and checks + and - before * / % so the lower-precedence split wins.
// An operator counts as binary only when preceded by whitespace or a
// closing paren; anything else is a sign, part of a number or a path
// wildcard such as ".meta.*".
func findArithOp(expr string) (pos int, op byte, ok bool) {
	m := buildScanMask(expr)
	for _, pass := range []string{"+-", "*/%"} {
		for i := len(expr) - 1; i >= 0; i-- {
			if m.inString[i] || m.depth[i] != 0 {
				continue
			}
			c := expr[i]
			if strings.IndexByte(pass, c) < 0 {
				continue
			}
			if i == 0 {
				continue
			}
			prev := expr[i-1]
			if prev != ' ' && prev != '\t' && prev != ')' {
				continue
			}
			return i, c, true
		}
	}
	return 0, 0, false
}

// splitFunctionCall decomposes "name(args)" into its parts. The name
// must be a plain identifier; path expressions and operator spillover
// such as ".a + f(1)" are rejected so they reach the right evaluator.
func splitFunctionCall(q string) (name, args string, ok bool) {
	open := strings.IndexByte(q, '(')
	if open <= 0 || !strings.HasSuffix(q, ")") {
		return "", "", false
	}
	name = q[:open]
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", "", false
		}
	}
	return name, q[open+1 : len(q)-1], true
}

// stripOuterParens removes one layer of parentheses when they wrap the
// whole expression.
func stripOuterParens(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		m := buildScanMask(s)
		// the closing paren matches the opener only if depth never
		// returns to zero in between
		wraps := true
		for i := 1; i < len(s)-1; i++ {
			if !m.inString[i] && m.depth[i] == 0 {
				wraps = false
				break
			}
		}
		if !wraps {
			return s
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
