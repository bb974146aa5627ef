package treeq

import (
	"strings"
	"testing"
)

const testDoc = `{
	"name": "treeq",
	"version": 2,
	"tags": ["fast", "small"],
	"users": [
		{"name": "amy", "age": 25, "active": true},
		{"name": "bob", "age": 17, "active": false},
		{"name": "cal", "age": 31, "active": true}
	],
	"meta": {"stars": 10, "forks": 3}
}`

func mustValue(t *testing.T, src string) Value {
	t.Helper()
	v, err := decodeJSONValue(src)
	if err != nil {
		t.Fatalf("decode %q: %v", src, err)
	}
	return v
}

func evalToJSON(t *testing.T, doc, query string) (string, error) {
	t.Helper()
	res, err := Evaluate(mustValue(t, doc), query)
	if err != nil {
		return "", err
	}
	return string(appendJSON(nil, res)), nil
}

func TestEvaluatePaths(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"identity", ".", `{"name":"treeq","version":2,"tags":["fast","small"],"users":[{"name":"amy","age":25,"active":true},{"name":"bob","age":17,"active":false},{"name":"cal","age":31,"active":true}],"meta":{"stars":10,"forks":3}}`},
		{"field", ".name", `"treeq"`},
		{"nested field", ".meta.stars", `10`},
		{"array index", ".users[0].name", `"amy"`},
		{"negative index", ".users[-1].name", `"cal"`},
		{"iterate array", ".tags[]", `["fast","small"]`},
		{"iterate object", ".meta[]", `[10,3]`},
		{"slice", ".tags[0:1]", `["fast"]`},
		{"slice open end", ".users[1:]", `[{"name":"bob","age":17,"active":false},{"name":"cal","age":31,"active":true}]`},
		{"wildcard", ".users[*].name", `["amy","bob","cal"]`},
		{"dot star", ".meta.*", `[10,3]`},
		{"dot star root", ".*", `["treeq",2,["fast","small"],[{"name":"amy","age":25,"active":true},{"name":"bob","age":17,"active":false},{"name":"cal","age":31,"active":true}],{"stars":10,"forks":3}]`},
		{"recursive field", "..name", `["treeq","amy","bob","cal"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluatePathErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  ErrorCode
	}{
		{"missing key", ".missing", CodeKeyNotFound},
		{"missing nested key", ".meta.missing", CodeKeyNotFound},
		{"index out of range", ".tags[9]", CodeIndexOutOfBounds},
		{"field on scalar", ".name.sub", CodeType},
		{"iterate scalar", ".version[]", CodeType},
		{"no leading dot", "name", CodeInvalidSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evalToJSON(t, testDoc, tt.query)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.query)
			}
			if !IsCode(err, tt.code) {
				t.Errorf("Evaluate(%q) error = %v, want code %d", tt.query, err, tt.code)
			}
		})
	}
}

func TestEvaluateOptionalSuffix(t *testing.T) {
	got, err := evalToJSON(t, testDoc, ".missing?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "null" {
		t.Errorf("got %s, want null", got)
	}
}

func TestEvaluatePipes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"two stages", ".meta | .stars", `10`},
		{"length stage", ".users | length", `3`},
		{"generator", ".users[] | .name", `["amy","bob","cal"]`},
		{"generator with select", ".users[] | select(.age > 18)", `[{"name":"amy","age":25,"active":true},{"name":"cal","age":31,"active":true}]`},
		{"collect generator", "[.users[] | .age]", `[25,17,31]`},
		{"pipe inside construction", "{count: .users | length}", `{"count":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateAlternative(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"present value", `.name // "anon"`, `"treeq"`},
		{"missing key", `.missing // "anon"`, `"anon"`},
		{"null is replaced", `.missing? // 7`, `7`},
		{"false is replaced", `.users[1].active // "inactive"`, `"inactive"`},
		{"chained", `.missing // .absent // "last"`, `"last"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateConditionals(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"then branch", `if .meta.stars > 5 then "popular" else "quiet" end`, `"popular"`},
		{"else branch", `if .meta.stars > 99 then "popular" else "quiet" end`, `"quiet"`},
		{"no else false", `if .meta.stars > 99 then "popular" end`, `null`},
		{"nested", `if .version > 1 then if .meta.stars > 100 then "hot" else "warm" end else "cold" end`, `"warm"`},
		{"query branch", `if .users[0].active then .users[0].name else .name end`, `"amy"`},
		{"pipe after end", `if .version > 1 then .users else .tags end | length`, `3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateConditionalSyntaxErrors(t *testing.T) {
	for _, query := range []string{
		"if .a then 1",
		"if .a 1 end",
	} {
		_, err := evalToJSON(t, testDoc, query)
		if !IsCode(err, CodeInvalidSyntax) {
			t.Errorf("Evaluate(%q) error = %v, want invalid syntax", query, err)
		}
	}
}

func TestEvaluateTryCatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"try success", "try .name", `"treeq"`},
		{"try failure", "try .missing", `null`},
		{"catch literal", `try .missing catch "fallback"`, `"fallback"`},
		{"catch query", `try .missing catch .name`, `"treeq"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"add", ".meta.stars + 5", `15`},
		{"subtract", ".meta.stars - 3", `7`},
		{"chain is left associative", ".meta.stars - 3 - 2", `5`},
		{"precedence", ".meta.stars * 2 - 1", `19`},
		{"parens", "(.meta.stars + 2) * 2", `24`},
		{"divide", "10 / 4", `2.5`},
		{"modulo", ".meta.stars % 3", `1`},
		{"string concat", `.name + "!"`, `"treeq!"`},
		{"array concat", `.tags + ["tiny"]`, `["fast","small","tiny"]`},
		{"negative literal", "-3 + 5", `2`},
		{"builtin operand", ".tags | length + 1", `3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateArithmeticErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  ErrorCode
	}{
		{"divide by zero", ".meta.stars / 0", CodeDivisionByZero},
		{"modulo by zero", ".meta.stars % 0", CodeDivisionByZero},
		{"mixed add", ".name + 1", CodeType},
		{"mixed subtract", `.name - "q"`, CodeType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evalToJSON(t, testDoc, tt.query)
			if !IsCode(err, tt.code) {
				t.Errorf("Evaluate(%q) error = %v, want code %d", tt.query, err, tt.code)
			}
		})
	}
}

func TestEvaluateComparisonsAndLogic(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"greater", ".meta.stars > 5", `true`},
		{"less equal", ".meta.stars <= 10", `true`},
		{"equality", `.name == "treeq"`, `true`},
		{"inequality", ".version != 2", `false`},
		{"and", ".users[0].active and .users[2].active", `true`},
		{"and short circuit", ".users[1].active and .missing", `false`},
		{"or", ".users[1].active or .users[0].active", `true`},
		{"not", "not .users[1].active", `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateConstructions(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"empty array", "[]", `[]`},
		{"literal array", "[1, 2, .meta.stars]", `[1,2,10]`},
		{"single query collect", "[.tags[]]", `["fast","small"]`},
		{"empty object", "{}", `{}`},
		{"object", `{project: .name, count: .users | length}`, `{"project":"treeq","count":3}`},
		{"object shorthand", "{name}", `{"name":"treeq"}`},
		{"quoted key", `{"the name": .name}`, `{"the name":"treeq"}`},
		{"bare word value", `{status: active}`, `{"status":"active"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, testDoc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateLiterals(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"42", `42`},
		{"-2.5", `-2.5`},
		{`"hi"`, `"hi"`},
		{"true", `true`},
		{"null", `null`},
	}
	for _, tt := range tests {
		got, err := evalToJSON(t, testDoc, tt.query)
		if err != nil {
			t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
		}
		if got != tt.want {
			t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestEvaluateUnknownFunction(t *testing.T) {
	_, err := evalToJSON(t, testDoc, "frobnicate(.name)")
	if !IsCode(err, CodeFunctionNotFound) {
		t.Errorf("error = %v, want function not found", err)
	}
}

func TestEvaluateRecursionLimit(t *testing.T) {
	depth := maxEvalDepth + 2
	query := strings.Repeat("[", depth) + "42" + strings.Repeat("]", depth)
	_, err := evalToJSON(t, testDoc, query)
	if !IsCode(err, CodeExecution) {
		t.Errorf("error = %v, want execution error", err)
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	doc := mustValue(t, `{"a":{"b":1},"arr":[1,2]}`)
	if _, err := Evaluate(doc, "del(.a.b)"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := Evaluate(doc, "del(.arr[0])"); err != nil {
		t.Fatalf("del index: %v", err)
	}
	want := mustValue(t, `{"a":{"b":1},"arr":[1,2]}`)
	if !doc.Equal(want) {
		t.Errorf("input mutated: %s", string(appendJSON(nil, doc)))
	}
}
