package treeq

import "testing"

func applyWrite(t *testing.T, doc, query string) (string, error) {
	t.Helper()
	v := mustValue(t, doc)
	res, err := EvaluateWrite(&v, query)
	if err != nil {
		return "", err
	}
	return string(appendJSON(nil, res)), nil
}

func TestEvaluateWrite(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		query string
		want  string
	}{
		{"set field", `{"a":1}`, ".a = 2", `{"a":2}`},
		{"new field appends", `{"a":1}`, ".b = 2", `{"a":1,"b":2}`},
		{"nested field", `{"a":{"b":1}}`, ".a.b = 2", `{"a":{"b":2}}`},
		{"array element", `{"list":[1,2,3]}`, ".list[1] = 9", `{"list":[1,9,3]}`},
		{"negative index", `{"list":[1,2,3]}`, ".list[-1] = 9", `{"list":[1,2,9]}`},
		{"string value", `{"a":1}`, `.a = "text"`, `{"a":"text"}`},
		{"array literal value", `{"a":1}`, `.a = [1, 2]`, `{"a":[1,2]}`},
		{"object literal value", `{"a":1}`, `.a = {"b": 2}`, `{"a":{"b":2}}`},
		{"bare word becomes string", `{"a":1}`, ".a = active", `{"a":"active"}`},
		{"replace root", `{"a":1}`, `. = {"b": 2}`, `{"b":2}`},
		{"null value", `{"a":1}`, ".a = null", `{"a":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyWrite(t, tt.doc, tt.query)
			if err != nil {
				t.Fatalf("EvaluateWrite(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("EvaluateWrite(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateWriteQueryValue(t *testing.T) {
	got, err := applyWrite(t, `{"items":[1,2,3]}`, ".total = .items | length")
	if err != nil {
		t.Fatalf("EvaluateWrite error: %v", err)
	}
	want := `{"items":[1,2,3],"total":3}`
	if got != want {
		t.Errorf("query right-hand side = %s, want %s", got, want)
	}

	got, err = applyWrite(t, `{"a":5}`, ".b = .a + 1")
	if err != nil {
		t.Fatalf("EvaluateWrite error: %v", err)
	}
	want = `{"a":5,"b":6}`
	if got != want {
		t.Errorf("arithmetic right-hand side = %s, want %s", got, want)
	}
}

func TestEvaluateWriteVivifiesIntermediates(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		query string
		want  string
	}{
		{"missing object chain", `{}`, ".a.b.c = 1", `{"a":{"b":{"c":1}}}`},
		{"object under existing", `{"x":0}`, ".a.b = 1", `{"x":0,"a":{"b":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyWrite(t, tt.doc, tt.query)
			if err != nil {
				t.Fatalf("EvaluateWrite(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("EvaluateWrite(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}

	// a vivified array is empty, so any index into it is out of bounds
	_, err := applyWrite(t, `{}`, ".list[0] = 1")
	if !IsCode(err, CodeIndexOutOfBounds) {
		t.Errorf("index into vivified array error = %v, want index out of bounds", err)
	}
}

func TestEvaluateWriteErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		query string
		code  ErrorCode
	}{
		{"missing assignment", `{"a":1}`, ".a", CodeInvalidSyntax},
		{"index out of bounds", `{"list":[1]}`, ".list[5] = 2", CodeIndexOutOfBounds},
		{"field on scalar", `{"a":1}`, ".a.b = 2", CodeType},
		{"index on object", `{"a":{}}`, ".a[0] = 2", CodeType},
		{"wildcard target", `{"a":[1]}`, ".a[*] = 2", CodeInvalidSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyWrite(t, tt.doc, tt.query)
			if !IsCode(err, tt.code) {
				t.Errorf("EvaluateWrite(%q) error = %v, want code %d", tt.query, err, tt.code)
			}
		})
	}
}

func TestDeletePath(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		query string
		want  string
	}{
		{"delete field", `{"a":1,"b":2}`, "del(.a)", `{"b":2}`},
		{"delete missing field", `{"a":1}`, "del(.z)", `{"a":1}`},
		{"delete nested", `{"a":{"b":1,"c":2}}`, "del(.a.b)", `{"a":{"c":2}}`},
		{"delete array element shifts", `{"list":[1,2,3]}`, "del(.list[1])", `{"list":[1,3]}`},
		{"delete last element", `{"list":[1,2]}`, "del(.list[-1])", `{"list":[1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalToJSON(t, tt.doc, tt.query)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}

	_, err := evalToJSON(t, `{"a":1}`, "del(.)")
	if !IsCode(err, CodeInvalidSyntax) {
		t.Errorf("del(.) error = %v, want syntax error", err)
	}
	_, err = evalToJSON(t, `{"a":{"b":1}}`, "del(.z.b)")
	if !IsCode(err, CodeKeyNotFound) {
		t.Errorf("del through missing field error = %v, want key not found", err)
	}
}

func TestWithEntriesAssignment(t *testing.T) {
	got, err := evalToJSON(t, `{"a":1,"b":2}`, "with_entries(.value = .value * 10)")
	if err != nil {
		t.Fatalf("with_entries error: %v", err)
	}
	if got != `{"a":10,"b":20}` {
		t.Errorf("with_entries assignment = %s, want {\"a\":10,\"b\":20}", got)
	}

	_, err = evalToJSON(t, `[1,2]`, "with_entries(.value = 0)")
	if !IsCode(err, CodeType) {
		t.Errorf("with_entries on array error = %v, want type error", err)
	}
}
