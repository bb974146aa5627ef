package codec

import (
	"strings"
	"testing"

	"github.com/dhawalhost/treeq"
)

func TestTOMLDecode(t *testing.T) {
	doc := []byte(`
name = "treeq"
count = 3
ratio = 2.5
enabled = true
tags = ["a", "b"]

[server]
host = "localhost"
port = 8080

[[users]]
name = "amy"

[[users]]
name = "bob"
`)
	v, err := TOML{}.Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Kind != treeq.KindObject {
		t.Fatalf("Decode kind = %v, want object", v.Kind)
	}

	name, _ := v.Fields.Get("name")
	if !name.Equal(treeq.String("treeq")) {
		t.Errorf("name = %+v", name)
	}
	count, _ := v.Fields.Get("count")
	if !count.Equal(treeq.Number(3)) {
		t.Errorf("count = %+v", count)
	}
	ratio, _ := v.Fields.Get("ratio")
	if !ratio.Equal(treeq.Number(2.5)) {
		t.Errorf("ratio = %+v", ratio)
	}
	server, _ := v.Fields.Get("server")
	port, _ := server.Fields.Get("port")
	if !port.Equal(treeq.Number(8080)) {
		t.Errorf("server.port = %+v", port)
	}
	users, _ := v.Fields.Get("users")
	if users.Kind != treeq.KindArray || len(users.Items) != 2 {
		t.Fatalf("users = %+v, want 2-element array", users)
	}
	second, _ := users.Items[1].Fields.Get("name")
	if !second.Equal(treeq.String("bob")) {
		t.Errorf("users[1].name = %+v", second)
	}
}

func TestTOMLDecodeDates(t *testing.T) {
	doc := []byte("created = 2024-03-01T10:30:00Z\nday = 2024-03-01\n")
	v, err := TOML{}.Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	created, _ := v.Fields.Get("created")
	if created.Kind != treeq.KindString || !strings.HasPrefix(created.Str, "2024-03-01T") {
		t.Errorf("created = %+v, want RFC3339 string", created)
	}
	day, _ := v.Fields.Get("day")
	if !day.Equal(treeq.String("2024-03-01")) {
		t.Errorf("day = %+v, want \"2024-03-01\"", day)
	}
}

func TestTOMLDecodeInvalid(t *testing.T) {
	if _, err := (TOML{}).Decode([]byte("= no key\n")); err == nil {
		t.Error("Decode of invalid toml succeeded")
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	doc := []byte("count = 3\nname = \"x\"\n\n[nested]\nflag = true\n")
	v, err := TOML{}.Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := TOML{}.Encode(v, StylePretty)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := TOML{}.Decode(out)
	if err != nil {
		t.Fatalf("Decode of encoded output: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("round trip changed the document:\n%s", out)
	}
}

func TestTOMLEncodeRequiresTable(t *testing.T) {
	if _, err := (TOML{}).Encode(treeq.Number(1), StylePretty); err == nil {
		t.Error("Encode of a bare scalar succeeded, want error")
	}
	// raw style may print scalars
	out, err := TOML{}.Encode(treeq.String("plain"), StyleRaw)
	if err != nil {
		t.Fatalf("Encode raw: %v", err)
	}
	if string(out) != "plain" {
		t.Errorf("raw scalar = %q, want plain", out)
	}
}
