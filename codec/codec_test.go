package codec

import (
	"errors"
	"testing"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"config.json", "json"},
		{"deploy.yaml", "yaml"},
		{"deploy.YML", "yaml"},
		{"Cargo.toml", "toml"},
		{"/abs/path/data.Json", "json"},
	}
	for _, tt := range tests {
		c, err := ForPath(tt.path)
		if err != nil {
			t.Errorf("ForPath(%q) error: %v", tt.path, err)
			continue
		}
		if c.Name() != tt.want {
			t.Errorf("ForPath(%q) = %s, want %s", tt.path, c.Name(), tt.want)
		}
	}

	_, err := ForPath("notes.txt")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ForPath(notes.txt) error = %v, want ErrUnknownFormat", err)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "yaml", "yml", "toml", "JSON"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) error: %v", name, err)
		}
	}
	if _, err := ByName("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ByName(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in   string
		want Style
	}{
		{"", StylePretty},
		{"pretty", StylePretty},
		{"compact", StyleCompact},
		{"raw", StyleRaw},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if err != nil {
			t.Errorf("ParseStyle(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseStyle("fancy"); err == nil {
		t.Error("ParseStyle(fancy) succeeded, want error")
	}
}
