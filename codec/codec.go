// Package codec decodes JSON, YAML and TOML documents into the treeq
// value tree and encodes results back out.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhawalhost/treeq"
)

// Style selects the output rendering for Encode.
type Style int

const (
	// StylePretty is indented output, the default.
	StylePretty Style = iota
	// StyleCompact is single-line output where the format supports it.
	StyleCompact
	// StyleRaw prints scalar results as bare text; containers fall
	// back to pretty output.
	StyleRaw
)

// ParseStyle maps the user-facing output flag to a Style.
func ParseStyle(s string) (Style, error) {
	switch s {
	case "", "pretty":
		return StylePretty, nil
	case "compact":
		return StyleCompact, nil
	case "raw":
		return StyleRaw, nil
	default:
		return StylePretty, fmt.Errorf("unknown output style %q", s)
	}
}

// Codec converts between serialized documents and values.
type Codec interface {
	Name() string
	Decode(data []byte) (treeq.Value, error)
	Encode(v treeq.Value, style Style) ([]byte, error)
}

var ErrUnknownFormat = errors.New("unknown document format")

// ForPath picks a codec from the file extension.
func ForPath(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON{}, nil
	case ".yaml", ".yml":
		return YAML{}, nil
	case ".toml":
		return TOML{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ByName picks a codec from a format name.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	case "toml":
		return TOML{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// rawScalar renders scalars for StyleRaw. Containers report false and
// use the codec's pretty form instead.
func rawScalar(v treeq.Value) (string, bool) {
	switch v.Kind {
	case treeq.KindArray, treeq.KindObject:
		return "", false
	default:
		return v.Display(), true
	}
}
