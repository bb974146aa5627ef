package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"github.com/valyala/fastjson"

	"github.com/dhawalhost/treeq"
)

// JSON round-trips JSON documents. Decoding walks the gjson parse so
// object key order survives; fastjson validates up front because
// gjson assumes well-formed input.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Decode(data []byte) (treeq.Value, error) {
	if err := fastjson.ValidateBytes(data); err != nil {
		return treeq.Null(), fmt.Errorf("invalid json: %w", err)
	}
	return fromGJSON(gjson.ParseBytes(data)), nil
}

func (JSON) Encode(v treeq.Value, style Style) ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	switch style {
	case StyleCompact:
		return compact, nil
	case StyleRaw:
		if s, ok := rawScalar(v); ok {
			return []byte(s), nil
		}
		return pretty.Pretty(compact), nil
	default:
		return pretty.Pretty(compact), nil
	}
}

func fromGJSON(r gjson.Result) treeq.Value {
	switch {
	case r.IsArray():
		var items []treeq.Value
		r.ForEach(func(_, item gjson.Result) bool {
			items = append(items, fromGJSON(item))
			return true
		})
		return treeq.Array(items...)
	case r.IsObject():
		obj := treeq.NewObject()
		r.ForEach(func(key, item gjson.Result) bool {
			obj.Set(key.String(), fromGJSON(item))
			return true
		})
		return treeq.ObjectValue(obj)
	}
	switch r.Type {
	case gjson.Null:
		return treeq.Null()
	case gjson.False:
		return treeq.Bool(false)
	case gjson.True:
		return treeq.Bool(true)
	case gjson.Number:
		return treeq.Number(r.Num)
	default:
		return treeq.String(r.Str)
	}
}

// FastGetJSON answers simple dotted-path reads straight off the raw
// bytes, skipping the tree decode. It reports false for anything but
// a plain existing path, and the caller falls back to the engine.
func FastGetJSON(raw []byte, query string) (string, bool) {
	path, ok := gjsonPath(query)
	if !ok {
		return "", false
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return "", false
	}
	return res.Raw, true
}

// FastSetJSON applies a simple-path assignment with a strict JSON
// literal right-hand side directly on the raw bytes.
func FastSetJSON(raw []byte, query string) ([]byte, bool) {
	pos := strings.Index(query, " = ")
	if pos < 0 {
		return nil, false
	}
	path, ok := gjsonPath(strings.TrimSpace(query[:pos]))
	if !ok {
		return nil, false
	}
	rhs := strings.TrimSpace(query[pos+3:])
	if !json.Valid([]byte(rhs)) {
		return nil, false
	}
	out, err := sjson.SetRawBytes(raw, path, []byte(rhs))
	if err != nil {
		return nil, false
	}
	return out, true
}

// gjsonPath converts a ".a.b[0]" engine path into gjson's "a.b.0"
// form. Only plain field and index segments qualify; anything with
// wildcards, slices, quotes or operators is not a simple path.
func gjsonPath(query string) (string, bool) {
	if !strings.HasPrefix(query, ".") || len(query) == 1 {
		return "", false
	}
	var b strings.Builder
	i := 1
	for i < len(query) {
		switch c := query[i]; {
		case c == '.':
			if b.Len() == 0 || query[i-1] == '.' {
				return "", false
			}
			b.WriteByte('.')
			i++
		case c == '[':
			close := strings.IndexByte(query[i:], ']')
			if close < 0 {
				return "", false
			}
			idx := query[i+1 : i+close]
			if idx == "" || !allDigits(idx) {
				return "", false
			}
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(idx)
			i += close + 1
		case c == '_' || c == '-' ||
			c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			b.WriteByte(c)
			i++
		default:
			return "", false
		}
	}
	path := b.String()
	if path == "" || strings.HasSuffix(path, ".") {
		return "", false
	}
	return path, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
