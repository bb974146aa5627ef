// Package treeq implements a jq-style query and update engine over an
// in-memory document tree shared by the JSON, YAML and TOML codecs.
package treeq

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the type of a document value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a single node of a document tree. Exactly one payload field
// is meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Boolean bool
	Num     float64
	Str     string
	Items   []Value
	Fields  *Object
}

// Object is a key/value mapping that remembers insertion order.
type Object struct {
	keys []string
	vals map[string]Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the key list in insertion order. The returned slice is
// owned by the object and must not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	v, ok := o.vals[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.vals[key]
	return ok
}

// Set stores key. A new key is appended after all existing keys.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if o == nil {
		return false
	}
	if _, ok := o.vals[key]; !ok {
		return false
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *Object) Clone() *Object {
	c := NewObject()
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		c.Set(k, v.Clone())
	}
	return c
}

//---- Constructors ----

func Null() Value { return Value{Kind: KindNull} }

func Bool(b bool) Value { return Value{Kind: KindBool, Boolean: b} }

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Array(items ...Value) Value { return Value{Kind: KindArray, Items: items} }

func ObjectValue(o *Object) Value { return Value{Kind: KindObject, Fields: o} }

func emptyObject() Value { return ObjectValue(NewObject()) }

func arrayOf(items []Value) Value { return Value{Kind: KindArray, Items: items} }

//---- Inspection ----

// Type returns the value's type name as used in error messages and by
// the type builtin.
func (v Value) Type() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return "object"
	}
}

// Truthy reports whether v counts as true in conditions: null and
// false are false, zero and empty strings, arrays and objects are
// false, everything else is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Boolean
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindArray:
		return len(v.Items) > 0
	default:
		return v.Fields.Len() > 0
	}
}

// Equal reports deep equality. Object comparison ignores key order.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Boolean == other.Boolean
	case KindNumber:
		return v.Num == other.Num
	case KindString:
		return v.Str == other.Str
	case KindArray:
		if len(v.Items) != len(other.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	default:
		if v.Fields.Len() != other.Fields.Len() {
			return false
		}
		for _, k := range v.Fields.Keys() {
			a, _ := v.Fields.Get(k)
			b, ok := other.Fields.Get(k)
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
}

// Clone returns a deep copy that shares no containers with v.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindArray:
		items := make([]Value, len(v.Items))
		for i := range v.Items {
			items[i] = v.Items[i].Clone()
		}
		return arrayOf(items)
	case KindObject:
		return ObjectValue(v.Fields.Clone())
	default:
		return v
	}
}

// Display renders v for string contexts: strings are bare, scalars use
// their canonical text and containers serialize compactly.
func (v Value) Display() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Boolean)
	case KindNumber:
		return formatNumber(v.Num)
	case KindString:
		return v.Str
	default:
		b, _ := v.MarshalJSON()
		return string(b)
	}
}

// formatNumber renders whole numbers without a fractional part, so a
// value that round-trips through float64 stays "2" rather than "2.0".
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

//---- JSON bridging ----

// MarshalJSON serializes v compactly, keeping object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	return appendJSON(nil, v), nil
}

func appendJSON(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		return strconv.AppendBool(dst, v.Boolean)
	case KindNumber:
		return append(dst, formatNumber(v.Num)...)
	case KindString:
		b, _ := json.Marshal(v.Str)
		return append(dst, b...)
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.Items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSON(dst, item)
		}
		return append(dst, ']')
	default:
		dst = append(dst, '{')
		for i, k := range v.Fields.Keys() {
			if i > 0 {
				dst = append(dst, ',')
			}
			kb, _ := json.Marshal(k)
			dst = append(dst, kb...)
			dst = append(dst, ':')
			item, _ := v.Fields.Get(k)
			dst = appendJSON(dst, item)
		}
		return append(dst, '}')
	}
}

// decodeJSONValue parses JSON text into a Value, keeping object key
// order. The engine uses it for bracketed and braced literals inside
// queries; document decoding lives in the codec package.
func decodeJSONValue(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeJSONToken(dec)
	if err != nil {
		return Null(), errSyntax("invalid literal %q: %v", s, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), errSyntax("trailing data after literal %q", s)
	}
	return v, nil
}

func decodeJSONToken(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), err
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeJSONToken(dec)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return arrayOf(items), nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("object key is not a string")
				}
				val, err := decodeJSONToken(dec)
				if err != nil {
					return Null(), err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return ObjectValue(obj), nil
		}
	}
	return Null(), fmt.Errorf("unexpected token %v", tok)
}

// FromAny converts a decoded interface tree into a Value. Plain Go
// maps carry no order, so their keys are sorted for determinism.
func FromAny(data any) (Value, error) {
	switch t := data.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), errType("invalid number %q", t.String())
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Null(), err
			}
			items = append(items, v)
		}
		return arrayOf(items), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Null(), err
			}
			obj.Set(k, v)
		}
		return ObjectValue(obj), nil
	default:
		return Null(), errType("unsupported value of type %T", data)
	}
}

// ToAny converts a Value into plain Go types for marshalers that do
// not understand Value. Whole numbers become int64 so integer fields
// survive a round trip through formats that distinguish them.
func ToAny(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Boolean
	case KindNumber:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1e15 {
			return int64(v.Num)
		}
		return v.Num
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Items))
		for i := range v.Items {
			out[i] = ToAny(v.Items[i])
		}
		return out
	default:
		out := make(map[string]any, v.Fields.Len())
		for _, k := range v.Fields.Keys() {
			item, _ := v.Fields.Get(k)
			out[k] = ToAny(item)
		}
		return out
	}
}
