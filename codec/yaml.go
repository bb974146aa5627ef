package codec

import (
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/dhawalhost/treeq"
)

// YAML round-trips YAML documents. Decoding uses ordered maps so
// mapping key order survives edits.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Decode(data []byte) (treeq.Value, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return treeq.Null(), fmt.Errorf("invalid yaml: %w", err)
	}
	return fromYAML(doc)
}

func (YAML) Encode(v treeq.Value, style Style) ([]byte, error) {
	if style == StyleRaw {
		if s, ok := rawScalar(v); ok {
			return []byte(s), nil
		}
	}
	return yaml.Marshal(toYAML(v))
}

func fromYAML(doc any) (treeq.Value, error) {
	switch t := doc.(type) {
	case yaml.MapSlice:
		obj := treeq.NewObject()
		for _, item := range t {
			key := fmt.Sprintf("%v", item.Key)
			val, err := fromYAML(item.Value)
			if err != nil {
				return treeq.Null(), err
			}
			obj.Set(key, val)
		}
		return treeq.ObjectValue(obj), nil
	case []any:
		items := make([]treeq.Value, 0, len(t))
		for _, item := range t {
			val, err := fromYAML(item)
			if err != nil {
				return treeq.Null(), err
			}
			items = append(items, val)
		}
		return treeq.Array(items...), nil
	case time.Time:
		return treeq.String(t.Format(time.RFC3339)), nil
	default:
		return treeq.FromAny(doc)
	}
}

// toYAML rebuilds the goccy input shape; MapSlice keeps object key
// order through Marshal.
func toYAML(v treeq.Value) any {
	switch v.Kind {
	case treeq.KindArray:
		out := make([]any, len(v.Items))
		for i := range v.Items {
			out[i] = toYAML(v.Items[i])
		}
		return out
	case treeq.KindObject:
		out := make(yaml.MapSlice, 0, v.Fields.Len())
		for _, k := range v.Fields.Keys() {
			item, _ := v.Fields.Get(k)
			out = append(out, yaml.MapItem{Key: k, Value: toYAML(item)})
		}
		return out
	default:
		return treeq.ToAny(v)
	}
}
