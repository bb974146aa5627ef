package codec

import (
	"fmt"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dhawalhost/treeq"
)

// TOML round-trips TOML documents. The library hands back plain Go
// maps, so key order is not preserved across an edit; keys come out
// in the marshaler's deterministic order instead.
type TOML struct{}

func (TOML) Name() string { return "toml" }

func (TOML) Decode(data []byte) (treeq.Value, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return treeq.Null(), fmt.Errorf("invalid toml: %w", err)
	}
	v, err := fromTOML(doc)
	if err != nil {
		return treeq.Null(), err
	}
	return v, nil
}

func (TOML) Encode(v treeq.Value, style Style) ([]byte, error) {
	if style == StyleRaw {
		if s, ok := rawScalar(v); ok {
			return []byte(s), nil
		}
	}
	if v.Kind != treeq.KindObject {
		return nil, fmt.Errorf("toml documents must be tables, got %s", v.Type())
	}
	return toml.Marshal(treeq.ToAny(v))
}

func fromTOML(doc any) (treeq.Value, error) {
	switch t := doc.(type) {
	case time.Time:
		return treeq.String(t.Format(time.RFC3339)), nil
	case toml.LocalDate:
		return treeq.String(t.String()), nil
	case toml.LocalTime:
		return treeq.String(t.String()), nil
	case toml.LocalDateTime:
		return treeq.String(t.String()), nil
	case []any:
		items := make([]treeq.Value, 0, len(t))
		for _, item := range t {
			v, err := fromTOML(item)
			if err != nil {
				return treeq.Null(), err
			}
			items = append(items, v)
		}
		return treeq.Array(items...), nil
	case []map[string]any:
		items := make([]treeq.Value, 0, len(t))
		for _, item := range t {
			v, err := fromTOML(item)
			if err != nil {
				return treeq.Null(), err
			}
			items = append(items, v)
		}
		return treeq.Array(items...), nil
	case map[string]any:
		obj := treeq.NewObject()
		for _, k := range sortedKeys(t) {
			v, err := fromTOML(t[k])
			if err != nil {
				return treeq.Null(), err
			}
			obj.Set(k, v)
		}
		return treeq.ObjectValue(obj), nil
	default:
		return treeq.FromAny(doc)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
