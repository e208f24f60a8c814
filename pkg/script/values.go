package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/benjaminschreck/go-blockie/pkg/blockie"
)

// ToStarlark converts a fill value to a Starlark value. Fill handlers have no
// Starlark form and become None.
func ToStarlark(val blockie.Value) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case blockie.String:
		return starlark.String(string(v))
	case blockie.Int:
		return starlark.MakeInt(int(v))
	case blockie.Float:
		return starlark.Float(float64(v))
	case blockie.Bool:
		return starlark.Bool(bool(v))
	case blockie.List:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ToStarlark(item)
		}
		return starlark.NewList(items)
	case blockie.Map:
		dict := starlark.NewDict(len(v))
		for _, key := range v.Keys() {
			if _, ok := v[key].(blockie.FillHandler); ok {
				continue
			}
			// SetKey only fails on frozen dicts.
			_ = dict.SetKey(starlark.String(key), ToStarlark(v[key]))
		}
		return dict
	default:
		return starlark.None
	}
}

// FromStarlark converts a Starlark value to a fill value.
func FromStarlark(val starlark.Value) (blockie.Value, error) {
	if val == nil || val == starlark.None {
		return blockie.None, nil
	}

	switch v := val.(type) {
	case starlark.String:
		return blockie.String(string(v)), nil
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return blockie.Int(int(i)), nil
		}
		return nil, fmt.Errorf("integer %s out of range", v.String())
	case starlark.Float:
		return blockie.Float(float64(v)), nil
	case starlark.Bool:
		return blockie.Bool(bool(v)), nil
	case starlark.Indexable:
		items := make(blockie.List, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := FromStarlark(v.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	case *starlark.Dict:
		return dictToMap(v)
	default:
		return nil, fmt.Errorf("unsupported starlark value of type %s", val.Type())
	}
}

func dictToMap(d *starlark.Dict) (blockie.Map, error) {
	out := make(blockie.Map, d.Len())
	for _, item := range d.Items() {
		key, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("dict key %s is not a string", item[0].String())
		}
		v, err := FromStarlark(item[1])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}
