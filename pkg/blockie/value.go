package blockie

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Reserved mapping keys.
const (
	// VariantKey selects the variant of the clone built from a mapping.
	VariantKey = "vari_idx"
	// HandlerKey holds a FillHandler run for each clone built from a mapping.
	HandlerKey = "fill_hndl"
	// StructTag names the struct tag read by the attribute-object adapter.
	StructTag = "blockie"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindHandler
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindHandler:
		return "handler"
	default:
		return "unknown"
	}
}

// Value is fill data. The set of implementations is closed: NoneValue, Bool,
// Int, Float, String, List, Map and FillHandler.
type Value interface {
	Kind() Kind
}

// NoneValue represents absent data; a block filled with it is removed.
type NoneValue struct{}

// None is the absent value.
var None Value = NoneValue{}

func (NoneValue) Kind() Kind { return KindNone }

// Bool keeps a block as-is when true and removes it when false. A variable
// bound to true passes its tag text through unchanged.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Int selects a variant when filled into a block.
type Int int

func (Int) Kind() Kind { return KindInt }

// Float is a number bound to a variable.
type Float float64

func (Float) Kind() Kind { return KindFloat }

// String is text bound to a variable.
type String string

func (String) Kind() Kind { return KindString }

// List repeats a block once per element, or broadcasts a variable.
type List []Value

func (List) Kind() Kind { return KindList }

// Map binds variables and child blocks by name.
type Map map[string]Value

func (Map) Kind() Kind { return KindMap }

// FillHandler is called once per clone before its variables are bound. It
// receives the clone, a private copy of the mapping it may change, and the
// ordinal of the clone within its repetition.
type FillHandler func(clone *Clone, data Map, index int) error

func (FillHandler) Kind() Kind { return KindHandler }

func kindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}

// Lookup returns the value for a case-insensitive key.
func (m Map) Lookup(name string) (Value, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	lower := asciiLower(name)
	if v, ok := m[lower]; ok {
		return v, true
	}
	for k, v := range m {
		if asciiLower(k) == lower {
			return v, true
		}
	}
	return nil, false
}

// Delete removes a case-insensitive key.
func (m Map) Delete(name string) {
	lower := asciiLower(name)
	for k := range m {
		if asciiLower(k) == lower {
			delete(m, k)
		}
	}
}

// Keys returns the keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m Map) clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// text converts a scalar to the string substituted for a variable.
func text(v Value) (string, bool) {
	switch x := v.(type) {
	case String:
		return string(x), true
	case Int:
		return strconv.Itoa(int(x)), true
	case Float:
		return strconv.FormatFloat(float64(x), 'f', -1, 64), true
	default:
		return "", false
	}
}

// variantIndex converts a selector value to an index.
func variantIndex(v Value) (int, bool) {
	switch x := v.(type) {
	case Int:
		return int(x), true
	case Float:
		if f := float64(x); f == math.Trunc(f) {
			return int(f), true
		}
	case String:
		if i, err := strconv.Atoi(string(x)); err == nil {
			return i, true
		}
	}
	return 0, false
}

var handlerType = reflect.TypeFor[func(*Clone, Map, int) error]()

// FromGo converts native Go data into a Value. It accepts nil, Values, booleans,
// numbers, strings, maps with string keys, slices and arrays, fill handler
// functions, and structs (attribute objects, decoded with mapstructure using the
// "blockie" tag). Map keys and attribute names are lower-cased.
func FromGo(data any) (Value, error) {
	return fromGo(data, "data")
}

// MustFromGo is like FromGo but panics on error.
func MustFromGo(data any) Value {
	v, err := FromGo(data)
	if err != nil {
		panic(fmt.Sprintf("blockie: %v", err))
	}
	return v
}

func fromGo(data any, path string) (Value, error) {
	switch x := data.(type) {
	case nil:
		return None, nil
	case Map:
		return fromMap(reflect.ValueOf(x), path)
	case List:
		return fromList(reflect.ValueOf(x), path)
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(x), nil
	case float64:
		return Float(x), nil
	case []byte:
		return String(x), nil
	case func(*Clone, Map, int) error:
		return FillHandler(x), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return String(b), nil
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return None, nil
		}
		return fromGo(rv.Elem().Interface(), path)
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Map:
		return fromMap(rv, path)
	case reflect.Slice, reflect.Array:
		return fromList(rv, path)
	case reflect.Struct:
		return fromStruct(data, path)
	case reflect.Func:
		if rv.Type().ConvertibleTo(handlerType) {
			return FillHandler(rv.Convert(handlerType).Interface().(func(*Clone, Map, int) error)), nil
		}
	}
	if s, ok := data.(fmt.Stringer); ok {
		return String(s.String()), nil
	}
	return nil, fmt.Errorf("%s: unsupported fill data type %T", path, data)
}

func fromMap(rv reflect.Value, path string) (Value, error) {
	if rv.IsNil() {
		return None, nil
	}
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%s: map keys must be strings, got %s", path, rv.Type().Key())
	}
	out := make(Map, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		v, err := fromGo(iter.Value().Interface(), path+"."+key)
		if err != nil {
			return nil, err
		}
		out[asciiLower(key)] = v
	}
	return out, nil
}

func fromList(rv reflect.Value, path string) (Value, error) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return None, nil
	}
	out := make(List, rv.Len())
	for i := range rv.Len() {
		v, err := fromGo(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// fromStruct adapts an attribute object to a mapping keyed by attribute name.
func fromStruct(data any, path string) (Value, error) {
	var attrs map[string]any
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &attrs,
		TagName: StructTag,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%s: decode %T: %w", path, data, err)
	}
	return fromMap(reflect.ValueOf(attrs), path)
}

// ToGo converts a Value back into plain Go data.
func ToGo(v Value) any {
	switch x := v.(type) {
	case nil, NoneValue:
		return nil
	case Bool:
		return bool(x)
	case Int:
		return int(x)
	case Float:
		return float64(x)
	case String:
		return string(x)
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToGo(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = ToGo(item)
		}
		return out
	case FillHandler:
		return x
	default:
		return nil
	}
}
