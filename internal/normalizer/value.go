package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed view over a decoded JSON document. Only Null, Bool,
// Number, String, Array and Object implement it.
type Value interface {
	value()
}

type Null struct{}

type Bool bool

type Number float64

type String string

type Array []Value

type Object map[string]Value

func (Null) value()   {}
func (Bool) value()   {}
func (Number) value() {}
func (String) value() {}
func (Array) value()  {}
func (Object) value() {}

// FromAny lifts the output of encoding/json into a Value tree.
// Go types encoding/json never produces map to Null.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return number(t)
	case float32:
		return number(float64(t))
	case int:
		return Number(t)
	case int64:
		return Number(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null{}
		}
		return number(f)
	case []any:
		arr := make(Array, len(t))
		for i, item := range t {
			arr[i] = FromAny(item)
		}
		return arr
	case map[string]any:
		obj := make(Object, len(t))
		for k, item := range t {
			obj[k] = FromAny(item)
		}
		return obj
	default:
		return Null{}
	}
}

// ToAny converts a Value back to plain Go values suitable for encoding/json.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Bool:
		return bool(t)
	case Number:
		return float64(t)
	case String:
		return string(t)
	case Array:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	case Object:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// Field returns obj[key], or Null when v is not an object or has no such key.
func Field(v Value, key string) Value {
	obj, ok := v.(Object)
	if !ok {
		return Null{}
	}
	if item, ok := obj[key]; ok && item != nil {
		return item
	}
	return Null{}
}

// Scalar coerces v to an optional string: numbers in shortest decimal form,
// strings trimmed and kept when non-empty, everything else nil.
func Scalar(v Value) *string {
	switch t := v.(type) {
	case Number:
		s := strconv.FormatFloat(float64(t), 'f', -1, 64)
		return &s
	case String:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return nil
		}
		return &s
	default:
		return nil
	}
}

func number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null{}
	}
	return Number(f)
}
