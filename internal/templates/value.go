package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// Value is a render value: either a string or a number.
type Value struct {
	kind valueKind
	str  string
	i    int64
	f    float64
}

// Values maps placeholder keys to render values.
type Values map[string]Value

// String returns a string value.
func String(s string) Value { return Value{kind: kindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: kindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: kindFloat, f: f} }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind != kindString }

// String returns the decimal or literal text of v, unescaped.
func (v Value) String() string {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return strconv.FormatFloat(v.f, 'g', -1, 64)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.str
	}
}

// MarshalJSON encodes numbers as JSON numbers and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case kindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return nil, fmt.Errorf("unsupported float value %v", v.f)
		}
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON accepts a JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}
	parsed, ok := ParseNumber(string(data))
	if !ok {
		return fmt.Errorf("template value must be a string or number, got %s", data)
	}
	*v = parsed
	return nil
}

// ParseNumber parses s as an integer, falling back to a float.
func ParseNumber(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f), true
	}
	return Value{}, false
}

// FromAny converts decoded JSON-like values into a Value.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return String(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case json.Number:
		if parsed, ok := ParseNumber(v.String()); ok {
			return parsed, nil
		}
		return Value{}, fmt.Errorf("invalid number %q", v.String())
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// StringValues wraps a plain string map.
func StringValues(in map[string]string) Values {
	out := make(Values, len(in))
	for key, value := range in {
		out[key] = String(value)
	}
	return out
}
