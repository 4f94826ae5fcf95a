package ir

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// Value is a sealed interface for constant payloads and discriminator values.
// Only Null, String, Int and Bool implement it. There is no float variant;
// constants that need exact numerics are carried as strings.
type Value interface {
	irValue()
	String() string
}

// Null is the null constant.
type Null struct{}

func (Null) irValue() {}

func (Null) String() string { return "null" }

// String is a string constant.
type String string

func (String) irValue() {}

func (s String) String() string { return strconv.Quote(string(s)) }

// Int is an integer constant.
type Int int64

func (Int) irValue() {}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Bool is a boolean constant.
type Bool bool

func (Bool) irValue() {}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// ValueOf converts a Go value produced by a spec decoder into a Value.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case float32, float64:
		return nil, errors.Newf("floats are not valid constants: %v", val)
	default:
		return nil, errors.Newf("unsupported constant type: %T", v)
	}
}

// ValuesEqual reports whether two constants are the same value. Values of
// different variants are never equal; nil equals only nil.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
