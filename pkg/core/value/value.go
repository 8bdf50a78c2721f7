// Package value implements the runtime data representation for tundra:
// a tagged union over booleans, numbers, strings and nil.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Type represents the tag in the Value tagged union.
type Type uint8

const (
	TypeNil Type = iota
	TypeBool
	TypeNumber
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Value is a tagged union. Numbers are stored as float64 bits and booleans
// as 0/1 in Data; strings live in Str and are independently owned on copy.
// The zero value is nil.
type Value struct {
	Type Type   `cbor:"t"`
	Data uint64 `cbor:"d,omitempty"`
	Str  string `cbor:"s,omitempty"`
}

// Nil returns the nil value.
func Nil() Value {
	return Value{Type: TypeNil}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	var data uint64
	if b {
		data = 1
	}
	return Value{Type: TypeBool, Data: data}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Type: TypeNumber, Data: math.Float64bits(f)}
}

// String returns a string value.
func String(s string) Value {
	return Value{Type: TypeString, Str: s}
}

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.Type == TypeNil }

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool { return v.Type == TypeBool }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { return v.Type == TypeNumber }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.Type == TypeString }

// AsBool returns the boolean payload. Calling it on a non-boolean value is
// an internal invariant violation and panics.
func (v Value) AsBool() bool {
	v.mustBe(TypeBool)
	return v.Data != 0
}

// AsNumber returns the numeric payload. Calling it on a non-number value
// is an internal invariant violation and panics.
func (v Value) AsNumber() float64 {
	v.mustBe(TypeNumber)
	return math.Float64frombits(v.Data)
}

// AsString returns the string payload. Calling it on a non-string value is
// an internal invariant violation and panics.
func (v Value) AsString() string {
	v.mustBe(TypeString)
	return v.Str
}

func (v Value) mustBe(t Type) {
	if v.Type != t {
		panic(fmt.Sprintf("value: %s accessed as %s", v.Type, t))
	}
}

// Equal reports structural equality. Values of different types are never
// equal, so 1 == "1" is false.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeString:
		return v.Str == other.Str
	case TypeNil:
		return true
	case TypeNumber:
		// IEEE comparison, not bit equality: -0 == 0, NaN != NaN.
		return v.AsNumber() == other.AsNumber()
	}
	return v.Data == other.Data
}

// Format returns the display text of the value: true/false for booleans,
// the shortest decimal form for numbers, the string content verbatim, and
// the literal text "nil" for nil.
func (v Value) Format() string {
	switch v.Type {
	case TypeBool:
		if v.Data != 0 {
			return "true"
		}
		return "false"
	case TypeNumber:
		return formatNumber(math.Float64frombits(v.Data))
	case TypeString:
		return v.Str
	case TypeNil:
		return "nil"
	}
	panic(fmt.Sprintf("value: unknown type %d", uint8(v.Type)))
}

// formatNumber renders a float in plain decimal with the fewest digits
// that round-trip. Exponent notation is never used: 1e21 prints as
// 1000000000000000000000 and 1e-5 as 0.00001.
func formatNumber(f float64) string {
	if math.IsInf(f, 0) {
		if f > 0 {
			return "inf"
		}
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
