package constant

import (
	"strconv"
)

// Value is an arbitrary, potentially unresolved (unknown) constant.
type Value interface {
	isValid() bool
}

type (
	// UnknownValue is a value that can't be reliably computed.
	//
	// Arrays, objects and results of unsupported operations
	// are all unknown values.
	//
	// Can also signify type error that may occur during the operation.
	UnknownValue struct{}

	// IntValue is such an x value that is_integer($x) returns true.
	IntValue int64

	// FloatValue is such an x value that is_float($x) returns true.
	FloatValue float64

	// StringValue is such an x value that is_string($x) returns true.
	StringValue string

	// BoolValue is such an x value that is_bool($x) returns true.
	BoolValue bool

	// NullValue is the null constant.
	NullValue struct{}
)

// IsKnown reports whether x is a resolved value.
func IsKnown(x Value) bool { return x != nil && x.isValid() }

// ToBool converts x constant to boolean constants following PHP conversion rules.
// Second bool result tells whether that conversion was successful.
func ToBool(x Value) (BoolValue, bool) {
	switch x := x.(type) {
	case BoolValue:
		return x, true
	case IntValue:
		return BoolValue(x != 0), true
	case FloatValue:
		return BoolValue(x != 0), true
	case StringValue:
		return BoolValue(x != "" && x != "0"), true
	case NullValue:
		return false, true
	}
	return false, false
}

// ToInt converts x constant to int constants following PHP conversion rules.
// Second bool result tells whether that conversion was successful.
func ToInt(x Value) (IntValue, bool) {
	switch x := x.(type) {
	case BoolValue:
		if x {
			return 1, true
		}
		return 0, true
	case IntValue:
		return x, true
	case FloatValue:
		return IntValue(x), true
	case NullValue:
		return 0, true
	}
	return 0, false
}

// ToFloat converts x constant to float constants following PHP conversion rules.
// Second bool result tells whether that conversion was successful.
func ToFloat(x Value) (FloatValue, bool) {
	switch x := x.(type) {
	case FloatValue:
		return x, true
	case IntValue:
		return FloatValue(x), true
	case BoolValue, NullValue:
		v, _ := ToInt(x)
		return FloatValue(v), true
	}
	return 0, false
}

// ToString converts x constant to string constants following PHP conversion rules.
// Second bool result tells whether that conversion was successful.
func ToString(x Value) (StringValue, bool) {
	switch x := x.(type) {
	case StringValue:
		return x, true
	case IntValue:
		return StringValue(strconv.FormatInt(int64(x), 10)), true
	case FloatValue:
		return StringValue(strconv.FormatFloat(float64(x), 'G', 14, 64)), true
	case BoolValue:
		if x {
			return "1", true
		}
		return "", true
	case NullValue:
		return "", true
	}
	return "", false
}

// Describe returns a PHP-like rendering of x.
func Describe(x Value) string {
	switch x := x.(type) {
	case StringValue:
		return strconv.Quote(string(x))
	case BoolValue:
		return strconv.FormatBool(bool(x))
	case NullValue:
		return "null"
	case IntValue, FloatValue:
		s, _ := ToString(x)
		return string(s)
	}
	return "<unknown>"
}

func (c UnknownValue) isValid() bool { return false }
func (c IntValue) isValid() bool     { return true }
func (c FloatValue) isValid() bool   { return true }
func (c StringValue) isValid() bool  { return true }
func (c BoolValue) isValid() bool    { return true }
func (c NullValue) isValid() bool    { return true }
