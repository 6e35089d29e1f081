package constant

import (
	"math"
)

// BinaryOps is a mapping of operators to the functions that implement them.
var BinaryOps = map[string]func(Value, Value) Value{
	"||": Or,
	"&&": And,

	"+":  Add,
	"-":  Sub,
	"*":  Mul,
	"/":  Div,
	"%":  Mod,
	"**": Pow,
	".":  Concat,

	"&":  BitwiseAnd,
	"|":  BitwiseOr,
	"^":  BitwiseXor,
	"<<": ShiftLeft,
	">>": ShiftRight,

	"===": Identical,
	"==":  Equal,
	">":   GreaterThan,
	"<":   LessThan,
}

// Or performs logical "||".
func Or(x, y Value) Value {
	v1, ok1 := ToBool(x)
	v2, ok2 := ToBool(y)
	switch {
	case ok1 && bool(v1):
		return BoolValue(true)
	case ok2 && bool(v2):
		return BoolValue(true)
	case ok1 && ok2:
		return v1 || v2
	default:
		return UnknownValue{}
	}
}

// And performs logical "&&".
func And(x, y Value) Value {
	v1, ok1 := ToBool(x)
	v2, ok2 := ToBool(y)
	switch {
	case ok1 && bool(!v1):
		return BoolValue(false)
	case ok2 && bool(!v2):
		return BoolValue(false)
	case ok1 && ok2:
		return v1 && v2
	default:
		return UnknownValue{}
	}
}

// numericPair brings x and y to a common numeric type.
// Ints stay ints unless any of the operands is a float.
func numericPair(x, y Value) (xi, yi IntValue, xf, yf FloatValue, kind int) {
	_, xFloat := x.(FloatValue)
	_, yFloat := y.(FloatValue)
	if xFloat || yFloat {
		var ok1, ok2 bool
		xf, ok1 = ToFloat(x)
		yf, ok2 = ToFloat(y)
		if ok1 && ok2 {
			return 0, 0, xf, yf, 2
		}
		return 0, 0, 0, 0, 0
	}
	var ok1, ok2 bool
	xi, ok1 = ToInt(x)
	yi, ok2 = ToInt(y)
	if ok1 && ok2 {
		return xi, yi, 0, 0, 1
	}
	return 0, 0, 0, 0, 0
}

// Sub performs arithmetic "-".
func Sub(x, y Value) Value {
	xi, yi, xf, yf, kind := numericPair(x, y)
	switch kind {
	case 1:
		return xi - yi
	case 2:
		return xf - yf
	}
	return UnknownValue{}
}

// Add performs arithmetic "+".
func Add(x, y Value) Value {
	xi, yi, xf, yf, kind := numericPair(x, y)
	switch kind {
	case 1:
		return xi + yi
	case 2:
		return xf + yf
	}
	return UnknownValue{}
}

// Mul performs arithmetic "*".
func Mul(x, y Value) Value {
	xi, yi, xf, yf, kind := numericPair(x, y)
	switch kind {
	case 1:
		return xi * yi
	case 2:
		return xf * yf
	}
	return UnknownValue{}
}

// Div performs arithmetic "/".
// Division by zero is left unresolved.
func Div(x, y Value) Value {
	xi, yi, xf, yf, kind := numericPair(x, y)
	switch kind {
	case 1:
		if yi == 0 {
			return UnknownValue{}
		}
		if xi%yi == 0 {
			return xi / yi
		}
		return FloatValue(xi) / FloatValue(yi)
	case 2:
		if yf == 0 {
			return UnknownValue{}
		}
		return xf / yf
	}
	return UnknownValue{}
}

// Mod performs arithmetic "%".
func Mod(x, y Value) Value {
	v1, ok1 := ToInt(x)
	v2, ok2 := ToInt(y)
	if !ok1 || !ok2 || v2 == 0 {
		return UnknownValue{}
	}
	return v1 % v2
}

// Pow performs arithmetic "**".
func Pow(x, y Value) Value {
	xi, yi, xf, yf, kind := numericPair(x, y)
	switch kind {
	case 1:
		if yi < 0 {
			return FloatValue(math.Pow(float64(xi), float64(yi)))
		}
		switch xi {
		case 0, 1:
			if yi == 0 {
				return IntValue(1)
			}
			return xi
		case -1:
			if yi%2 == 0 {
				return IntValue(1)
			}
			return xi
		}
		res := IntValue(1)
		for i := IntValue(0); i < yi; i++ {
			next := res * xi
			if xi != 0 && next/xi != res {
				// Overflow turns the result into a float, like PHP does.
				return FloatValue(math.Pow(float64(xi), float64(yi)))
			}
			res = next
		}
		return res
	case 2:
		return FloatValue(math.Pow(float64(xf), float64(yf)))
	}
	return UnknownValue{}
}

// Concat performs string ".".
func Concat(x, y Value) Value {
	s1, ok1 := ToString(x)
	s2, ok2 := ToString(y)
	if !ok1 || !ok2 {
		return UnknownValue{}
	}
	return s1 + s2
}

func intPair(x, y Value) (IntValue, IntValue, bool) {
	v1, ok1 := ToInt(x)
	v2, ok2 := ToInt(y)
	return v1, v2, ok1 && ok2
}

// BitwiseAnd performs "&".
func BitwiseAnd(x, y Value) Value {
	if v1, v2, ok := intPair(x, y); ok {
		return v1 & v2
	}
	return UnknownValue{}
}

// BitwiseOr performs "|".
func BitwiseOr(x, y Value) Value {
	if v1, v2, ok := intPair(x, y); ok {
		return v1 | v2
	}
	return UnknownValue{}
}

// BitwiseXor performs "^".
func BitwiseXor(x, y Value) Value {
	if v1, v2, ok := intPair(x, y); ok {
		return v1 ^ v2
	}
	return UnknownValue{}
}

// ShiftLeft performs "<<".
func ShiftLeft(x, y Value) Value {
	v1, v2, ok := intPair(x, y)
	if !ok || v2 < 0 {
		return UnknownValue{}
	}
	if v2 >= 64 {
		return IntValue(0)
	}
	return v1 << uint(v2)
}

// ShiftRight performs ">>".
func ShiftRight(x, y Value) Value {
	v1, v2, ok := intPair(x, y)
	if !ok || v2 < 0 {
		return UnknownValue{}
	}
	if v2 >= 64 {
		if v1 < 0 {
			return IntValue(-1)
		}
		return IntValue(0)
	}
	return v1 >> uint(v2)
}

// Identical performs "===" comparison.
func Identical(x, y Value) Value {
	switch x := x.(type) {
	case IntValue:
		y, ok := y.(IntValue)
		if ok {
			return BoolValue(x == y)
		}
	case FloatValue:
		y, ok := y.(FloatValue)
		if ok {
			return BoolValue(x == y)
		}
	case StringValue:
		y, ok := y.(StringValue)
		if ok {
			return BoolValue(x == y)
		}
	}
	return UnknownValue{}
}

// Equal performs "==" comparison.
func Equal(x, y Value) Value {
	// TODO(quasilyte): support non-strict forms of comparison?
	return Identical(x, y)
}

// GreaterThan performs ">" comparison.
func GreaterThan(x, y Value) Value {
	switch x := x.(type) {
	case IntValue:
		y, ok := y.(IntValue)
		if ok {
			return BoolValue(x > y)
		}
	case FloatValue:
		y, ok := y.(FloatValue)
		if ok {
			return BoolValue(x > y)
		}
	case StringValue:
		y, ok := y.(StringValue)
		if ok {
			return BoolValue(x > y)
		}
	}
	return UnknownValue{}
}

// LessThan performs "<" comparison.
func LessThan(x, y Value) Value {
	return GreaterThan(y, x)
}
