package ir

// Op is a node kind.
type Op uint8

const (
	OpNone Op = iota

	// Trivial literals.
	OpIntConst
	OpUintConst
	OpLongConst
	OpUlongConst
	OpFloatConst
	OpString
	OpFalse
	OpTrue
	OpNull

	// Type conversions. All of them have exactly one child.
	OpConvInt
	OpConvIntL
	OpConvFloat
	OpConvString
	OpConvStringL
	OpConvArray
	OpConvArrayL
	OpConvObject
	OpConvBool
	OpConvVar
	OpConvUint
	OpConvLong
	OpConvUlong
	OpConvRegexp

	// Unary operators.
	OpMinus
	OpPlus
	OpNot
	OpLogNot

	// Binary operators.
	OpAdd
	OpMul
	OpSub
	OpDiv
	OpMod
	OpPow
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr

	OpArray
	OpDoubleArrow
	OpVar
	OpInstanceProp
	OpFuncName
	OpDefineVal

	// String building.
	OpConcat
	OpStringBuild

	// Kinds that are never constant.
	OpFuncCall
	OpSet
	OpLogAnd
	OpLogOr
	OpEq2
	OpEq3
	OpNotEq2
	OpNotEq3
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq

	// OpOpaque stands for an expression the front end does not model.
	// Its payload names the source construct.
	OpOpaque

	opCount
)

var opNames = [opCount]string{
	OpNone: "op_none",

	OpIntConst:   "op_int_const",
	OpUintConst:  "op_uint_const",
	OpLongConst:  "op_long_const",
	OpUlongConst: "op_ulong_const",
	OpFloatConst: "op_float_const",
	OpString:     "op_string",
	OpFalse:      "op_false",
	OpTrue:       "op_true",
	OpNull:       "op_null",

	OpConvInt:     "op_conv_int",
	OpConvIntL:    "op_conv_int_l",
	OpConvFloat:   "op_conv_float",
	OpConvString:  "op_conv_string",
	OpConvStringL: "op_conv_string_l",
	OpConvArray:   "op_conv_array",
	OpConvArrayL:  "op_conv_array_l",
	OpConvObject:  "op_conv_object",
	OpConvBool:    "op_conv_bool",
	OpConvVar:     "op_conv_var",
	OpConvUint:    "op_conv_uint",
	OpConvLong:    "op_conv_long",
	OpConvUlong:   "op_conv_ulong",
	OpConvRegexp:  "op_conv_regexp",

	OpMinus:  "op_minus",
	OpPlus:   "op_plus",
	OpNot:    "op_not",
	OpLogNot: "op_log_not",

	OpAdd: "op_add",
	OpMul: "op_mul",
	OpSub: "op_sub",
	OpDiv: "op_div",
	OpMod: "op_mod",
	OpPow: "op_pow",
	OpAnd: "op_and",
	OpOr:  "op_or",
	OpXor: "op_xor",
	OpShl: "op_shl",
	OpShr: "op_shr",

	OpArray:        "op_array",
	OpDoubleArrow:  "op_double_arrow",
	OpVar:          "op_var",
	OpInstanceProp: "op_instance_prop",
	OpFuncName:     "op_func_name",
	OpDefineVal:    "op_define_val",

	OpConcat:      "op_concat",
	OpStringBuild: "op_string_build",

	OpFuncCall:  "op_func_call",
	OpSet:       "op_set",
	OpLogAnd:    "op_log_and",
	OpLogOr:     "op_log_or",
	OpEq2:       "op_eq2",
	OpEq3:       "op_eq3",
	OpNotEq2:    "op_neq2",
	OpNotEq3:    "op_neq3",
	OpLess:      "op_less",
	OpGreater:   "op_greater",
	OpLessEq:    "op_leq",
	OpGreaterEq: "op_geq",
	OpOpaque:    "op_opaque",
}

// String returns the op tag used in diagnostics and hashing.
func (op Op) String() string {
	if op >= opCount {
		return "op_unknown"
	}
	return opNames[op]
}

// HasString reports whether nodes of this kind carry a string payload.
func (op Op) HasString() bool {
	switch op {
	case OpIntConst, OpUintConst, OpLongConst, OpUlongConst, OpFloatConst, OpString:
		return true
	case OpVar, OpInstanceProp, OpFuncName, OpDefineVal, OpFuncCall, OpOpaque:
		return true
	}
	return false
}

// IsTrivial reports whether op is a childless literal.
func (op Op) IsTrivial() bool { return op >= OpIntConst && op <= OpNull }

// IsConv reports whether op is a type conversion wrapper.
func (op Op) IsConv() bool { return op >= OpConvInt && op <= OpConvRegexp }

// IsUnary reports whether op is a unary arithmetic or logical operator.
func (op Op) IsUnary() bool { return op >= OpMinus && op <= OpLogNot }

// IsBinary reports whether op is a binary arithmetic or bitwise operator.
func (op Op) IsBinary() bool { return op >= OpAdd && op <= OpShr }
