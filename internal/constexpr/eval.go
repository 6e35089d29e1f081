package constexpr

import (
	"strconv"
	"strings"

	"github.com/ra2003/kphp/internal/constant"
	"github.com/ra2003/kphp/internal/ir"
)

var unaryTokens = map[ir.Op]string{
	ir.OpMinus:  "-",
	ir.OpPlus:   "+",
	ir.OpNot:    "~",
	ir.OpLogNot: "!",
}

var binaryTokens = map[ir.Op]string{
	ir.OpAdd: "+",
	ir.OpSub: "-",
	ir.OpMul: "*",
	ir.OpDiv: "/",
	ir.OpMod: "%",
	ir.OpPow: "**",
	ir.OpAnd: "&",
	ir.OpOr:  "|",
	ir.OpXor: "^",
	ir.OpShl: "<<",
	ir.OpShr: ">>",
}

var conditionOps = map[ir.Op]func(x, y constant.Value) constant.Value{
	ir.OpEq2:       constant.Equal,
	ir.OpEq3:       constant.Identical,
	ir.OpNotEq2:    negate(constant.Equal),
	ir.OpNotEq3:    negate(constant.Identical),
	ir.OpLess:      constant.LessThan,
	ir.OpGreater:   constant.GreaterThan,
	ir.OpLessEq:    negate(constant.GreaterThan),
	ir.OpGreaterEq: negate(constant.LessThan),
	ir.OpLogAnd:    constant.And,
	ir.OpLogOr:     constant.Or,
}

func negate(op func(x, y constant.Value) constant.Value) func(x, y constant.Value) constant.Value {
	return func(x, y constant.Value) constant.Value {
		return constant.Not(op(x, y))
	}
}

// Evaluate computes the PHP value of a constant expression.
//
// Unlike Folder, it does apply arithmetic and type conversions.
// Comparisons and logical operators are computed too, so a condition
// made of constants evaluates to a bool.
// Arrays and anything it can't compute yield constant.UnknownValue.
func Evaluate(t *ir.Tree, defines *ir.Defines, id ir.NodeID) constant.Value {
	e := &evaluator{tree: t, defines: defines}
	return e.visit(id)
}

type evaluator struct {
	unhandled[constant.Value]

	tree    *ir.Tree
	defines *ir.Defines

	// visiting and vars hold the defines and variables being
	// evaluated; one that refers back to itself is unknown.
	visiting map[*ir.Define]bool
	vars     map[*ir.Var]bool
}

func (e *evaluator) visit(id ir.NodeID) constant.Value {
	return visit[constant.Value](e, e.tree, id)
}

func (e *evaluator) onTrivial(id ir.NodeID) (constant.Value, bool) {
	n := e.tree.Node(id)
	switch n.Op {
	case ir.OpTrue:
		return constant.BoolValue(true), true
	case ir.OpFalse:
		return constant.BoolValue(false), true
	case ir.OpNull:
		return constant.NullValue{}, true
	case ir.OpString:
		return constant.StringValue(n.Str), true
	case ir.OpFloatConst:
		v, err := strconv.ParseFloat(n.Str, 64)
		if err == nil {
			return constant.FloatValue(v), true
		}
	default:
		v, err := strconv.ParseInt(n.Str, 0, 64)
		if err == nil {
			return constant.IntValue(v), true
		}
		// Integer literals that overflow are floats in PHP.
		if f, err := strconv.ParseFloat(n.Str, 64); err == nil {
			return constant.FloatValue(f), true
		}
	}
	return constant.UnknownValue{}, true
}

func (e *evaluator) onConv(id ir.NodeID) (constant.Value, bool) {
	x := e.visit(e.tree.Arg(id, 0))
	var (
		v  constant.Value
		ok bool
	)
	switch e.tree.Op(id) {
	case ir.OpConvInt, ir.OpConvIntL, ir.OpConvLong, ir.OpConvUint, ir.OpConvUlong:
		if s, isStr := x.(constant.StringValue); isStr {
			return parseNumericPrefix(string(s)), true
		}
		v, ok = constant.ToInt(x)
	case ir.OpConvFloat:
		v, ok = constant.ToFloat(x)
	case ir.OpConvString, ir.OpConvStringL:
		v, ok = constant.ToString(x)
	case ir.OpConvBool:
		v, ok = constant.ToBool(x)
	case ir.OpConvVar:
		return x, true
	}
	if !ok {
		return constant.UnknownValue{}, true
	}
	return v, true
}

func (e *evaluator) onUnary(id ir.NodeID) (constant.Value, bool) {
	op := constant.UnaryOps[unaryTokens[e.tree.Op(id)]]
	if op == nil {
		return constant.UnknownValue{}, true
	}
	return op(e.visit(e.tree.Arg(id, 0))), true
}

func (e *evaluator) onBinary(id ir.NodeID) (constant.Value, bool) {
	op := constant.BinaryOps[binaryTokens[e.tree.Op(id)]]
	if op == nil {
		return constant.UnknownValue{}, true
	}
	return op(e.visit(e.tree.Arg(id, 0)), e.visit(e.tree.Arg(id, 1))), true
}

func (e *evaluator) onFuncName(id ir.NodeID) (constant.Value, bool) {
	return e.define(e.tree.Node(id).Str), true
}

func (e *evaluator) onDefineVal(id ir.NodeID) (constant.Value, bool) {
	return e.define(e.tree.Node(id).Str), true
}

func (e *evaluator) define(name string) constant.Value {
	d := e.defines.Get(name)
	if d == nil || e.visiting[d] {
		return constant.UnknownValue{}
	}
	if e.visiting == nil {
		e.visiting = map[*ir.Define]bool{}
	}
	e.visiting[d] = true
	defer delete(e.visiting, d)
	return e.visit(d.Value)
}

func (e *evaluator) onVar(id ir.NodeID) (constant.Value, bool) {
	n := e.tree.Node(id)
	v := n.Var
	if v == nil || !v.Init.IsValid() || (n.Extra != ir.ExtraVarConst && !v.Constant) || e.vars[v] {
		return constant.UnknownValue{}, true
	}
	if e.vars == nil {
		e.vars = map[*ir.Var]bool{}
	}
	e.vars[v] = true
	defer delete(e.vars, v)
	return e.visit(v.Init), true
}

func (e *evaluator) onNonConst(id ir.NodeID) constant.Value {
	n := e.tree.Node(id)
	switch n.Op {
	case ir.OpConcat, ir.OpStringBuild:
		var res constant.Value = constant.StringValue("")
		for i := 0; i < len(n.Args); i++ {
			res = constant.Concat(res, e.visit(n.Args[i]))
		}
		return res
	}
	if op := conditionOps[n.Op]; op != nil && len(n.Args) == 2 {
		return op(e.visit(n.Args[0]), e.visit(n.Args[1]))
	}
	return constant.UnknownValue{}
}

// parseNumericPrefix implements the (int) cast of a string:
// leading whitespace is skipped and the longest integer prefix is used.
func parseNumericPrefix(s string) constant.Value {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return constant.IntValue(0)
	}
	return constant.IntValue(v)
}
