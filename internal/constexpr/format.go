package constexpr

import (
	"strings"

	"github.com/ra2003/kphp/internal/ir"
)

// Format renders an expression for diagnostics.
// The output is not meant to be parsed back.
func Format(t *ir.Tree, defines *ir.Defines, id ir.NodeID) string {
	f := &formatter{tree: t, defines: defines}
	return f.visit(t.ActualValue(id, defines))
}

type formatter struct {
	unhandled[string]

	tree    *ir.Tree
	defines *ir.Defines
}

func (f *formatter) visit(id ir.NodeID) string {
	return visit[string](f, f.tree, id)
}

func (f *formatter) actual(id ir.NodeID) ir.NodeID {
	return f.tree.ActualValue(id, f.defines)
}

func (f *formatter) onTrivial(id ir.NodeID) (string, bool) {
	n := f.tree.Node(id)
	if n.HasString() {
		return n.Str + ":" + n.Op.String(), true
	}
	return n.Op.String(), true
}

func (f *formatter) onConv(id ir.NodeID) (string, bool) {
	return f.visit(f.tree.Arg(id, 0)), true
}

func (f *formatter) onUnary(id ir.NodeID) (string, bool) {
	return f.visit(f.tree.Arg(id, 0)) + ":" + f.tree.Op(id).String(), true
}

func (f *formatter) onDefineVal(id ir.NodeID) (string, bool) {
	val := f.actual(id)
	if val == id {
		return "", false
	}
	return f.visit(val), true
}

func (f *formatter) onBinary(id ir.NodeID) (string, bool) {
	lhs := f.visit(f.tree.Arg(id, 0))
	rhs := f.visit(f.tree.Arg(id, 1))
	return "(" + lhs + f.tree.Op(id).String() + rhs + ")", true
}

func (f *formatter) onDoubleArrow(id ir.NodeID) (string, bool) {
	key := f.visit(f.actual(f.tree.Arg(id, 0)))
	value := f.visit(f.actual(f.tree.Arg(id, 1)))
	return key + "=>" + value, true
}

func (f *formatter) onArray(id ir.NodeID) (string, bool) {
	elems := f.tree.Node(id).Args
	parts := make([]string, len(elems))
	for i, elem := range elems {
		parts[i] = f.visit(f.actual(elem))
	}
	return strings.Join(parts, ", "), true
}

func (f *formatter) onVar(id ir.NodeID) (string, bool) {
	n := f.tree.Node(id)
	return n.Str + n.Op.String(), true
}

func (f *formatter) onInstanceProp(id ir.NodeID) (string, bool) {
	n := f.tree.Node(id)
	return f.visit(n.Args[0]) + "->" + n.Str, true
}

func (f *formatter) onNonConst(id ir.NodeID) string {
	n := f.tree.Node(id)
	switch n.Op {
	case ir.OpConcat, ir.OpStringBuild:
		parts := make([]string, len(n.Args))
		for i, arg := range n.Args {
			parts[i] = f.visit(arg)
		}
		return "(" + strings.Join(parts, n.Op.String()) + ")"
	}
	if n.HasString() {
		return n.Str + n.Op.String()
	}
	internalError("unsupported type for formatting: %s", n.Op)
	return ""
}
