package constexpr

import (
	"github.com/ra2003/kphp/internal/ir"
)

// Folder rewrites constant expressions into their literal form.
//
// The input is expected to be accepted by a ConstChecker configured
// with the same defines; other shapes fold to ir.NoNode.
//
// Unary and binary operators are not computed: their operands are
// replaced with folded literals and the operator node is kept.
// Type conversions are dropped without converting the value.
type Folder struct {
	Defines *ir.Defines

	// Errors receives concatenation pieces that can't be turned into
	// a string. A nil sink makes such errors panic.
	Errors ErrorSink
}

// Fold folds id in place and returns the node that should replace it.
// Child slots of id may be overwritten; for concatenations the result
// is a new node.
//
// Define references are replaced with the stored define value, which
// is shared and not folded again. Callers must run
// constvars.PrefoldDefines over the defines first: otherwise an
// unfolded define value ends up in the result, and folding that
// result again rewrites the define's own nodes.
func (f *Folder) Fold(t *ir.Tree, id ir.NodeID) ir.NodeID {
	m := &makeConst{tree: t, defines: f.Defines, errs: f.Errors}
	return m.visit(id)
}

type makeConst struct {
	unhandled[ir.NodeID]

	tree    *ir.Tree
	defines *ir.Defines
	errs    ErrorSink

	vars map[*ir.Var]bool
}

func (m *makeConst) visit(id ir.NodeID) ir.NodeID {
	return visit[ir.NodeID](m, m.tree, id)
}

func (m *makeConst) onTrivial(id ir.NodeID) (ir.NodeID, bool) { return id, true }

func (m *makeConst) onUnary(id ir.NodeID) (ir.NodeID, bool) {
	m.tree.SetArg(id, 0, m.visit(m.tree.Arg(id, 0)))
	return id, true
}

func (m *makeConst) onBinary(id ir.NodeID) (ir.NodeID, bool) {
	m.tree.SetArg(id, 0, m.visit(m.tree.Arg(id, 0)))
	m.tree.SetArg(id, 1, m.visit(m.tree.Arg(id, 1)))
	return id, true
}

func (m *makeConst) onArrayValue(array ir.NodeID, i int) bool {
	m.tree.SetArg(array, i, m.visit(m.tree.Arg(array, i)))
	return true
}

func (m *makeConst) onArrayDoubleArrow(id ir.NodeID) bool {
	m.tree.SetArg(id, 0, m.visit(m.tree.Arg(id, 0)))
	m.tree.SetArg(id, 1, m.visit(m.tree.Arg(id, 1)))
	return true
}

func (m *makeConst) onArrayFinish(id ir.NodeID) (ir.NodeID, bool) { return id, true }

func (m *makeConst) onConv(id ir.NodeID) (ir.NodeID, bool) {
	return m.visit(m.tree.Arg(id, 0)), true
}

// The define value is returned as is, it is not folded again.
func (m *makeConst) onFuncName(id ir.NodeID) (ir.NodeID, bool) {
	d := m.defines.Get(m.tree.Node(id).Str)
	if d == nil {
		return ir.NoNode, true
	}
	return d.Value, true
}

// The initializer belongs to the variable symbol, so a copy is folded.
func (m *makeConst) onVar(id ir.NodeID) (ir.NodeID, bool) {
	n := m.tree.Node(id)
	v := n.Var
	if v == nil || !v.Init.IsValid() || (n.Extra != ir.ExtraVarConst && !v.Constant) || m.vars[v] {
		return ir.NoNode, true
	}
	if m.vars == nil {
		m.vars = map[*ir.Var]bool{}
	}
	m.vars[v] = true
	defer delete(m.vars, v)
	return m.visit(m.tree.Clone(v.Init)), true
}

func (m *makeConst) onNonConst(id ir.NodeID) ir.NodeID {
	switch m.tree.Op(id) {
	case ir.OpConcat, ir.OpStringBuild:
		return m.foldConcat(id)
	}
	return ir.NoNode
}

func (m *makeConst) foldConcat(id ir.NodeID) ir.NodeID {
	loc := m.tree.Node(id).Loc
	var s []byte
	for i := 0; i < len(m.tree.Node(id).Args); i++ {
		res := m.visit(m.tree.Arg(id, i))
		if !res.IsValid() || !m.tree.Node(res).HasString() {
			got := ir.OpNone
			if res.IsValid() {
				got = m.tree.Op(res)
			}
			m.report(&CompileError{
				Loc: loc,
				Msg: "expected type convertible to string, but got: " + got.String(),
			})
			return ir.NoNode
		}
		s = append(s, m.tree.Node(res).Str...)
	}
	return m.tree.Add(ir.Node{Op: ir.OpString, Str: string(s), Loc: loc})
}

func (m *makeConst) report(err *CompileError) {
	if m.errs == nil {
		panic(err)
	}
	m.errs.Report(err)
}
