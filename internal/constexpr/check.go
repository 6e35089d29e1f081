package constexpr

import (
	"github.com/ra2003/kphp/internal/ir"
)

// IsConst reports whether the expression rooted at id can be computed
// at compile time. Defines are not resolved and only string literals
// may appear in concatenations; use ConstChecker for that.
func IsConst(t *ir.Tree, id ir.NodeID) bool {
	c := &checkConst{tree: t}
	c.self = c
	return c.visit(id)
}

type checkConst struct {
	unhandled[bool]

	tree *ir.Tree

	// self is the outermost behavior; recursion dispatches through it
	// so that checkConstWithDefines overrides apply at every level.
	self hooks[bool]

	// vars holds the variables whose initializers are being checked.
	vars map[*ir.Var]bool
}

func (c *checkConst) visit(id ir.NodeID) bool {
	return visit(c.self, c.tree, id)
}

func (c *checkConst) onTrivial(ir.NodeID) (bool, bool) { return true, true }

func (c *checkConst) onConv(id ir.NodeID) (bool, bool) {
	return c.visit(c.tree.Arg(id, 0)), true
}

func (c *checkConst) onUnary(id ir.NodeID) (bool, bool) {
	return c.visit(c.tree.Arg(id, 0)), true
}

func (c *checkConst) onBinary(id ir.NodeID) (bool, bool) {
	return c.visit(c.tree.Arg(id, 0)) && c.visit(c.tree.Arg(id, 1)), true
}

func (c *checkConst) onArrayDoubleArrow(id ir.NodeID) bool {
	return c.visit(c.tree.Arg(id, 0)) && c.visit(c.tree.Arg(id, 1))
}

func (c *checkConst) onArrayValue(array ir.NodeID, i int) bool {
	return c.visit(c.tree.Arg(array, i))
}

func (c *checkConst) onArrayFinish(ir.NodeID) (bool, bool) { return true, true }

// A constant variable is checked through its initializer, the node
// ir.Tree.ActualValue resolves it to.
func (c *checkConst) onVar(id ir.NodeID) (bool, bool) {
	n := c.tree.Node(id)
	v := n.Var
	if v == nil || !v.Init.IsValid() || c.vars[v] {
		return false, true
	}
	if n.Extra != ir.ExtraVarConst && !v.Constant {
		return false, true
	}
	if c.vars == nil {
		c.vars = map[*ir.Var]bool{}
	}
	c.vars[v] = true
	defer delete(c.vars, v)
	return c.visit(v.Init), true
}

// ConstChecker is IsConst extended with define lookups and
// string concatenation.
//
// Inside a concatenation any literal is accepted since it will be
// converted to a string by the Folder; outside of it only literals
// with a string payload are.
//
// A ConstChecker holds no per-call state and may be shared.
type ConstChecker struct {
	Defines *ir.Defines
}

// IsConst reports whether id is constant under the extended rules.
func (cc ConstChecker) IsConst(t *ir.Tree, id ir.NodeID) bool {
	c := &checkConstWithDefines{
		checkConst: checkConst{tree: t},
		defines:    cc.Defines,
	}
	c.self = c
	return c.visit(id)
}

type checkConstWithDefines struct {
	checkConst

	defines  *ir.Defines
	inConcat int

	// visiting holds the defines on the current path; a define that
	// refers back to itself is not constant.
	visiting map[*ir.Define]bool
}

func (c *checkConstWithDefines) onTrivial(id ir.NodeID) (bool, bool) {
	return c.inConcat != 0 || c.tree.Node(id).HasString(), true
}

func (c *checkConstWithDefines) onFuncName(id ir.NodeID) (bool, bool) {
	d := c.defines.Get(c.tree.Node(id).Str)
	if d == nil || c.visiting[d] {
		return false, true
	}
	if c.visiting == nil {
		c.visiting = map[*ir.Define]bool{}
	}
	c.visiting[d] = true
	defer delete(c.visiting, d)
	return c.visit(d.Value), true
}

func (c *checkConstWithDefines) onNonConst(id ir.NodeID) bool {
	switch c.tree.Op(id) {
	case ir.OpConcat, ir.OpStringBuild:
		c.inConcat++
		defer func() { c.inConcat-- }()
		for i := 0; i < len(c.tree.Node(id).Args); i++ {
			if !c.visit(c.tree.Arg(id, i)) {
				return false
			}
		}
		return true
	}
	return false
}
