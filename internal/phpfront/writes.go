package phpfront

import (
	"github.com/z7zmey/php-parser/node"
	"github.com/z7zmey/php-parser/node/expr"
	"github.com/z7zmey/php-parser/node/expr/assign"
	"github.com/z7zmey/php-parser/node/stmt"
	"github.com/z7zmey/php-parser/walker"

	"github.com/ra2003/kphp/internal/ir"
)

// countWrites adds the variable writes found in stmts to l.writes.
// Variables lowered earlier stop being constant once they are
// written again.
func (l *lowerer) countWrites(stmts []node.Node) {
	c := &writeCounter{writes: l.writes}
	for _, s := range stmts {
		if s != nil {
			s.Walk(c)
		}
	}
	for name, v := range l.vars {
		if l.writes[name] > 1 {
			v.Constant = false
			v.Init = ir.NoNode
		}
	}
}

// writeCounter counts how many times each variable may be written.
//
// Every node is visited, so writes nested in expressions or in
// function bodies are seen too. A write that can run more than once,
// inside a loop or a function, counts as two.
type writeCounter struct {
	writes map[string]int

	// repeat is the number of enclosing loops and functions.
	repeat int
}

func (c *writeCounter) EnterNode(w walker.Walkable) bool {
	if repeats(w) {
		c.repeat++
	}
	for _, target := range writeTargets(w) {
		for _, name := range writtenVars(target, nil) {
			if c.repeat != 0 {
				c.writes[name] += 2
			} else {
				c.writes[name]++
			}
		}
	}
	return true
}

func (c *writeCounter) LeaveNode(w walker.Walkable) {
	if repeats(w) {
		c.repeat--
	}
}

func (c *writeCounter) EnterChildNode(key string, w walker.Walkable) {}
func (c *writeCounter) LeaveChildNode(key string, w walker.Walkable) {}
func (c *writeCounter) EnterChildList(key string, w walker.Walkable) {}
func (c *writeCounter) LeaveChildList(key string, w walker.Walkable) {}

func repeats(n walker.Walkable) bool {
	switch n.(type) {
	case *stmt.For, *stmt.AltFor, *stmt.Foreach, *stmt.AltForeach,
		*stmt.While, *stmt.AltWhile, *stmt.Do:
		return true
	}
	return isFunction(n)
}

// writeTargets returns the expressions n writes to.
func writeTargets(n walker.Walkable) []node.Node {
	switch n := n.(type) {
	case *assign.Assign:
		return []node.Node{n.Variable}
	case *assign.Reference:
		// Both sides are the same variable afterwards.
		return []node.Node{n.Variable, n.Expression}
	case *assign.BitwiseAnd:
		return []node.Node{n.Variable}
	case *assign.BitwiseOr:
		return []node.Node{n.Variable}
	case *assign.BitwiseXor:
		return []node.Node{n.Variable}
	case *assign.Coalesce:
		return []node.Node{n.Variable}
	case *assign.Concat:
		return []node.Node{n.Variable}
	case *assign.Div:
		return []node.Node{n.Variable}
	case *assign.Minus:
		return []node.Node{n.Variable}
	case *assign.Mod:
		return []node.Node{n.Variable}
	case *assign.Mul:
		return []node.Node{n.Variable}
	case *assign.Plus:
		return []node.Node{n.Variable}
	case *assign.Pow:
		return []node.Node{n.Variable}
	case *assign.ShiftLeft:
		return []node.Node{n.Variable}
	case *assign.ShiftRight:
		return []node.Node{n.Variable}

	case *expr.PostInc:
		return []node.Node{n.Variable}
	case *expr.PostDec:
		return []node.Node{n.Variable}
	case *expr.PreInc:
		return []node.Node{n.Variable}
	case *expr.PreDec:
		return []node.Node{n.Variable}
	case *expr.Reference:
		return []node.Node{n.Variable}

	case *stmt.Foreach:
		return []node.Node{n.Key, n.Variable}
	case *stmt.AltForeach:
		return []node.Node{n.Key, n.Variable}
	case *stmt.Catch:
		return []node.Node{n.Variable}
	case *stmt.StaticVar:
		return []node.Node{n.Variable}
	case *stmt.Global:
		return n.Vars
	case *stmt.Unset:
		return n.Vars

	// Arguments may be passed by reference.
	case *expr.FunctionCall:
		if isDefine(n) {
			return nil
		}
		return argExprs(n.ArgumentList)
	case *expr.MethodCall:
		return argExprs(n.ArgumentList)
	case *expr.StaticCall:
		return argExprs(n.ArgumentList)
	case *expr.New:
		return argExprs(n.ArgumentList)
	}
	return nil
}

func argExprs(list *node.ArgumentList) []node.Node {
	if list == nil {
		return nil
	}
	var exprs []node.Node
	for _, a := range list.Arguments {
		if a, ok := a.(*node.Argument); ok {
			exprs = append(exprs, a.Expr)
		}
	}
	return exprs
}

// writtenVars appends the names of the variables that a write to e
// changes. A write to $x[0] or $x->y changes $x.
func writtenVars(e node.Node, names []string) []string {
	switch e := e.(type) {
	case *expr.Variable:
		if name := varName(e); name != "" {
			names = append(names, name)
		}
	case *expr.ArrayDimFetch:
		return writtenVars(e.Variable, names)
	case *expr.PropertyFetch:
		return writtenVars(e.Variable, names)
	case *expr.Reference:
		return writtenVars(e.Variable, names)
	case *expr.List:
		return listVars(e.Items, names)
	case *expr.ShortList:
		return listVars(e.Items, names)
	}
	return names
}

func listVars(items []node.Node, names []string) []string {
	for _, item := range items {
		if item, ok := item.(*expr.ArrayItem); ok && item != nil {
			names = writtenVars(item.Val, names)
		}
	}
	return names
}
