package phpfront

import (
	"fmt"
	"strings"

	"github.com/z7zmey/php-parser/node"
	"github.com/z7zmey/php-parser/node/expr"
	"github.com/z7zmey/php-parser/node/expr/assign"
	"github.com/z7zmey/php-parser/node/expr/binary"
	"github.com/z7zmey/php-parser/node/expr/cast"
	"github.com/z7zmey/php-parser/node/name"
	"github.com/z7zmey/php-parser/node/scalar"
	"github.com/z7zmey/php-parser/node/stmt"
	"github.com/z7zmey/php-parser/walker"

	"github.com/ra2003/kphp/internal/ir"
)

// lowerer converts php-parser nodes into an ir.Tree.
type lowerer struct {
	file    string
	tree    *ir.Tree
	defines *ir.Defines

	// registry is consulted for defines this file doesn't declare.
	registry *Registry

	// indexOnly makes the lowerer record declarations and skip
	// everything else.
	indexOnly bool

	vars map[string]*ir.Var

	// writes counts the writes of each variable, see writeCounter.
	writes map[string]int

	// assigned holds the variables whose assignment statement was
	// already lowered; only references after it are bound.
	assigned map[string]bool

	ns    string
	class string

	// depth is the number of enclosing nodes other than blocks, funcs
	// is the number of enclosing functions.
	depth int
	funcs int

	pending  []pendingName
	entries  []Entry
	warnings []Warning
}

// pendingName is an unqualified constant name used inside a namespace.
// PHP falls back to the global constant if the namespaced one is missing.
type pendingName struct {
	id       ir.NodeID
	fallback string
}

func newLowerer(file string, tree *ir.Tree, defines *ir.Defines) *lowerer {
	return &lowerer{
		file:     file,
		tree:     tree,
		defines:  defines,
		vars:     map[string]*ir.Var{},
		writes:   map[string]int{},
		assigned: map[string]bool{},
	}
}

func (l *lowerer) loc(n node.Node) ir.Location {
	loc := ir.Location{File: l.file}
	if n == nil {
		return loc
	}
	if pos := n.GetPosition(); pos != nil {
		loc.Line = pos.StartLine
	}
	return loc
}

func (l *lowerer) warn(n node.Node, check, format string, args ...interface{}) {
	l.warnings = append(l.warnings, Warning{
		Loc:   l.loc(n),
		Check: check,
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (l *lowerer) add(n node.Node, irn ir.Node) ir.NodeID {
	irn.Loc = l.loc(n)
	return l.tree.Add(irn)
}

func (l *lowerer) qualify(s string) string {
	if l.ns == "" {
		return s
	}
	return l.ns + `\` + s
}

func varName(v *expr.Variable) string {
	if id, ok := v.VarName.(*node.Identifier); ok {
		return "$" + strings.TrimPrefix(id.Value, "$")
	}
	return ""
}

// lower walks the statements in source order, recording declarations
// and entries.
func (l *lowerer) lower(stmts []node.Node) {
	for _, s := range stmts {
		if s != nil {
			s.Walk(l)
		}
	}
}

func (l *lowerer) EnterNode(w walker.Walkable) bool {
	switch n := w.(type) {
	case *stmt.Namespace:
		l.ns = nameString(n.NamespaceName)
	case *stmt.Class:
		l.class = l.qualify(identString(n.ClassName))
	case *stmt.Interface:
		l.class = l.qualify(identString(n.InterfaceName))

	case *stmt.ConstList:
		for _, c := range n.Consts {
			if c, ok := c.(*stmt.Constant); ok {
				l.declare(EntryConst, l.qualify(identString(c.ConstantName)), c.Expr, c)
			}
		}
	case *stmt.ClassConstList:
		if l.class == "" {
			break
		}
		for _, c := range n.Consts {
			if c, ok := c.(*stmt.Constant); ok {
				l.declare(EntryClassConst, l.class+"::"+identString(c.ConstantName), c.Expr, c)
			}
		}
	case *expr.FunctionCall:
		if isDefine(n) {
			l.lowerDefine(n)
		}

	case *stmt.Expression:
		l.lowerExprStmt(n)
	case *stmt.Echo:
		for _, e := range n.Exprs {
			l.entry(EntryExpr, e)
		}

	case *stmt.If:
		l.entry(EntryCond, n.Cond)
	case *stmt.AltIf:
		l.entry(EntryCond, n.Cond)
	case *stmt.ElseIf:
		l.entry(EntryCond, n.Cond)
	case *stmt.AltElseIf:
		l.entry(EntryCond, n.Cond)
	case *stmt.While:
		l.entry(EntryCond, n.Cond)
	case *stmt.AltWhile:
		l.entry(EntryCond, n.Cond)
	case *stmt.Do:
		l.entry(EntryCond, n.Cond)
	case *stmt.For:
		for _, c := range n.Cond {
			l.entry(EntryCond, c)
		}
	case *stmt.AltFor:
		for _, c := range n.Cond {
			l.entry(EntryCond, c)
		}
	case *stmt.Case:
		l.entry(EntryCond, n.Cond)
	}

	if !isBlock(w) {
		l.depth++
	}
	if isFunction(w) {
		l.funcs++
	}
	return true
}

func (l *lowerer) LeaveNode(w walker.Walkable) {
	if !isBlock(w) {
		l.depth--
	}
	if isFunction(w) {
		l.funcs--
	}
	switch n := w.(type) {
	case *stmt.Namespace:
		// "namespace Foo;" lasts until the next namespace.
		if n.Stmts != nil {
			l.ns = ""
		}
	case *stmt.Class, *stmt.Interface:
		l.class = ""
	}
}

func (l *lowerer) EnterChildNode(key string, w walker.Walkable) {}
func (l *lowerer) LeaveChildNode(key string, w walker.Walkable) {}
func (l *lowerer) EnterChildList(key string, w walker.Walkable) {}
func (l *lowerer) LeaveChildList(key string, w walker.Walkable) {}

// isBlock reports whether statements inside n run exactly when n does.
func isBlock(n walker.Walkable) bool {
	switch n.(type) {
	case *stmt.Namespace, *stmt.StmtList:
		return true
	}
	return false
}

// isFunction reports whether n opens a new variable scope.
func isFunction(n walker.Walkable) bool {
	switch n.(type) {
	case *stmt.Function, *stmt.ClassMethod, *expr.Closure, *expr.ArrowFunction:
		return true
	}
	return false
}

func isDefine(e node.Node) bool {
	call, ok := e.(*expr.FunctionCall)
	return ok && strings.EqualFold(nameString(call.Function), "define")
}

func (l *lowerer) entry(kind EntryKind, e node.Node) {
	if l.indexOnly || e == nil {
		return
	}
	l.entries = append(l.entries, Entry{
		Kind:  kind,
		Value: l.lowerExpr(e),
		Loc:   l.loc(e),
	})
}

func (l *lowerer) lowerExprStmt(s *stmt.Expression) {
	// Defines are handled when the walker reaches the call.
	if l.indexOnly || isDefine(s.Expr) {
		return
	}

	if a, ok := s.Expr.(*assign.Assign); ok {
		if v, ok := a.Variable.(*expr.Variable); ok && varName(v) != "" {
			l.lowerAssign(varName(v), a)
			return
		}
	}
	l.entries = append(l.entries, Entry{
		Kind:  EntryExpr,
		Value: l.lowerExpr(s.Expr),
		Loc:   l.loc(s),
	})
}

// lowerAssign records a "$name = expr;" statement.
//
// The variable is constant only when this is its only write and the
// statement runs unconditionally at the top level. References lowered
// before this point are not bound to the variable.
func (l *lowerer) lowerAssign(name string, a *assign.Assign) {
	init := l.lowerExpr(a.Expression)
	if l.funcs == 0 {
		v := l.variable(name)
		if l.writes[name] == 1 && l.depth == 0 {
			v.Constant = true
			v.Init = init
		} else {
			v.Constant = false
			v.Init = ir.NoNode
		}
		l.assigned[name] = true
	}
	l.entries = append(l.entries, Entry{
		Kind:  EntryVar,
		Name:  name,
		Value: init,
		Loc:   l.loc(a),
	})
}

func (l *lowerer) lowerDefine(call *expr.FunctionCall) {
	args := callArgs(call)
	if len(args) < 2 {
		l.warn(call, "badCall", "define expects at least 2 arguments, got %d", len(args))
		return
	}
	if len(args) > 2 {
		l.warn(args[2], "sloppyArg", "don't use case_insensitive argument")
	}
	lit, ok := args[0].(*scalar.String)
	if !ok {
		l.warn(args[0], "badCall", "define name must be a string literal")
		return
	}
	defName, ok := unquote(lit.Value)
	if !ok {
		l.warn(args[0], "badCall", "can't decode define name %s", lit.Value)
		return
	}
	l.declare(EntryDefine, strings.TrimPrefix(defName, `\`), args[1], call)
}

func (l *lowerer) declare(kind EntryKind, defName string, value, n node.Node) {
	val := l.lowerExpr(value)
	d := &ir.Define{Name: defName, Value: val, Loc: l.loc(n)}
	if !l.defines.Add(d) {
		l.warn(n, "redefine", "%s is already defined", defName)
		return
	}
	if l.indexOnly {
		return
	}
	l.entries = append(l.entries, Entry{
		Kind:  kind,
		Name:  defName,
		Value: val,
		Loc:   d.Loc,
	})
}

func callArgs(call *expr.FunctionCall) []node.Node {
	if call.ArgumentList == nil {
		return nil
	}
	args := make([]node.Node, 0, len(call.ArgumentList.Arguments))
	for _, a := range call.ArgumentList.Arguments {
		if a, ok := a.(*node.Argument); ok {
			args = append(args, a.Expr)
			continue
		}
		args = append(args, a)
	}
	return args
}

func (l *lowerer) variable(name string) *ir.Var {
	v := l.vars[name]
	if v == nil {
		v = &ir.Var{Name: name}
		l.vars[name] = v
	}
	return v
}

func (l *lowerer) lowerExpr(e node.Node) ir.NodeID {
	switch e := e.(type) {
	case *scalar.Lnumber:
		return l.add(e, ir.Node{Op: ir.OpIntConst, Str: strings.ReplaceAll(e.Value, "_", "")})
	case *scalar.Dnumber:
		return l.add(e, ir.Node{Op: ir.OpFloatConst, Str: strings.ReplaceAll(e.Value, "_", "")})
	case *scalar.String:
		s, ok := unquote(e.Value)
		if !ok {
			return l.opaque(e)
		}
		return l.add(e, ir.Node{Op: ir.OpString, Str: s})
	case *scalar.Encapsed:
		return l.lowerStringBuild(e, e.Parts, '"')
	case *scalar.Heredoc:
		quote := byte('"')
		if strings.Contains(e.Label, "'") {
			// Nowdoc.
			quote = '\''
		}
		return l.lowerStringBuild(e, e.Parts, quote)

	case *expr.ConstFetch:
		return l.lowerConstFetch(e)
	case *expr.ClassConstFetch:
		class := l.className(e.Class)
		if class == "" {
			return l.opaque(e)
		}
		return l.add(e, ir.Node{Op: ir.OpFuncName, Str: class + "::" + identString(e.ConstantName)})

	case *expr.Array:
		return l.lowerArray(e, e.Items)
	case *expr.ShortArray:
		return l.lowerArray(e, e.Items)

	case *expr.Variable:
		name := varName(e)
		if name == "" {
			return l.opaque(e)
		}
		n := ir.Node{Op: ir.OpVar, Str: name}
		if l.funcs == 0 && l.assigned[name] {
			n.Var = l.variable(name)
		}
		return l.add(e, n)
	case *expr.PropertyFetch:
		prop, ok := e.Property.(*node.Identifier)
		if !ok {
			return l.opaque(e)
		}
		owner := l.lowerExpr(e.Variable)
		return l.add(e, ir.Node{Op: ir.OpInstanceProp, Str: prop.Value, Args: []ir.NodeID{owner}})

	case *expr.UnaryMinus:
		return l.lowerUnary(e, ir.OpMinus, e.Expr)
	case *expr.UnaryPlus:
		return l.lowerUnary(e, ir.OpPlus, e.Expr)
	case *expr.BitwiseNot:
		return l.lowerUnary(e, ir.OpNot, e.Expr)
	case *expr.BooleanNot:
		return l.lowerUnary(e, ir.OpLogNot, e.Expr)
	case *cast.Int:
		return l.lowerUnary(e, ir.OpConvInt, e.Expr)
	case *cast.Double:
		return l.lowerUnary(e, ir.OpConvFloat, e.Expr)
	case *cast.String:
		return l.lowerUnary(e, ir.OpConvString, e.Expr)
	case *cast.Array:
		return l.lowerUnary(e, ir.OpConvArray, e.Expr)
	case *cast.Bool:
		return l.lowerUnary(e, ir.OpConvBool, e.Expr)
	case *cast.Object:
		return l.lowerUnary(e, ir.OpConvObject, e.Expr)

	case *binary.Plus:
		return l.lowerBinary(e, ir.OpAdd, e.Left, e.Right)
	case *binary.Minus:
		return l.lowerBinary(e, ir.OpSub, e.Left, e.Right)
	case *binary.Mul:
		return l.lowerBinary(e, ir.OpMul, e.Left, e.Right)
	case *binary.Div:
		return l.lowerBinary(e, ir.OpDiv, e.Left, e.Right)
	case *binary.Mod:
		return l.lowerBinary(e, ir.OpMod, e.Left, e.Right)
	case *binary.Pow:
		return l.lowerBinary(e, ir.OpPow, e.Left, e.Right)
	case *binary.BitwiseAnd:
		return l.lowerBinary(e, ir.OpAnd, e.Left, e.Right)
	case *binary.BitwiseOr:
		return l.lowerBinary(e, ir.OpOr, e.Left, e.Right)
	case *binary.BitwiseXor:
		return l.lowerBinary(e, ir.OpXor, e.Left, e.Right)
	case *binary.ShiftLeft:
		return l.lowerBinary(e, ir.OpShl, e.Left, e.Right)
	case *binary.ShiftRight:
		return l.lowerBinary(e, ir.OpShr, e.Left, e.Right)
	case *binary.BooleanAnd:
		return l.lowerBinary(e, ir.OpLogAnd, e.Left, e.Right)
	case *binary.BooleanOr:
		return l.lowerBinary(e, ir.OpLogOr, e.Left, e.Right)
	case *binary.Equal:
		return l.lowerBinary(e, ir.OpEq2, e.Left, e.Right)
	case *binary.LogicalAnd:
		return l.lowerBinary(e, ir.OpLogAnd, e.Left, e.Right)
	case *binary.LogicalOr:
		return l.lowerBinary(e, ir.OpLogOr, e.Left, e.Right)
	case *binary.Identical:
		return l.lowerBinary(e, ir.OpEq3, e.Left, e.Right)
	case *binary.NotEqual:
		return l.lowerBinary(e, ir.OpNotEq2, e.Left, e.Right)
	case *binary.NotIdentical:
		return l.lowerBinary(e, ir.OpNotEq3, e.Left, e.Right)
	case *binary.Smaller:
		return l.lowerBinary(e, ir.OpLess, e.Left, e.Right)
	case *binary.Greater:
		return l.lowerBinary(e, ir.OpGreater, e.Left, e.Right)
	case *binary.SmallerOrEqual:
		return l.lowerBinary(e, ir.OpLessEq, e.Left, e.Right)
	case *binary.GreaterOrEqual:
		return l.lowerBinary(e, ir.OpGreaterEq, e.Left, e.Right)
	case *binary.Concat:
		return l.lowerConcat(e)

	case *expr.FunctionCall:
		var args []ir.NodeID
		for _, a := range callArgs(e) {
			args = append(args, l.lowerExpr(a))
		}
		return l.add(e, ir.Node{Op: ir.OpFuncCall, Str: nameString(e.Function), Args: args})
	}
	return l.opaque(e)
}

func (l *lowerer) opaque(e node.Node) ir.NodeID {
	return l.add(e, ir.Node{Op: ir.OpOpaque, Str: fmt.Sprintf("%T", e)})
}

func (l *lowerer) lowerUnary(e node.Node, op ir.Op, x node.Node) ir.NodeID {
	return l.add(e, ir.Node{Op: op, Args: []ir.NodeID{l.lowerExpr(x)}})
}

func (l *lowerer) lowerBinary(e node.Node, op ir.Op, x, y node.Node) ir.NodeID {
	return l.add(e, ir.Node{Op: op, Args: []ir.NodeID{l.lowerExpr(x), l.lowerExpr(y)}})
}

// lowerConcat flattens a chain of "." into a single concatenation.
func (l *lowerer) lowerConcat(e *binary.Concat) ir.NodeID {
	var operands []node.Node
	var collect func(n node.Node)
	collect = func(n node.Node) {
		if c, ok := n.(*binary.Concat); ok {
			collect(c.Left)
			collect(c.Right)
			return
		}
		operands = append(operands, n)
	}
	collect(e)

	args := make([]ir.NodeID, len(operands))
	for i, x := range operands {
		args[i] = l.lowerExpr(x)
	}
	return l.add(e, ir.Node{Op: ir.OpConcat, Args: args})
}

func (l *lowerer) lowerStringBuild(e node.Node, parts []node.Node, quote byte) ir.NodeID {
	args := make([]ir.NodeID, 0, len(parts))
	for _, p := range parts {
		if lit, ok := p.(*scalar.EncapsedStringPart); ok {
			s, ok := interpretString(lit.Value, quote)
			if !ok {
				args = append(args, l.opaque(p))
				continue
			}
			args = append(args, l.add(p, ir.Node{Op: ir.OpString, Str: s}))
			continue
		}
		args = append(args, l.lowerExpr(p))
	}
	return l.add(e, ir.Node{Op: ir.OpStringBuild, Args: args})
}

func (l *lowerer) lowerArray(e node.Node, items []node.Node) ir.NodeID {
	elems := make([]ir.NodeID, 0, len(items))
	for _, item := range items {
		item, ok := item.(*expr.ArrayItem)
		if !ok || item == nil || item.Val == nil {
			continue
		}
		val := l.lowerExpr(item.Val)
		if item.Key == nil {
			elems = append(elems, val)
			continue
		}
		key := l.lowerExpr(item.Key)
		elems = append(elems, l.add(item, ir.Node{Op: ir.OpDoubleArrow, Args: []ir.NodeID{key, val}}))
	}
	return l.add(e, ir.Node{Op: ir.OpArray, Args: elems})
}

func (l *lowerer) lowerConstFetch(e *expr.ConstFetch) ir.NodeID {
	switch strings.ToLower(nameString(e.Constant)) {
	case "true", `\true`:
		return l.add(e, ir.Node{Op: ir.OpTrue})
	case "false", `\false`:
		return l.add(e, ir.Node{Op: ir.OpFalse})
	case "null", `\null`:
		return l.add(e, ir.Node{Op: ir.OpNull})
	}

	switch n := e.Constant.(type) {
	case *name.FullyQualified:
		return l.add(e, ir.Node{Op: ir.OpFuncName, Str: partsString(n.Parts)})
	case *name.Name:
		short := partsString(n.Parts)
		id := l.add(e, ir.Node{Op: ir.OpFuncName, Str: l.qualify(short)})
		if l.ns != "" && len(n.Parts) == 1 {
			l.pending = append(l.pending, pendingName{id: id, fallback: short})
		}
		return id
	}
	return l.opaque(e)
}

func (l *lowerer) className(n node.Node) string {
	switch n := n.(type) {
	case *name.FullyQualified:
		return partsString(n.Parts)
	case *name.Name:
		s := partsString(n.Parts)
		switch strings.ToLower(s) {
		case "self", "static":
			return l.class
		}
		return l.qualify(s)
	case *node.Identifier:
		switch strings.ToLower(n.Value) {
		case "self", "static":
			return l.class
		}
	}
	return ""
}

// resolvePending picks the global constant for unqualified names that
// don't resolve inside their namespace.
func (l *lowerer) resolvePending() {
	for _, p := range l.pending {
		n := l.tree.Node(p.id)
		if l.known(n.Str) {
			continue
		}
		n.Str = p.fallback
	}
	l.pending = l.pending[:0]
}

func (l *lowerer) known(defName string) bool {
	if l.defines.Get(defName) != nil {
		return true
	}
	return l.registry != nil && l.registry.Has(defName)
}

// importDefines copies defines declared in other files into the tree.
func (l *lowerer) importDefines() {
	if l.registry == nil {
		return
	}
	// Imported values may refer to more defines, so the
	// loop bound grows as nodes are appended.
	for i := 1; i <= l.tree.Len(); i++ {
		n := l.tree.Node(ir.NodeID(i))
		if n.Op != ir.OpFuncName || l.defines.Get(n.Str) != nil {
			continue
		}
		l.registry.importInto(l.tree, l.defines, n.Str)
	}
}

func identString(n node.Node) string {
	if id, ok := n.(*node.Identifier); ok {
		return id.Value
	}
	return ""
}

func partsString(parts []node.Node) string {
	s := make([]string, 0, len(parts))
	for _, p := range parts {
		if p, ok := p.(*name.NamePart); ok {
			s = append(s, p.Value)
		}
	}
	return strings.Join(s, `\`)
}

func nameString(n node.Node) string {
	switch n := n.(type) {
	case *name.Name:
		return partsString(n.Parts)
	case *name.FullyQualified:
		return partsString(n.Parts)
	case *name.Relative:
		return partsString(n.Parts)
	case *node.Identifier:
		return n.Value
	}
	return ""
}
