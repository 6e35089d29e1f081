// Package ir defines the expression tree the constant evaluator works on.
//
// Nodes live in a Tree arena and refer to each other by NodeID.
// Replacing a child is an index overwrite, so rewriting a reference
// site never reaches into a shared initializer by accident.
package ir

import (
	"fmt"
)

// NodeID is an index into a Tree. NoNode is the absent node.
type NodeID uint32

// NoNode is the zero NodeID; it never refers to a real node.
const NoNode NodeID = 0

// IsValid reports whether id refers to a node.
func (id NodeID) IsValid() bool { return id != NoNode }

// ExtraType carries op-specific markers.
type ExtraType uint8

const (
	ExtraNone ExtraType = iota

	// ExtraVarConst marks a variable reference to a compiler-generated
	// constant variable.
	ExtraVarConst
)

// Location points at the source position a node came from.
type Location struct {
	File string
	Line int
}

func (loc Location) String() string {
	if loc.File == "" {
		return fmt.Sprintf("line %d", loc.Line)
	}
	return fmt.Sprintf("%s:%d", loc.File, loc.Line)
}

// Var is a variable symbol.
// Init is only meaningful for constant variables.
type Var struct {
	Name     string
	Constant bool
	Init     NodeID
}

// Node is one expression element.
type Node struct {
	Op    Op
	Extra ExtraType
	Str   string
	Args  []NodeID
	Var   *Var
	Loc   Location
}

// HasString reports whether n carries a string payload.
func (n *Node) HasString() bool { return n.Op.HasString() }

// Tree is a node arena.
type Tree struct {
	nodes []Node
}

// NewTree returns an empty arena.
func NewTree() *Tree {
	// Slot 0 is reserved for NoNode.
	return &Tree{nodes: make([]Node, 1, 64)}
}

// Len returns the number of nodes allocated so far.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Add appends n to the arena and returns its id.
func (t *Tree) Add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Node returns a pointer to the node with the given id.
// The pointer is invalidated by the next Add.
func (t *Tree) Node(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("ir: invalid node id %d", id))
	}
	return &t.nodes[id]
}

// Op is a shorthand for t.Node(id).Op.
func (t *Tree) Op(id NodeID) Op { return t.Node(id).Op }

// Arg returns the i-th child of id.
func (t *Tree) Arg(id NodeID, i int) NodeID { return t.Node(id).Args[i] }

// SetArg overwrites the i-th child slot of id.
func (t *Tree) SetArg(id NodeID, i int, child NodeID) { t.Node(id).Args[i] = child }

// Clone deep-copies the subtree rooted at id and returns the copy's root.
// Variable symbols are shared; they are not owned by the tree.
func (t *Tree) Clone(id NodeID) NodeID {
	if !id.IsValid() {
		return NoNode
	}
	n := *t.Node(id)
	if len(n.Args) != 0 {
		args := make([]NodeID, len(n.Args))
		for i, a := range n.Args {
			args[i] = t.Clone(a)
		}
		n.Args = args
	}
	return t.Add(n)
}

// Import deep-copies the subtree rooted at id in src into t.
// Variable bindings don't cross trees: imported variable references
// lose their symbol and are no longer constant.
func (t *Tree) Import(src *Tree, id NodeID) NodeID {
	if !id.IsValid() {
		return NoNode
	}
	n := *src.Node(id)
	n.Var = nil
	n.Extra = ExtraNone
	if len(n.Args) != 0 {
		args := make([]NodeID, len(n.Args))
		for i, a := range n.Args {
			args[i] = t.Import(src, a)
		}
		n.Args = args
	}
	return t.Add(n)
}

// Convenience constructors.

func (t *Tree) Lit(op Op, s string) NodeID {
	return t.Add(Node{Op: op, Str: s})
}

func (t *Tree) Int(s string) NodeID   { return t.Lit(OpIntConst, s) }
func (t *Tree) Float(s string) NodeID { return t.Lit(OpFloatConst, s) }
func (t *Tree) Str(s string) NodeID   { return t.Lit(OpString, s) }
func (t *Tree) True() NodeID          { return t.Add(Node{Op: OpTrue}) }
func (t *Tree) False() NodeID         { return t.Add(Node{Op: OpFalse}) }
func (t *Tree) Null() NodeID          { return t.Add(Node{Op: OpNull}) }

func (t *Tree) Unary(op Op, x NodeID) NodeID {
	return t.Add(Node{Op: op, Args: []NodeID{x}})
}

func (t *Tree) Binary(op Op, x, y NodeID) NodeID {
	return t.Add(Node{Op: op, Args: []NodeID{x, y}})
}

func (t *Tree) DoubleArrow(key, val NodeID) NodeID {
	return t.Add(Node{Op: OpDoubleArrow, Args: []NodeID{key, val}})
}

func (t *Tree) Array(elems ...NodeID) NodeID {
	return t.Add(Node{Op: OpArray, Args: elems})
}

func (t *Tree) Concat(parts ...NodeID) NodeID {
	return t.Add(Node{Op: OpConcat, Args: parts})
}

func (t *Tree) VarRef(v *Var) NodeID {
	return t.Add(Node{Op: OpVar, Str: v.Name, Var: v})
}

func (t *Tree) FuncName(name string) NodeID {
	return t.Lit(OpFuncName, name)
}

// ActualValue dereferences id through constant variables and defines.
// Anything else is returned unchanged, and so is a reference chain
// that loops back on itself.
func (t *Tree) ActualValue(id NodeID, defines *Defines) NodeID {
	start := id
	for steps := 0; id.IsValid(); steps++ {
		if steps > len(t.nodes) {
			return start
		}
		n := t.Node(id)
		switch n.Op {
		case OpVar:
			v := n.Var
			if v == nil || !v.Init.IsValid() {
				return id
			}
			if n.Extra != ExtraVarConst && !v.Constant {
				return id
			}
			id = v.Init
		case OpDefineVal:
			if defines == nil {
				return id
			}
			d := defines.Get(n.Str)
			if d == nil {
				return id
			}
			id = d.Value
		default:
			return id
		}
	}
	return id
}
