// Package constvars moves constant arrays and strings out of
// expressions into shared generated variables.
//
// Equal values are detected by their structural hash, so every
// distinct constant is materialized once no matter how many times
// it is spelled in the source.
package constvars

import (
	"fmt"
	"sort"

	"github.com/ra2003/kphp/internal/constexpr"
	"github.com/ra2003/kphp/internal/ir"
)

// Value is one generated constant variable.
type Value struct {
	Var  *ir.Var
	Hash int64

	// Repr is the diagnostic rendering of the value.
	Repr string

	// Uses counts the expressions replaced by this variable.
	Uses int
}

// Pool deduplicates constant values of one tree.
type Pool struct {
	tree    *ir.Tree
	defines *ir.Defines
	checker constexpr.ConstChecker
	folder  *constexpr.Folder

	byHash map[int64]*Value

	// Errors collects folding errors and hash collisions.
	Errors constexpr.ErrorList
}

// New returns an empty pool for t.
func New(t *ir.Tree, defines *ir.Defines) *Pool {
	p := &Pool{
		tree:    t,
		defines: defines,
		checker: constexpr.ConstChecker{Defines: defines},
		byHash:  map[int64]*Value{},
	}
	p.folder = &constexpr.Folder{Defines: defines, Errors: &p.Errors}
	return p
}

// Extract returns a reference to the pooled copy of id if id is a
// constant array or string; otherwise id itself is returned.
//
// The expression at id is left untouched: a copy is folded.
func (p *Pool) Extract(id ir.NodeID) ir.NodeID {
	if p.tree.Op(id) == ir.OpVar || !p.checker.IsConst(p.tree, id) {
		return id
	}
	loc := p.tree.Node(id).Loc
	nerrs := len(p.Errors)
	folded := p.folder.Fold(p.tree, p.tree.Clone(id))
	if !folded.IsValid() || len(p.Errors) != nerrs {
		return id
	}

	var kind string
	switch p.tree.Op(folded) {
	case ir.OpArray:
		kind = "array"
	case ir.OpString:
		kind = "string"
	default:
		return id
	}

	hash := constexpr.Hash(p.tree, p.defines, folded)
	repr := constexpr.Format(p.tree, p.defines, folded)
	v := p.byHash[hash]
	if v == nil {
		v = &Value{
			Var: &ir.Var{
				Name:     fmt.Sprintf("const_%s$u%x", kind, uint64(hash)),
				Constant: true,
				Init:     folded,
			},
			Hash: hash,
			Repr: repr,
		}
		p.byHash[hash] = v
	} else if v.Repr != repr {
		p.Errors.Report(&constexpr.CompileError{
			Loc: loc,
			Msg: fmt.Sprintf("hash collision between %s and %s", v.Repr, repr),
		})
		return id
	}
	v.Uses++
	return p.tree.Add(ir.Node{
		Op:    ir.OpVar,
		Extra: ir.ExtraVarConst,
		Str:   v.Var.Name,
		Var:   v.Var,
		Loc:   loc,
	})
}

// Values returns the pooled values ordered by variable name.
func (p *Pool) Values() []*Value {
	list := make([]*Value, 0, len(p.byHash))
	for _, v := range p.byHash {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Var.Name < list[j].Var.Name })
	return list
}

// PrefoldDefines replaces every constant define value with its folded
// form, dependencies first. Folding a reference to a define yields the
// stored value without folding it again, so this has to run before
// values that mention defines are hashed.
func PrefoldDefines(t *ir.Tree, defines *ir.Defines, errs constexpr.ErrorSink) {
	pf := &prefolder{
		tree:    t,
		defines: defines,
		checker: constexpr.ConstChecker{Defines: defines},
		folder:  &constexpr.Folder{Defines: defines, Errors: errs},
		state:   map[*ir.Define]int{},
	}
	for _, d := range defines.All() {
		pf.fold(d)
	}
}

const (
	stateVisiting = 1
	stateDone     = 2
)

type prefolder struct {
	tree    *ir.Tree
	defines *ir.Defines
	checker constexpr.ConstChecker
	folder  *constexpr.Folder
	state   map[*ir.Define]int
}

func (pf *prefolder) fold(d *ir.Define) {
	if pf.state[d] != 0 {
		// Either done or a cycle; the checker rejects cycles.
		return
	}
	pf.state[d] = stateVisiting
	pf.foldDeps(d.Value)
	if pf.checker.IsConst(pf.tree, d.Value) {
		if folded := pf.folder.Fold(pf.tree, pf.tree.Clone(d.Value)); folded.IsValid() {
			d.Value = folded
		}
	}
	pf.state[d] = stateDone
}

func (pf *prefolder) foldDeps(id ir.NodeID) {
	if !id.IsValid() {
		return
	}
	n := pf.tree.Node(id)
	if n.Op == ir.OpFuncName {
		if dep := pf.defines.Get(n.Str); dep != nil {
			pf.fold(dep)
		}
		return
	}
	for _, arg := range n.Args {
		pf.foldDeps(arg)
	}
}
