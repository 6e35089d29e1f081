package constexpr

import (
	"github.com/ra2003/kphp/internal/ir"
)

// hooks is implemented by every behavior.
//
// A hook that returns ok=false did not handle the node; visit then
// falls back to onNonConst. Embed unhandled to get that default for
// every hook and override only the interesting ones.
type hooks[T any] interface {
	onTrivial(id ir.NodeID) (res T, ok bool)
	onConv(id ir.NodeID) (res T, ok bool)
	onUnary(id ir.NodeID) (res T, ok bool)
	onBinary(id ir.NodeID) (res T, ok bool)
	onDoubleArrow(id ir.NodeID) (res T, ok bool)
	onArray(id ir.NodeID) (res T, ok bool)
	onArrayDoubleArrow(id ir.NodeID) bool
	onArrayValue(array ir.NodeID, i int) bool
	onArrayFinish(id ir.NodeID) (res T, ok bool)
	onFuncName(id ir.NodeID) (res T, ok bool)
	onVar(id ir.NodeID) (res T, ok bool)
	onInstanceProp(id ir.NodeID) (res T, ok bool)
	onDefineVal(id ir.NodeID) (res T, ok bool)
	onNonConst(id ir.NodeID) T
}

type unhandled[T any] struct{}

func (unhandled[T]) onTrivial(ir.NodeID) (res T, ok bool)      { return res, false }
func (unhandled[T]) onConv(ir.NodeID) (res T, ok bool)         { return res, false }
func (unhandled[T]) onUnary(ir.NodeID) (res T, ok bool)        { return res, false }
func (unhandled[T]) onBinary(ir.NodeID) (res T, ok bool)       { return res, false }
func (unhandled[T]) onDoubleArrow(ir.NodeID) (res T, ok bool)  { return res, false }
func (unhandled[T]) onArray(ir.NodeID) (res T, ok bool)        { return res, false }
func (unhandled[T]) onArrayDoubleArrow(ir.NodeID) bool         { return false }
func (unhandled[T]) onArrayValue(ir.NodeID, int) bool          { return false }
func (unhandled[T]) onArrayFinish(ir.NodeID) (res T, ok bool)  { return res, false }
func (unhandled[T]) onFuncName(ir.NodeID) (res T, ok bool)     { return res, false }
func (unhandled[T]) onVar(ir.NodeID) (res T, ok bool)          { return res, false }
func (unhandled[T]) onInstanceProp(ir.NodeID) (res T, ok bool) { return res, false }
func (unhandled[T]) onDefineVal(ir.NodeID) (res T, ok bool)    { return res, false }
func (unhandled[T]) onNonConst(ir.NodeID) (res T)              { return res }

// visit routes id to exactly one hook of h.
func visit[T any](h hooks[T], t *ir.Tree, id ir.NodeID) T {
	var (
		res T
		ok  bool
	)
	switch op := t.Op(id); {
	case op.IsConv():
		res, ok = h.onConv(id)
	case op.IsTrivial():
		res, ok = h.onTrivial(id)
	case op.IsUnary():
		res, ok = h.onUnary(id)
	case op.IsBinary():
		res, ok = h.onBinary(id)
	case op == ir.OpArray:
		res, ok = h.onArray(id)
		if !ok {
			return walkArray(h, t, id)
		}
	case op == ir.OpVar:
		res, ok = h.onVar(id)
	case op == ir.OpInstanceProp:
		res, ok = h.onInstanceProp(id)
	case op == ir.OpFuncName:
		res, ok = h.onFuncName(id)
	case op == ir.OpDefineVal:
		res, ok = h.onDefineVal(id)
	case op == ir.OpDoubleArrow:
		res, ok = h.onDoubleArrow(id)
	}
	if !ok {
		return h.onNonConst(id)
	}
	return res
}

// walkArray is the array protocol shared by all behaviors that
// don't handle arrays on their own.
func walkArray[T any](h hooks[T], t *ir.Tree, array ir.NodeID) T {
	// Hooks may overwrite slots, so re-read the node on every step.
	for i := 0; i < len(t.Node(array).Args); i++ {
		elem := t.Arg(array, i)
		if t.Op(elem) == ir.OpDoubleArrow {
			if !h.onArrayDoubleArrow(elem) {
				return h.onNonConst(array)
			}
		} else if !h.onArrayValue(array, i) {
			return h.onNonConst(array)
		}
	}
	if res, ok := h.onArrayFinish(array); ok {
		return res
	}
	return h.onNonConst(array)
}
