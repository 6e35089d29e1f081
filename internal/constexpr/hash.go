package constexpr

import (
	"hash/fnv"

	"github.com/ra2003/kphp/internal/ir"
)

const (
	// HashMult is the multiplier of the hash accumulator.
	HashMult int64 = 56235515617499

	// ArrayOpenMagic and ArrayCloseMagic surround array elements so
	// that [[1, 2]] and [1, 2] hash differently.
	ArrayOpenMagic  int64 = 536536536536960
	ArrayCloseMagic int64 = 288288288288069
)

// Hash computes a structural hash of a constant expression.
// Equal values hash equal no matter where they are in the tree.
//
// It panics if the expression contains a kind that can't be constant.
func Hash(t *ir.Tree, defines *ir.Defines, id ir.NodeID) int64 {
	h := &arrayHash{tree: t, defines: defines}
	h.visit(t.ActualValue(id, defines))
	return h.cur
}

// StringHash is the hash fed for string pieces.
func StringHash(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// FeedHash combines acc with val the same way Hash does.
func FeedHash(acc, val int64) int64 {
	return acc*HashMult + val
}

type arrayHash struct {
	unhandled[struct{}]

	tree    *ir.Tree
	defines *ir.Defines
	cur     int64
}

func (h *arrayHash) visit(id ir.NodeID) {
	visit[struct{}](h, h.tree, id)
}

func (h *arrayHash) actual(id ir.NodeID) ir.NodeID {
	return h.tree.ActualValue(id, h.defines)
}

func (h *arrayHash) feed(val int64) { h.cur = FeedHash(h.cur, val) }

func (h *arrayHash) feedString(s string) { h.feed(StringHash(s)) }

func (h *arrayHash) onTrivial(id ir.NodeID) (struct{}, bool) {
	n := h.tree.Node(id)
	s := n.Op.String()
	if n.HasString() {
		s += ":" + n.Str
	}
	h.feedString(s)
	return struct{}{}, true
}

func (h *arrayHash) onConv(id ir.NodeID) (struct{}, bool) {
	h.visit(h.tree.Arg(id, 0))
	return struct{}{}, true
}

func (h *arrayHash) onUnary(id ir.NodeID) (struct{}, bool) {
	h.feedString(h.tree.Op(id).String())
	h.visit(h.tree.Arg(id, 0))
	return struct{}{}, true
}

func (h *arrayHash) onDefineVal(id ir.NodeID) (struct{}, bool) {
	return h.derefOrFail(id)
}

func (h *arrayHash) onVar(id ir.NodeID) (struct{}, bool) {
	return h.derefOrFail(id)
}

func (h *arrayHash) derefOrFail(id ir.NodeID) (struct{}, bool) {
	val := h.actual(id)
	if val == id {
		// Nothing to dereference to.
		return struct{}{}, false
	}
	h.visit(val)
	return struct{}{}, true
}

func (h *arrayHash) onBinary(id ir.NodeID) (struct{}, bool) {
	h.visit(h.tree.Arg(id, 0))
	h.feedString(h.tree.Op(id).String())
	h.visit(h.tree.Arg(id, 1))
	return struct{}{}, true
}

func (h *arrayHash) onDoubleArrow(id ir.NodeID) (struct{}, bool) {
	h.visit(h.actual(h.tree.Arg(id, 0)))
	h.feedString("=>")
	h.visit(h.actual(h.tree.Arg(id, 1)))
	return struct{}{}, true
}

func (h *arrayHash) onArray(id ir.NodeID) (struct{}, bool) {
	elems := h.tree.Node(id).Args
	h.feed(int64(len(elems)))
	h.feed(ArrayOpenMagic)
	for _, elem := range elems {
		h.visit(h.actual(elem))
	}
	h.feed(ArrayCloseMagic)
	return struct{}{}, true
}

func (h *arrayHash) onNonConst(id ir.NodeID) struct{} {
	internalError("unsupported type for hashing: %s", h.tree.Op(id))
	return struct{}{}
}
