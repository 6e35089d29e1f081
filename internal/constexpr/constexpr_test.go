package constexpr

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ra2003/kphp/internal/constant"
	"github.com/ra2003/kphp/internal/ir"
)

// dump renders the exact tree shape, used to compare fold results.
func dump(t *ir.Tree, id ir.NodeID) string {
	if !id.IsValid() {
		return "<none>"
	}
	n := t.Node(id)
	var sb strings.Builder
	sb.WriteString(n.Op.String())
	if n.HasString() {
		fmt.Fprintf(&sb, "%q", n.Str)
	}
	if len(n.Args) != 0 {
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = dump(t, a)
		}
		sb.WriteString("{" + strings.Join(parts, " ") + "}")
	}
	return sb.String()
}

func constVar(t *ir.Tree, name string, init ir.NodeID) *ir.Var {
	return &ir.Var{Name: name, Constant: true, Init: init}
}

func TestIsConst(t *testing.T) {
	tree := ir.NewTree()
	defines := ir.NewDefines()
	defines.Add(&ir.Define{Name: "FIVE", Value: tree.Int("5")})

	mutable := &ir.Var{Name: "$m", Init: tree.Int("1")}
	immutable := constVar(tree, "$c", tree.Int("2"))
	marked := &ir.Var{Name: "$k", Init: tree.Str("s")}
	markedRef := tree.VarRef(marked)
	tree.Node(markedRef).Extra = ir.ExtraVarConst

	tests := []struct {
		name      string
		expr      ir.NodeID
		base      bool
		withDefns bool
	}{
		{"int", tree.Int("5"), true, true},
		{"string", tree.Str("x"), true, true},
		{"true", tree.True(), true, false},
		{"null", tree.Null(), true, false},
		{"conv", tree.Unary(ir.OpConvInt, tree.Float("1.5")), true, true},
		{"unary", tree.Unary(ir.OpMinus, tree.Int("1")), true, true},
		{"binary", tree.Binary(ir.OpAdd, tree.Int("1"), tree.Int("2")), true, true},
		{"binary with const var", tree.Binary(ir.OpMul, tree.VarRef(immutable), tree.Int("2")), true, true},
		{"binary with mutable var", tree.Binary(ir.OpMul, tree.VarRef(mutable), tree.Int("2")), false, false},
		{"array", tree.Array(tree.Int("1"), tree.DoubleArrow(tree.Str("k"), tree.Int("3"))), true, true},
		{"array with call", tree.Array(tree.Int("1"), tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"})), false, false},
		{"const var", tree.VarRef(immutable), true, true},
		{"marked var", markedRef, true, true},
		{"mutable var", tree.VarRef(mutable), false, false},
		{"define", tree.FuncName("FIVE"), false, true},
		{"unknown define", tree.FuncName("SIX"), false, false},
		{"prop", tree.Add(ir.Node{Op: ir.OpInstanceProp, Str: "p", Args: []ir.NodeID{tree.VarRef(immutable)}}), false, false},
		{"concat", tree.Concat(tree.Str("a"), tree.Int("1"), tree.Str("b")), false, true},
		{"concat with bool", tree.Concat(tree.Str("a"), tree.True()), false, true},
		{"concat with var", tree.Concat(tree.Str("a"), tree.VarRef(mutable)), false, false},
		{"nested concat", tree.Concat(tree.Concat(tree.Null(), tree.Str("x")), tree.Int("1")), false, true},
		{"call", tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"}), false, false},
	}

	checker := ConstChecker{Defines: defines}
	for _, test := range tests {
		if have := IsConst(tree, test.expr); have != test.base {
			t.Errorf("%s: IsConst: have %v, want %v", test.name, have, test.base)
		}
		if have := checker.IsConst(tree, test.expr); have != test.withDefns {
			t.Errorf("%s: ConstChecker.IsConst: have %v, want %v", test.name, have, test.withDefns)
		}
	}
}

func TestConcatCounterIsBalanced(t *testing.T) {
	tree := ir.NewTree()
	checker := ConstChecker{}

	// The first concat fails in the middle of the scan.
	bad := tree.Concat(tree.Str("a"), tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"}))
	if checker.IsConst(tree, bad) {
		t.Fatalf("concat with a call is not constant")
	}
	// A bare bool must still be rejected afterwards.
	if checker.IsConst(tree, tree.True()) {
		t.Errorf("bare true accepted after a failed concat")
	}

	arr := tree.Array(tree.Concat(tree.Str("a"), tree.Int("1")), tree.False())
	if checker.IsConst(tree, arr) {
		t.Errorf("array element after a concat must be checked outside of it")
	}
}

func TestDefineCycle(t *testing.T) {
	tree := ir.NewTree()
	defines := ir.NewDefines()
	defines.Add(&ir.Define{Name: "A", Value: tree.Array(tree.FuncName("B"))})
	defines.Add(&ir.Define{Name: "B", Value: tree.Concat(tree.Str("x"), tree.FuncName("A"))})
	defines.Add(&ir.Define{Name: "C", Value: tree.Array(tree.FuncName("D"), tree.FuncName("D"))})
	defines.Add(&ir.Define{Name: "D", Value: tree.Int("1")})

	checker := ConstChecker{Defines: defines}
	if checker.IsConst(tree, tree.FuncName("A")) {
		t.Errorf("cyclic define accepted")
	}
	// Referring to the same define twice is not a cycle.
	if !checker.IsConst(tree, tree.FuncName("C")) {
		t.Errorf("repeated define rejected")
	}
}

func TestEvaluateDefineCycle(t *testing.T) {
	tree := ir.NewTree()
	defines := ir.NewDefines()
	defines.Add(&ir.Define{Name: "A", Value: tree.FuncName("A")})
	defines.Add(&ir.Define{Name: "B", Value: tree.Binary(ir.OpAdd, tree.FuncName("C"), tree.Int("1"))})
	defines.Add(&ir.Define{Name: "C", Value: tree.Unary(ir.OpMinus, tree.FuncName("B"))})
	defines.Add(&ir.Define{Name: "D", Value: tree.Binary(ir.OpAdd, tree.FuncName("E"), tree.FuncName("E"))})
	defines.Add(&ir.Define{Name: "E", Value: tree.Int("2")})

	tests := []struct {
		expr ir.NodeID
		want constant.Value
	}{
		{tree.FuncName("A"), constant.UnknownValue{}},
		{tree.Binary(ir.OpEq2, tree.FuncName("A"), tree.Int("1")), constant.UnknownValue{}},
		{tree.FuncName("B"), constant.UnknownValue{}},
		{tree.FuncName("D"), constant.IntValue(4)},
	}
	for _, test := range tests {
		if have := Evaluate(tree, defines, test.expr); have != test.want {
			t.Errorf("evaluate(%s): have %#v, want %#v", dump(tree, test.expr), have, test.want)
		}
	}
}

func TestVarCycle(t *testing.T) {
	tree := ir.NewTree()

	// $x = $x + 1;
	x := constVar(tree, "$x", ir.NoNode)
	x.Init = tree.Binary(ir.OpAdd, tree.VarRef(x), tree.Int("1"))

	// $a = $b; $b = $a;
	a := constVar(tree, "$a", ir.NoNode)
	b := constVar(tree, "$b", ir.NoNode)
	a.Init = tree.VarRef(b)
	b.Init = tree.VarRef(a)

	// $c = [$d, $d]; $d = 1;
	d := constVar(tree, "$d", tree.Int("1"))
	c := constVar(tree, "$c", tree.Array(tree.VarRef(d), tree.VarRef(d)))

	checker := ConstChecker{}
	for _, v := range []*ir.Var{x, a, b} {
		ref := tree.VarRef(v)
		if IsConst(tree, ref) || checker.IsConst(tree, ref) {
			t.Errorf("%s: cyclic variable accepted", v.Name)
		}
		if have := Evaluate(tree, nil, ref); have != (constant.UnknownValue{}) {
			t.Errorf("%s: evaluate: have %#v, want unknown", v.Name, have)
		}
		// Folding has to stop at the cycle.
		(&Folder{}).Fold(tree, ref)
	}
	if ref := tree.VarRef(a); tree.ActualValue(ref, nil) != ref {
		t.Errorf("ActualValue resolved a cyclic reference")
	}

	// A variable used twice is not a cycle.
	if !IsConst(tree, tree.VarRef(c)) {
		t.Errorf("$c: repeated variable rejected")
	}
}

func TestScenarioLiteral(t *testing.T) {
	tree := ir.NewTree()
	five := tree.Int("5")

	if !IsConst(tree, five) {
		t.Fatalf("5 is not constant")
	}
	f := &Folder{}
	if have := f.Fold(tree, five); have != five {
		t.Errorf("fold(5): have %s, want the same node", dump(tree, have))
	}
	s := Format(tree, nil, five)
	if !strings.Contains(s, "5") || !strings.Contains(s, "op_int_const") {
		t.Errorf("format(5): have %q", s)
	}
	if s != "5:op_int_const" {
		t.Errorf("format(5): have %q, want %q", s, "5:op_int_const")
	}
}

func TestScenarioArrayHash(t *testing.T) {
	tree := ir.NewTree()
	arr := tree.Array(tree.Int("1"), tree.DoubleArrow(tree.Str("k"), tree.Int("3")))
	if !IsConst(tree, arr) {
		t.Fatalf("array is not constant")
	}

	var want int64
	want = FeedHash(want, 2)
	want = FeedHash(want, ArrayOpenMagic)
	want = FeedHash(want, StringHash("op_int_const:1"))
	want = FeedHash(want, StringHash("op_string:k"))
	want = FeedHash(want, StringHash("=>"))
	want = FeedHash(want, StringHash("op_int_const:3"))
	want = FeedHash(want, ArrayCloseMagic)

	if have := Hash(tree, nil, arr); have != want {
		t.Errorf("hash mismatch:\nhave: %d\nwant: %d", have, want)
	}
}

func TestScenarioConcat(t *testing.T) {
	tree := ir.NewTree()
	concat := tree.Concat(tree.Str("a"), tree.Int("1"), tree.Str("b"))
	checker := ConstChecker{}
	if !checker.IsConst(tree, concat) {
		t.Fatalf("concat is not constant")
	}

	var errs ErrorList
	f := &Folder{Errors: &errs}
	res := f.Fold(tree, concat)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs.Err())
	}
	if have, want := dump(tree, res), `op_string"a1b"`; have != want {
		t.Errorf("fold: have %s, want %s", have, want)
	}
}

func TestScenarioNonConstVar(t *testing.T) {
	tree := ir.NewTree()
	v := &ir.Var{Name: "$x", Init: tree.Int("1")}
	ref := tree.VarRef(v)
	if IsConst(tree, ref) {
		t.Errorf("IsConst accepted a mutable variable")
	}
	if (ConstChecker{}).IsConst(tree, ref) {
		t.Errorf("ConstChecker accepted a mutable variable")
	}
}

func TestScenarioCastTransparency(t *testing.T) {
	tree := ir.NewTree()
	lit := tree.Float("3.7")
	conv := tree.Unary(ir.OpConvInt, lit)
	f := &Folder{}
	if have := f.Fold(tree, conv); have != lit {
		t.Errorf("fold((int)3.7): have %s, want the float literal", dump(tree, have))
	}
	if tree.Node(lit).Str != "3.7" {
		t.Errorf("literal payload changed to %q", tree.Node(lit).Str)
	}
}

func TestFold(t *testing.T) {
	tree := ir.NewTree()
	defines := ir.NewDefines()
	defines.Add(&ir.Define{Name: "PREFIX", Value: tree.Str("pre_")})
	defines.Add(&ir.Define{Name: "c#A$$B", Value: tree.Int("7")})

	init := tree.Binary(ir.OpAdd, tree.Int("1"), tree.Unary(ir.OpConvInt, tree.Int("2")))
	v := constVar(tree, "$v", init)
	initShape := dump(tree, init)

	tests := []struct {
		expr ir.NodeID
		want string
	}{
		{tree.Unary(ir.OpMinus, tree.Unary(ir.OpConvFloat, tree.Int("1"))), `op_minus{op_int_const"1"}`},
		{tree.Binary(ir.OpAdd, tree.Int("1"), tree.Unary(ir.OpConvInt, tree.Str("2"))), `op_add{op_int_const"1" op_string"2"}`},
		{tree.FuncName("PREFIX"), `op_string"pre_"`},
		{tree.FuncName(`\PREFIX`), `op_string"pre_"`},
		{tree.FuncName(`A::B`), `op_int_const"7"`},
		{tree.FuncName("MISSING"), `<none>`},
		{tree.Concat(tree.FuncName("PREFIX"), tree.Float("1.5")), `op_string"pre_1.5"`},
		{tree.Array(
			tree.Unary(ir.OpConvString, tree.Str("a")),
			tree.DoubleArrow(tree.Unary(ir.OpConvInt, tree.Int("1")), tree.Concat(tree.Str("x"), tree.Str("y"))),
		), `op_array{op_string"a" op_double_arrow{op_int_const"1" op_string"xy"}}`},
		{tree.VarRef(v), `op_add{op_int_const"1" op_int_const"2"}`},
		{tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"}), `<none>`},
	}

	for _, test := range tests {
		have := dump(tree, (&Folder{Defines: defines}).Fold(tree, test.expr))
		if have != test.want {
			t.Errorf("fold:\nhave: %s\nwant: %s", have, test.want)
		}
	}

	if have := dump(tree, init); have != initShape {
		t.Errorf("variable initializer was modified:\nhave: %s\nwant: %s", have, initShape)
	}
}

func TestFoldIdempotent(t *testing.T) {
	tree := ir.NewTree()
	exprs := []ir.NodeID{
		tree.Int("1"),
		tree.Binary(ir.OpSub, tree.Unary(ir.OpConvInt, tree.Int("1")), tree.Concat(tree.Str("a"), tree.Int("2"))),
		tree.Array(tree.Array(tree.Int("1")), tree.DoubleArrow(tree.Str("k"), tree.Concat(tree.Int("1"), tree.Int("2")))),
		tree.Concat(tree.Str("a"), tree.Concat(tree.Str("b"), tree.Int("1"))),
	}
	checker := ConstChecker{}
	f := &Folder{}
	for _, e := range exprs {
		if !checker.IsConst(tree, e) {
			t.Errorf("%s: not constant", dump(tree, e))
			continue
		}
		once := f.Fold(tree, e)
		if !once.IsValid() {
			t.Errorf("%s: folded to nothing", dump(tree, e))
			continue
		}
		first := dump(tree, once)
		twice := f.Fold(tree, once)
		if have := dump(tree, twice); have != first {
			t.Errorf("fold is not idempotent:\nonce:  %s\ntwice: %s", first, have)
		}
	}
}

func TestFoldConcatError(t *testing.T) {
	tree := ir.NewTree()
	concat := tree.Concat(tree.Str("a"), tree.True())
	tree.Node(concat).Loc = ir.Location{File: "a.php", Line: 3}

	var errs ErrorList
	res := (&Folder{Errors: &errs}).Fold(tree, concat)
	if res.IsValid() {
		t.Errorf("fold: have %s, want nothing", dump(tree, res))
	}
	if len(errs) != 1 {
		t.Fatalf("have %d errors, want 1", len(errs))
	}
	want := "a.php:3: expected type convertible to string, but got: op_true"
	if have := errs[0].Error(); have != want {
		t.Errorf("error text:\nhave: %s\nwant: %s", have, want)
	}

	defer func() {
		if _, ok := recover().(*CompileError); !ok {
			t.Errorf("nil sink must panic with *CompileError")
		}
	}()
	(&Folder{}).Fold(tree, tree.Concat(tree.Null()))
}

func TestHashProperties(t *testing.T) {
	tree := ir.NewTree()

	flat := tree.Array(tree.Int("1"), tree.Int("2"))
	nested := tree.Array(tree.Array(tree.Int("1"), tree.Int("2")))
	flatCopy := tree.Array(tree.Int("1"), tree.Int("2"))
	reversed := tree.Array(tree.Int("2"), tree.Int("1"))

	h := Hash(tree, nil, flat)
	if h != Hash(tree, nil, flat) {
		t.Errorf("hash is not stable")
	}
	if h != Hash(tree, nil, flatCopy) {
		t.Errorf("equal arrays hash differently")
	}
	if h == Hash(tree, nil, nested) {
		t.Errorf("[[1,2]] and [1,2] hash equal")
	}
	if h == Hash(tree, nil, reversed) {
		t.Errorf("[1,2] and [2,1] hash equal")
	}

	// A reference to a constant variable hashes as its value.
	v := constVar(tree, "$a", tree.Array(tree.Int("1"), tree.Int("2")))
	if h != Hash(tree, nil, tree.VarRef(v)) {
		t.Errorf("variable reference hashes differently from its value")
	}
	if h != Hash(tree, nil, tree.Array(tree.VarRef(constVar(tree, "$b", tree.Int("1"))), tree.Int("2"))) {
		t.Errorf("array element reference hashes differently from its value")
	}

	// Binary operand order matters.
	ab := tree.Binary(ir.OpSub, tree.Int("1"), tree.Int("2"))
	ba := tree.Binary(ir.OpSub, tree.Int("2"), tree.Int("1"))
	if Hash(tree, nil, ab) == Hash(tree, nil, ba) {
		t.Errorf("1-2 and 2-1 hash equal")
	}

	// Same payload, different kinds.
	if Hash(tree, nil, tree.Int("1")) == Hash(tree, nil, tree.Str("1")) {
		t.Errorf("int 1 and string 1 hash equal")
	}
}

func TestHashDefineVal(t *testing.T) {
	tree := ir.NewTree()
	defines := ir.NewDefines()
	defines.Add(&ir.Define{Name: "X", Value: tree.Str("x")})
	ref := tree.Add(ir.Node{Op: ir.OpDefineVal, Str: "X"})
	if Hash(tree, defines, ref) != Hash(tree, nil, tree.Str("x")) {
		t.Errorf("define reference hashes differently from its value")
	}
}

func TestHashPanics(t *testing.T) {
	tree := ir.NewTree()
	exprs := []ir.NodeID{
		tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"}),
		tree.VarRef(&ir.Var{Name: "$x"}),
		tree.Array(tree.Int("1"), tree.Add(ir.Node{Op: ir.OpSet})),
	}
	for _, e := range exprs {
		func() {
			defer func() {
				msg, _ := recover().(string)
				if !strings.Contains(msg, "unsupported type for hashing") {
					t.Errorf("%s: have panic %q", dump(tree, e), msg)
				}
			}()
			Hash(tree, nil, e)
		}()
	}
}

func TestFormat(t *testing.T) {
	tree := ir.NewTree()
	v := constVar(tree, "$c", tree.Int("3"))
	mutable := &ir.Var{Name: "$m"}

	tests := []struct {
		expr ir.NodeID
		want string
	}{
		{tree.Int("5"), "5:op_int_const"},
		{tree.Null(), "op_null"},
		{tree.Str(""), ":op_string"},
		{tree.Unary(ir.OpConvInt, tree.Float("1.5")), "1.5:op_float_const"},
		{tree.Unary(ir.OpMinus, tree.Int("1")), "1:op_int_const:op_minus"},
		{tree.Binary(ir.OpAdd, tree.Int("1"), tree.Int("2")), "(1:op_int_constop_add2:op_int_const)"},
		{tree.Array(tree.Int("1"), tree.DoubleArrow(tree.Str("k"), tree.Int("2"))), "1:op_int_const, k:op_string=>2:op_int_const"},
		{tree.Array(tree.VarRef(v)), "3:op_int_const"},
		{tree.VarRef(mutable), "$mop_var"},
		{tree.Add(ir.Node{Op: ir.OpInstanceProp, Str: "p", Args: []ir.NodeID{tree.VarRef(mutable)}}), "$mop_var->p"},
		{tree.FuncName("FOO"), "FOOop_func_name"},
		{tree.Concat(tree.Str("a"), tree.Int("1")), "(a:op_stringop_concat1:op_int_const)"},
	}
	for _, test := range tests {
		if have := Format(tree, nil, test.expr); have != test.want {
			t.Errorf("format(%s):\nhave: %s\nwant: %s", dump(tree, test.expr), have, test.want)
		}
	}

	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "unsupported type for formatting: op_set") {
			t.Errorf("have panic %q", msg)
		}
	}()
	Format(tree, nil, tree.Add(ir.Node{Op: ir.OpSet}))
}

func TestEvaluate(t *testing.T) {
	tree := ir.NewTree()
	defines := ir.NewDefines()
	defines.Add(&ir.Define{Name: "TEN", Value: tree.Int("10")})

	tests := []struct {
		expr ir.NodeID
		want constant.Value
	}{
		{tree.Int("0x10"), constant.IntValue(16)},
		{tree.Binary(ir.OpAdd, tree.Int("1"), tree.Int("2")), constant.IntValue(3)},
		{tree.Binary(ir.OpMul, tree.FuncName("TEN"), tree.Float("1.5")), constant.FloatValue(15)},
		{tree.Binary(ir.OpDiv, tree.Int("7"), tree.Int("2")), constant.FloatValue(3.5)},
		{tree.Binary(ir.OpDiv, tree.Int("1"), tree.Int("0")), constant.UnknownValue{}},
		{tree.Binary(ir.OpShl, tree.Int("1"), tree.Int("4")), constant.IntValue(16)},
		{tree.Binary(ir.OpPow, tree.Int("2"), tree.Int("10")), constant.IntValue(1024)},
		{tree.Unary(ir.OpConvInt, tree.Float("3.7")), constant.IntValue(3)},
		{tree.Unary(ir.OpConvInt, tree.Str(" 12abc")), constant.IntValue(12)},
		{tree.Unary(ir.OpConvBool, tree.Str("0")), constant.BoolValue(false)},
		{tree.Unary(ir.OpLogNot, tree.Null()), constant.BoolValue(true)},
		{tree.Unary(ir.OpNot, tree.Int("0")), constant.IntValue(-1)},
		{tree.Concat(tree.Str("a"), tree.Int("1"), tree.True()), constant.StringValue("a11")},
		{tree.Array(tree.Int("1")), constant.UnknownValue{}},
		{tree.Binary(ir.OpLess, tree.FuncName("TEN"), tree.Int("-5")), constant.BoolValue(false)},
		{tree.Binary(ir.OpEq3, tree.Str("a"), tree.Str("a")), constant.BoolValue(true)},
		{
			tree.Binary(ir.OpLogAnd,
				tree.Binary(ir.OpLess, tree.Int("10"), tree.Int("-5")),
				tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"})),
			constant.BoolValue(false),
		},
		{tree.Binary(ir.OpLogOr, tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"}), tree.False()), constant.UnknownValue{}},
		{tree.Binary(ir.OpNotEq2, tree.FuncName("TEN"), tree.Int("10")), constant.BoolValue(false)},
		{tree.Binary(ir.OpNotEq3, tree.Str("a"), tree.Str("b")), constant.BoolValue(true)},
		{tree.Binary(ir.OpLessEq, tree.Int("10"), tree.FuncName("TEN")), constant.BoolValue(true)},
		{tree.Binary(ir.OpLessEq, tree.Int("11"), tree.Int("10")), constant.BoolValue(false)},
		{tree.Binary(ir.OpGreaterEq, tree.Int("10"), tree.Int("10")), constant.BoolValue(true)},
		{tree.Binary(ir.OpGreaterEq, tree.Str("a"), tree.Str("b")), constant.BoolValue(false)},
		{tree.Binary(ir.OpLessEq, tree.Int("1"), tree.Str("1")), constant.UnknownValue{}},
		{tree.Binary(ir.OpNotEq3, tree.Add(ir.Node{Op: ir.OpFuncCall, Str: "f"}), tree.Int("1")), constant.UnknownValue{}},
	}
	for _, test := range tests {
		if have := Evaluate(tree, defines, test.expr); have != test.want {
			t.Errorf("evaluate(%s): have %#v, want %#v", dump(tree, test.expr), have, test.want)
		}
	}
}
