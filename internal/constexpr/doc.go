// Package constexpr decides whether an ir expression is known at
// compile time and manipulates such expressions.
//
// All behaviors share one traversal (see visit): a node is routed to
// a single hook based on its kind, and arrays are scanned with a
// common protocol that stops at the first element a hook rejects.
//
//	IsConst         base constness predicate
//	ConstChecker    constness with defines and string concatenation
//	Folder          rewrites a constant expression into literals
//	Hash            structural hash of a constant expression
//	Format          diagnostic rendering of an expression
//	Evaluate        reduces a folded expression to a constant.Value
//
// Hash and Format panic on input outside their domain: they are only
// meant to be called on expressions IsConst (or ConstChecker) accepted.
package constexpr
