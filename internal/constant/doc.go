// Package constant implements PHP operations over constant values
// of builtin types.
//
// It is used to compute the value of an already folded constant
// expression, for reports and for the REPL.
//
// Special type UnknownValue expresses a value that can't be
// resolved, it is still a valid argument to every operation.
//
// Note that operations are implemented in conservative way.
// Some operations may return UnknownValue more often than
// they should.
package constant
