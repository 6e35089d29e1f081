package constexpr

import (
	"fmt"

	"github.com/ra2003/kphp/internal/ir"
)

// CompileError is a user-facing error found while folding.
type CompileError struct {
	Loc ir.Location
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

// ErrorSink receives compile errors.
type ErrorSink interface {
	Report(err *CompileError)
}

// ErrorList is an ErrorSink that collects everything it gets.
type ErrorList []*CompileError

func (l *ErrorList) Report(err *CompileError) { *l = append(*l, err) }

// Err returns nil for an empty list.
func (l ErrorList) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	}
	return fmt.Errorf("%w (and %d more errors)", l[0], len(l)-1)
}

// internalError aborts on an invariant violation.
func internalError(format string, args ...interface{}) {
	panic(fmt.Sprintf("constexpr: "+format, args...))
}
