package phpfront

import (
	"sync"

	"github.com/ra2003/kphp/internal/ir"
)

// Registry holds the defines of every indexed file.
//
// Files are indexed first; after that Parse copies the defines a
// file uses but doesn't declare from the registry.
type Registry struct {
	mu      sync.Mutex
	tree    *ir.Tree
	defines *ir.Defines
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tree:    ir.NewTree(),
		defines: ir.NewDefines(),
	}
}

// Index records the declarations of a file.
// It is safe to call Index from several goroutines.
func (r *Registry) Index(filename string, src []byte, cfg Config) ([]Warning, error) {
	stmts, err := parse(filename, src, cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	l := newLowerer(filename, r.tree, r.defines)
	l.indexOnly = true
	l.lower(stmts)
	l.resolvePending()

	// Other warnings are reported when the file is parsed for real.
	var warnings []Warning
	for _, w := range l.warnings {
		if w.Check == "redefine" {
			warnings = append(warnings, w)
		}
	}
	return warnings, nil
}

// Has reports whether a define with the given name was indexed.
func (r *Registry) Has(defName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defines.Get(defName) != nil
}

// Len returns the number of indexed defines.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defines.Len()
}

func (r *Registry) importInto(t *ir.Tree, ds *ir.Defines, defName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.defines.Get(defName)
	if d == nil {
		return
	}
	ds.Add(&ir.Define{
		Name:  d.Name,
		Value: t.Import(r.tree, d.Value),
		Loc:   d.Loc,
	})
}
