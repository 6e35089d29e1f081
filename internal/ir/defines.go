package ir

import (
	"sort"
	"strings"
	"sync"
)

// Define is a named compile-time value.
type Define struct {
	Name  string
	Value NodeID
	Loc   Location
}

// Defines is the global define table.
//
// Lookups are safe for concurrent use; the bound value nodes are
// owned by whatever Tree registered them.
type Defines struct {
	mu     sync.RWMutex
	byName map[string]*Define
}

// NewDefines returns an empty table.
func NewDefines() *Defines {
	return &Defines{byName: map[string]*Define{}}
}

// Add registers d under its normalized name.
// It returns false if the name is already taken; the old binding is kept.
func (ds *Defines) Add(d *Define) bool {
	name := ResolveDefineName(d.Name)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if _, ok := ds.byName[name]; ok {
		return false
	}
	d.Name = name
	ds.byName[name] = d
	return true
}

// Get finds a define by its raw or normalized name.
func (ds *Defines) Get(name string) *Define {
	if ds == nil {
		return nil
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.byName[ResolveDefineName(name)]
}

// Len returns the number of registered defines.
func (ds *Defines) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.byName)
}

// All returns every define ordered by name.
func (ds *Defines) All() []*Define {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	list := make([]*Define, 0, len(ds.byName))
	for _, d := range ds.byName {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ResolveDefineName maps the text of a function-name token to a table key.
//
// A leading `\` is dropped. Class constants are keyed as
// `c#<class>$$<name>` with namespace separators replaced by `$`,
// both `A\B::C` and the lowered `A$B$$C` spelling are accepted.
func ResolveDefineName(name string) string {
	name = strings.TrimPrefix(name, `\`)
	if strings.HasPrefix(name, "c#") {
		return name
	}
	class, constName := "", ""
	if i := strings.Index(name, "::"); i != -1 {
		class, constName = name[:i], name[i+2:]
	} else if i := strings.Index(name, "$$"); i != -1 {
		class, constName = name[:i], name[i+2:]
	} else {
		return name
	}
	class = strings.TrimPrefix(class, `\`)
	class = strings.ReplaceAll(class, `\`, "$")
	return "c#" + class + "$$" + constName
}
