package main

import (
	"fmt"

	"github.com/ra2003/kphp/internal/constant"
	"github.com/ra2003/kphp/internal/constexpr"
	"github.com/ra2003/kphp/internal/constvars"
	"github.com/ra2003/kphp/internal/ir"
	"github.com/ra2003/kphp/internal/phpfront"
)

// Report is a single finding.
type Report struct {
	Loc   ir.Location
	Check string
	Msg   string
}

func (r *Report) String() string {
	return fmt.Sprintf("%s: %s: %s", r.Loc, r.Check, r.Msg)
}

// unitChecker reports what the constant evaluator derives for the
// entries of one lowered file.
type unitChecker struct {
	unit *phpfront.Unit

	checker constexpr.ConstChecker
	folder  *constexpr.Folder
	pool    *constvars.Pool
	errs    constexpr.ErrorList

	reports []*Report
}

func checkUnit(u *phpfront.Unit, dumpPool bool) []*Report {
	c := &unitChecker{
		unit:    u,
		checker: constexpr.ConstChecker{Defines: u.Defines},
		pool:    constvars.New(u.Tree, u.Defines),
	}
	c.folder = &constexpr.Folder{Defines: u.Defines, Errors: &c.errs}

	for _, w := range u.Warnings {
		c.report(w.Loc, w.Check, "%s", w.Msg)
	}
	constvars.PrefoldDefines(u.Tree, u.Defines, &c.errs)
	for _, e := range u.Entries {
		c.checkEntry(e)
	}

	// A define value is folded both on its own and where it is
	// declared, so the same error can show up twice.
	seen := map[string]bool{}
	for _, err := range append(c.errs, c.pool.Errors...) {
		// Imported defines are reported by the file that declares them.
		if err.Loc.File != u.File || seen[err.Error()] {
			continue
		}
		seen[err.Error()] = true
		c.report(err.Loc, "error", "%s", err.Msg)
	}
	if dumpPool {
		for _, v := range c.pool.Values() {
			c.report(u.Tree.Node(v.Var.Init).Loc, "pool", "%s = %s (%d uses)", v.Var.Name, v.Repr, v.Uses)
		}
	}
	return c.reports
}

func (c *unitChecker) report(loc ir.Location, check, format string, args ...interface{}) {
	c.reports = append(c.reports, &Report{
		Loc:   loc,
		Check: check,
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (c *unitChecker) checkEntry(e phpfront.Entry) {
	if e.Kind == phpfront.EntryCond {
		c.checkBadCond(e)
		return
	}

	t := c.unit.Tree
	if !c.checker.IsConst(t, e.Value) {
		return
	}
	nerrs := len(c.errs)
	folded := c.folder.Fold(t, t.Clone(e.Value))
	if len(c.errs) != nerrs || !folded.IsValid() {
		return
	}

	msg := entryLabel(e) + " = " + constexpr.Format(t, c.unit.Defines, folded)
	if v := constexpr.Evaluate(t, c.unit.Defines, e.Value); constant.IsKnown(v) {
		msg += " (" + constant.Describe(v) + ")"
	}
	if ref := c.pool.Extract(e.Value); ref != e.Value {
		msg += " as " + t.Node(ref).Str
	}
	c.report(e.Loc, "const", "%s", msg)
}

func (c *unitChecker) checkBadCond(e phpfront.Entry) {
	cv, ok := constexpr.Evaluate(c.unit.Tree, c.unit.Defines, e.Value).(constant.BoolValue)
	if !ok {
		return
	}
	if cv {
		c.report(e.Loc, "badCond", "always true condition")
	} else {
		c.report(e.Loc, "badCond", "always false condition")
	}
}

func entryLabel(e phpfront.Entry) string {
	if e.Name == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + " " + e.Name
}
