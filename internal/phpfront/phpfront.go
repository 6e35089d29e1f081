// Package phpfront turns PHP sources into ir trees.
//
// Only what matters for constant evaluation is modeled: define()
// calls, const declarations, class constants, variable assignments,
// expression statements and branch conditions. Everything else
// either lowers to an opaque node or is skipped.
package phpfront

import (
	"bytes"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/z7zmey/php-parser/node"
	"github.com/z7zmey/php-parser/php7"

	"github.com/ra2003/kphp/internal/ir"
)

// DefaultPHPVersion is used when Config.PHPVersion is empty.
const DefaultPHPVersion = "7.4"

var supportedVersions = mustConstraint(">= 7.0, < 8.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Config controls parsing.
type Config struct {
	// PHPVersion selects the language dialect, like "7.4" or "7.2.1".
	PHPVersion string
}

// ParserVersion validates the configured version and returns it in
// the major.minor form the parser expects.
func (c Config) ParserVersion() (string, error) {
	s := c.PHPVersion
	if s == "" {
		s = DefaultPHPVersion
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return "", fmt.Errorf("bad PHP version %q: %w", s, err)
	}
	if !supportedVersions.Check(v) {
		return "", fmt.Errorf("PHP version %s is not supported (want %s)", v, supportedVersions)
	}
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor()), nil
}

// EntryKind tells where an Entry came from.
type EntryKind int

const (
	EntryExpr EntryKind = iota
	EntryDefine
	EntryConst
	EntryClassConst
	EntryVar

	// EntryCond is the condition of an if, a loop or a switch case.
	EntryCond
)

func (k EntryKind) String() string {
	switch k {
	case EntryDefine:
		return "define"
	case EntryConst:
		return "const"
	case EntryClassConst:
		return "class const"
	case EntryVar:
		return "var"
	case EntryCond:
		return "cond"
	default:
		return "expr"
	}
}

// Entry is a top-level expression of interest.
type Entry struct {
	Kind EntryKind

	// Name is the declared name; empty for EntryExpr.
	Name string

	Value ir.NodeID
	Loc   ir.Location
}

// Warning is a problem found in the source that doesn't prevent lowering.
type Warning struct {
	Loc   ir.Location
	Check string
	Msg   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Loc, w.Check, w.Msg)
}

// Unit is a lowered PHP file.
type Unit struct {
	File     string
	Tree     *ir.Tree
	Defines  *ir.Defines
	Vars     map[string]*ir.Var
	Entries  []Entry
	Warnings []Warning
}

func parse(filename string, src []byte, cfg Config) ([]node.Node, error) {
	version, err := cfg.ParserVersion()
	if err != nil {
		return nil, err
	}
	p := php7.NewParser(src, version)
	p.Parse()
	if errs := p.GetErrors(); len(errs) != 0 {
		var buf bytes.Buffer
		for i, e := range errs {
			if i != 0 {
				buf.WriteString("; ")
			}
			fmt.Fprintf(&buf, "%v", e)
		}
		return nil, fmt.Errorf("parse %s: %s", filename, buf.String())
	}
	var root node.Node = p.GetRootNode()
	r, ok := root.(*node.Root)
	if !ok || r == nil {
		return nil, fmt.Errorf("parse %s: no root node", filename)
	}
	return r.Stmts, nil
}

// Parse lowers a PHP file.
//
// Defines not declared in the file are looked up in reg (which may
// be nil) and copied into the unit's tree.
func Parse(filename string, src []byte, cfg Config, reg *Registry) (*Unit, error) {
	stmts, err := parse(filename, src, cfg)
	if err != nil {
		return nil, err
	}
	l := newLowerer(filename, ir.NewTree(), ir.NewDefines())
	l.registry = reg
	l.countWrites(stmts)
	l.lower(stmts)
	l.resolvePending()
	l.importDefines()

	return &Unit{
		File:     filename,
		Tree:     l.tree,
		Defines:  l.defines,
		Vars:     l.vars,
		Entries:  l.entries,
		Warnings: l.warnings,
	}, nil
}
