package phpfront

import (
	"strings"

	"github.com/ra2003/kphp/internal/ir"
)

// Session lowers a sequence of snippets into one tree, so later
// snippets see the defines and variables of earlier ones.
type Session struct {
	cfg Config
	l   *lowerer
}

// NewSession returns an empty session.
func NewSession(cfg Config) *Session {
	return &Session{
		cfg: cfg,
		l:   newLowerer("<repl>", ir.NewTree(), ir.NewDefines()),
	}
}

func (s *Session) Tree() *ir.Tree       { return s.l.tree }
func (s *Session) Defines() *ir.Defines { return s.l.defines }

// Eval lowers one snippet of PHP statements, the opening tag and the
// trailing semicolon are optional.
func (s *Session) Eval(src string) ([]Entry, []Warning, error) {
	code := strings.TrimSpace(src)
	if !strings.HasPrefix(code, "<?php") {
		code = "<?php " + code
	}
	if !strings.HasSuffix(code, ";") && !strings.HasSuffix(code, "}") {
		code += ";"
	}
	stmts, err := parse(s.l.file, []byte(code), s.cfg)
	if err != nil {
		return nil, nil, err
	}

	s.l.entries = nil
	s.l.warnings = nil
	s.l.countWrites(stmts)
	s.l.lower(stmts)
	s.l.resolvePending()
	return s.l.entries, s.l.warnings, nil
}
