package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/ra2003/kphp/internal/constant"
	"github.com/ra2003/kphp/internal/constexpr"
	"github.com/ra2003/kphp/internal/constvars"
	"github.com/ra2003/kphp/internal/phpfront"
)

const historyFile = ".kconst_history"

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	phpVersion := fs.String("php-version", phpfront.DefaultPHPVersion, "PHP language version")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg := phpfront.Config{PHPVersion: *phpVersion}
	if _, err := cfg.ParserVersion(); err != nil {
		log.Print(err)
		return 2
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("kconst repl: enter PHP statements, :quit to exit")
	s := phpfront.NewSession(cfg)
	for {
		line, err := ln.Prompt("php> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			log.Print(err)
			return 1
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return 0
		}
		ln.AppendHistory(line)

		evalLine(os.Stdout, s, line)
	}
}

// evalLine lowers one line and describes every entry it produced.
func evalLine(w io.Writer, s *phpfront.Session, line string) {
	entries, warnings, err := s.Eval(line)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	for _, warn := range warnings {
		fmt.Fprintln(w, warn)
	}

	var errs constexpr.ErrorList
	constvars.PrefoldDefines(s.Tree(), s.Defines(), &errs)
	for _, e := range entries {
		explain(w, s, e)
	}
}

func explain(w io.Writer, s *phpfront.Session, e phpfront.Entry) {
	t, defines := s.Tree(), s.Defines()
	isConst := constexpr.ConstChecker{Defines: defines}.IsConst(t, e.Value)

	fmt.Fprintf(w, "%s:\n", entryLabel(e))
	fmt.Fprintf(w, "  const:  %v\n", isConst)
	if v := constexpr.Evaluate(t, defines, e.Value); constant.IsKnown(v) {
		fmt.Fprintf(w, "  value:  %s\n", constant.Describe(v))
	}
	if !isConst {
		return
	}

	var errs constexpr.ErrorList
	f := &constexpr.Folder{Defines: defines, Errors: &errs}
	folded := f.Fold(t, t.Clone(e.Value))
	if err := errs.Err(); err != nil {
		fmt.Fprintf(w, "  error:  %v\n", err)
		return
	}
	if !folded.IsValid() {
		return
	}
	fmt.Fprintf(w, "  fold:   %s\n", t.Op(folded))
	fmt.Fprintf(w, "  format: %s\n", constexpr.Format(t, defines, folded))
	fmt.Fprintf(w, "  hash:   %#x\n", uint64(constexpr.Hash(t, defines, folded)))
}
