package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ra2003/kphp/internal/phpfront"
)

// analyzer runs the checks over a set of files.
//
// Every file is indexed before any of them is checked, so defines
// declared in one file are visible in all others.
type analyzer struct {
	cfg      phpfront.Config
	jobs     int
	dumpPool bool
}

func (a *analyzer) run(ctx context.Context, files []string) ([]*Report, error) {
	jobs := a.jobs
	if jobs < 1 {
		jobs = 1
	}

	reg := phpfront.NewRegistry()
	srcs := make([][]byte, len(files))
	perFile := make([][]*Report, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			srcs[i] = src
			warnings, err := reg.Index(filename, src, a.cfg)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			for _, w := range warnings {
				perFile[i] = append(perFile[i], &Report{Loc: w.Loc, Check: w.Check, Msg: w.Msg})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := phpfront.Parse(filename, srcs[i], a.cfg, reg)
			if err != nil {
				return err
			}
			// Redefinitions were reported while indexing.
			warnings := u.Warnings[:0]
			for _, w := range u.Warnings {
				if w.Check != "redefine" {
					warnings = append(warnings, w)
				}
			}
			u.Warnings = warnings
			perFile[i] = append(perFile[i], checkUnit(u, a.dumpPool)...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reports []*Report
	for _, list := range perFile {
		reports = append(reports, list...)
	}
	sortReports(reports)
	return reports, nil
}

func sortReports(reports []*Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		x, y := reports[i].Loc, reports[j].Loc
		if x.File != y.File {
			return x.File < y.File
		}
		return x.Line < y.Line
	})
}

// collectFiles expands directories into the PHP files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == ".php" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
