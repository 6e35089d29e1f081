package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/ra2003/kphp/internal/phpfront"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("kconst: ")

	if len(os.Args) > 1 && os.Args[1] == "repl" {
		os.Exit(cmdRepl(os.Args[2:]))
	}
	os.Exit(cmdCheck(os.Args[1:]))
}

func cmdCheck(args []string) int {
	fs := flag.NewFlagSet("kconst", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: kconst [flags] files or dirs...\n       kconst repl [flags]\n\n")
		fs.PrintDefaults()
	}
	phpVersion := fs.String("php-version", phpfront.DefaultPHPVersion, "PHP language version of the sources")
	jobs := fs.Int("j", runtime.NumCPU(), "number of files processed concurrently")
	watchMode := fs.Bool("watch", false, "re-check files when they change")
	dumpPool := fs.Bool("dump-pool", false, "report the generated constant variables")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := phpfront.Config{PHPVersion: *phpVersion}
	if _, err := cfg.ParserVersion(); err != nil {
		log.Print(err)
		return 2
	}
	a := &analyzer{cfg: cfg, jobs: *jobs, dumpPool: *dumpPool}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *watchMode {
		if err := watch(ctx, a, fs.Args(), os.Stdout); err != nil {
			log.Print(err)
			return 1
		}
		return 0
	}

	files, err := collectFiles(fs.Args())
	if err != nil {
		log.Print(err)
		return 2
	}
	reports, err := a.run(ctx, files)
	if err != nil {
		log.Print(err)
		return 2
	}
	printReports(os.Stdout, reports)
	for _, r := range reports {
		if r.Check == "error" {
			return 1
		}
	}
	return 0
}

func printReports(w io.Writer, reports []*Report) {
	for _, r := range reports {
		fmt.Fprintln(w, r)
	}
}
