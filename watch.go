package main

import (
	"context"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDelay groups the events of one editor save into a single run.
const watchDelay = 200 * time.Millisecond

// watch re-runs the analysis whenever a PHP file under args changes.
func watch(ctx context.Context, a *analyzer, args []string, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range watchDirs(args) {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	runOnce := func() {
		files, err := collectFiles(args)
		if err != nil {
			log.Printf("watch: %v", err)
			return
		}
		reports, err := a.run(ctx, files)
		if err != nil {
			log.Printf("watch: %v", err)
			return
		}
		printReports(out, reports)
		log.Printf("checked %d files, waiting for changes", len(files))
	}
	runOnce()

	timer := time.NewTimer(watchDelay)
	timer.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.Add(ev.Name); err != nil {
						log.Printf("watch: %v", err)
					}
					continue
				}
			}
			if filepath.Ext(ev.Name) != ".php" {
				continue
			}
			timer.Reset(watchDelay)
		case <-timer.C:
			runOnce()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}

// watchDirs returns the directories to subscribe to.
// fsnotify is not recursive, so every subdirectory is listed.
func watchDirs(args []string) []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(arg))
			continue
		}
		_ = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				add(path)
			}
			return nil
		})
	}
	return dirs
}
