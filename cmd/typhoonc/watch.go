package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/typhoon/typhoon-go/codegen"
)

func newWatchCommand() *Command {
	watchCmd := &Command{
		Name:        "watch",
		Description: "Regenerate template code whenever annotated Go files change",
		FlagSet:     flag.NewFlagSet("watch", flag.ExitOnError),
	}

	suffix := watchCmd.FlagSet.String("suffix", codegen.DefaultSuffix, "Suffix of generated files")
	alias := watchCmd.FlagSet.String("alias", "typhoon", "Local name of the typhoon package in generated code")
	debounce := watchCmd.FlagSet.Duration("debounce", 100*time.Millisecond, "Quiet period before regenerating a changed file")

	watchCmd.Run = func() error {
		dirs := watchCmd.FlagSet.Args()
		if len(dirs) == 0 {
			dirs = []string{"."}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		w := &watcher{
			opts:     codegen.Options{Alias: *alias},
			suffix:   *suffix,
			debounce: *debounce,
			pending:  make(map[string]*time.Timer),
		}
		return w.run(ctx, dirs)
	}

	return watchCmd
}

type watcher struct {
	opts     codegen.Options
	suffix   string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func (w *watcher) run(ctx context.Context, dirs []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range dirs {
		if err := w.addTree(fsw, dir); err != nil {
			return err
		}
	}

	files, err := expandInputs(dirs, ".go")
	if err != nil {
		return err
	}
	if _, err := runGen(files, w.opts, w.suffix); err != nil {
		log.Printf("Initial generation failed: %v", err)
	}
	log.Printf("Watching %s for template changes", strings.Join(dirs, ", "))

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (w *watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func (w *watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				log.Printf("Warning: failed to watch %s: %v", event.Name, err)
			}
			return
		}
	}
	if !w.relevant(event) {
		return
	}
	w.schedule(event.Name)
}

func (w *watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := event.Name
	return strings.HasSuffix(name, ".go") && !codegen.IsGenerated(name, w.suffix)
}

// schedule regenerates path once no event for it has arrived for the
// debounce period.
func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.release(path, timer)

		if _, err := os.Stat(path); err != nil {
			return
		}
		out, err := codegen.ProcessFile(path, w.opts, w.suffix)
		switch {
		case err != nil:
			log.Printf("Generating %s failed: %v", path, err)
		case out != "":
			log.Printf("Regenerated %s", out)
		}
	})
	w.pending[path] = timer
}

// release forgets the pending timer for path if it is still t. A newer timer
// scheduled for the same path stays pending.
func (w *watcher) release(path string, t *time.Timer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[path] != t {
		return false
	}
	delete(w.pending, path)
	return true
}

func (w *watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
