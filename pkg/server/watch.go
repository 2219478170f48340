package server

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tmaxmax/go-sse"
)

// debounceWindow collapses editor write bursts (write + chmod, or
// temp-file + rename) into a single reload event.
const debounceWindow = 100 * time.Millisecond

// watch publishes a reload event over SSE when an html page in the
// override directory changes. Blocks until ctx is canceled.
func (s *Server) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.cfg.Dir, err)
	}

	var (
		timerC  <-chan time.Time
		changed string
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".html") {
				continue
			}
			changed = filepath.Base(ev.Name)
			timerC = time.After(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] pages watch: %v", err)

		case <-timerC:
			timerC = nil
			s.publishReload(changed)
		}
	}
}

// publishReload pushes one reload event carrying the changed file name.
func (s *Server) publishReload(name string) {
	msg := &sse.Message{Type: sse.Type("reload")}
	msg.AppendData(name)
	if err := s.sse.Publish(msg); err != nil {
		log.Printf("[WARN] publish reload for %s: %v", name, err)
	}
}
