package sessionlog

import (
	"context"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartWatcher reloads the store whenever the log file changes on disk, so
// the browse server picks up snapshots while the rig is still running.
// A slow polling loop runs alongside as a safety net: the rig replaces the
// file by rename, which some fsnotify backends report inconsistently.
func (s *Store) StartWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[SessionLog] fsnotify unavailable (%v), polling only", err)
		watcher = nil
	} else if err := watcher.Add(s.path); err != nil {
		log.Printf("[SessionLog] cannot watch %s (%v), polling only", s.path, err)
		watcher.Close()
		watcher = nil
	}

	if watcher != nil {
		go func() {
			defer watcher.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
						// Let the rename settle before reading.
						time.Sleep(100 * time.Millisecond)
						if err := s.Reload(); err != nil {
							log.Printf("[SessionLog] reload failed: %v", err)
						}
						// A rename drops the watch on some platforms; re-add.
						watcher.Add(s.path)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Printf("[SessionLog] watch error: %v", err)
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Reload(); err != nil {
					log.Printf("[SessionLog] poll reload failed: %v", err)
				}
			}
		}
	}()
}
