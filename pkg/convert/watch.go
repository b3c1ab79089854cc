package convert

import (
	"context"

	log "github.com/sirupsen/logrus"
	"gopkg.in/fsnotify.v1"
)

// Watch calls onChange every time a file selected by the loader is written,
// created, removed or renamed inside dir. It runs until ctx is cancelled.
// Errors returned by onChange are logged and watching continues.
func (l *Loader) Watch(ctx context.Context, dir string, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Infof("Watching %s for changes", dir)

	const mask = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&mask == 0 || !l.Matches(event.Name) {
				continue
			}

			log.Debugf("Change detected: %s", event)
			if err := onChange(); err != nil {
				log.Errorf("Conversion failed, keeping previous output: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("Watcher error: %v", err)
		}
	}
}
