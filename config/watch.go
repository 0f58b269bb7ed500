package config

import (
	"github.com/fsnotify/fsnotify"
)

// Watch reports each time path changes on disk by invoking onChange with
// the freshly reloaded config. It runs until the returned fsnotify.Watcher
// is closed by the caller; reload failures are swallowed (Load never
// errors fatally) and onChange receives the built-in Default config.
func Watch(path string, onChange func(*ServerConfig)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, _ := Load(path)
			onChange(cfg)
		}
	}()

	return watcher, nil
}
