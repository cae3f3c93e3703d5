// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// LIVE RELOAD
// =============================================================================

// Watch reloads the global configuration whenever the config file is
// written, invoking onReload with the fresh config. The watch runs on its
// own goroutine; the returned stop function tears it down.
//
// The parent directory is watched, not the file: editors that save via
// rename would otherwise detach the watch.
func Watch(onReload func(*Config)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(Dir()); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Base(Path())

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if cfg, err := ReloadGlobal(); err == nil && onReload != nil {
					onReload(cfg)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watch errors are not actionable mid-session; the config
				// simply stops live-reloading.
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
