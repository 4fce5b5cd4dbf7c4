// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
	"github.com/codeactual/countdown/internal/cage/os/file/watcher"
)

// ReloadDebounce is how long to wait for config file activity to stop before reading it.
const ReloadDebounce = 250 * time.Millisecond

// ConfigReload is the result of re-reading the config file after activity.
type ConfigReload struct {
	Config Config
	Err    error
}

// ConfigWatcher re-reads a config file when it changes.
//
// The file's directory is watched, instead of the file, so replacements by editors which write
// a temporary file and rename it are detected.
type ConfigWatcher struct {
	// Log receives debug/info-level messages.
	Log *zap.Logger

	// Watcher detects the file activity. It defaults to a watcher.Fsnotify.
	Watcher watcher.Watcher

	// Debounce defaults to ReloadDebounce.
	Debounce time.Duration

	name     string
	reloadCh chan ConfigReload
}

// NewConfigWatcher returns a watcher for the named config file. Start begins watching.
func NewConfigWatcher(log *zap.Logger, name string) *ConfigWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConfigWatcher{
		Log:      log,
		Debounce: ReloadDebounce,
		name:     name,
		reloadCh: make(chan ConfigReload, 1),
	}
}

// ReloadCh receives the result of each re-read. Only the latest unreceived result is kept.
func (c *ConfigWatcher) ReloadCh() <-chan ConfigReload {
	return c.reloadCh
}

// Start begins watching the config file's directory.
func (c *ConfigWatcher) Start() error {
	abs, err := filepath.Abs(c.name)
	if err != nil {
		return errors.Wrapf(err, "failed to get absolute path of config file [%s]", c.name)
	}
	c.name = abs

	if c.Watcher == nil {
		c.Watcher = new(watcher.Fsnotify)
	}
	c.Watcher.Debounce(c.Debounce)

	sub := watcher.SubscriberFuncs{
		OnEvent: c.event,
		OnError: func(err error) {
			c.Log.Error("config watcher error", cage_zap.Tag("reload"), zap.Error(err))
		},
	}
	if err = c.Watcher.AddSubscriber(sub); err != nil {
		return errors.Wrap(err, "failed to subscribe to config file activity")
	}
	if err = c.Watcher.AddPath(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "failed to watch config file [%s]", abs)
	}

	c.Log.Info("watching config file", cage_zap.Tag("reload"), zap.String("path", abs))

	return nil
}

// Close ends watching.
func (c *ConfigWatcher) Close() error {
	if c.Watcher == nil {
		return nil
	}
	return errors.WithStack(c.Watcher.Close())
}

func (c *ConfigWatcher) event(e watcher.Event) {
	if e.Path != c.name {
		return
	}
	if e.Op == watcher.Remove || e.Op == watcher.Rename {
		// A replacement is expected to follow with a Create event.
		c.Log.Debug("config file moved", cage_zap.Tag("reload"), zap.String("op", e.Op.String()))
		return
	}

	cfg, err := ReadConfigFile(c.name)
	if err != nil {
		c.Log.Error("failed to reload config file", cage_zap.Tag("reload"), zap.Error(err))
	} else {
		c.Log.Info("reloaded config file", cage_zap.Tag("reload"), zap.Int("presets", len(cfg.Preset)))
	}

	r := ConfigReload{Config: cfg, Err: err}
	select {
	case <-c.reloadCh:
	default:
	}
	select {
	case c.reloadCh <- r:
	default:
	}
}
