// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Root command countdown starts the UI and a countdown.
//
// Without an argument, a saved session with seconds remaining is restored in a paused state,
// otherwise the configured default duration starts.
//
// Usage:
//
//	countdown --config /path/to/config [duration|preset_id]
package root

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codeactual/countdown/internal/cage/cli/handler"
	handler_cobra "github.com/codeactual/countdown/internal/cage/cli/handler/cobra"
	log_zap "github.com/codeactual/countdown/internal/cage/cli/handler/mixin/log/zap"
	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
	cage_exec "github.com/codeactual/countdown/internal/cage/os/exec"
	"github.com/codeactual/countdown/internal/countdown"
)

// Handler defines the sub-command flags and logic.
type Handler struct {
	handler.Session

	ConfigPath string

	Log *log_zap.Mixin
}

// Init defines the command, its environment variable prefix, etc.
//
// It implements cli/handler/cobra.Handler.
func (h *Handler) Init() handler_cobra.Init {
	h.Log = &log_zap.Mixin{}
	return handler_cobra.Init{
		Cmd: &cobra.Command{
			Use:   "countdown",
			Short: "Start a countdown",
			Args:  cobra.MaximumNArgs(1),
			Example: strings.Join([]string{
				"countdown --config /path/to/config",
				"countdown --config /path/to/config preset_id",
				"countdown 25m",
				"countdown 90",
			}, "\n"),
		},
		EnvPrefix: "COUNTDOWN",
		Mixins: []handler.Mixin{
			h.Log,
		},
	}
}

// BindFlags binds the flags to Handler fields.
//
// It implements cli/handler/cobra.Handler.
func (h *Handler) BindFlags(cmd *cobra.Command) []string {
	cmd.Flags().StringVarP(&h.ConfigPath, "config", "c", "", "viper-readable config file")
	return []string{"config"}
}

// Run performs the sub-command logic.
//
// It implements cli/handler/cobra.Handler.
func (h *Handler) Run(ctx context.Context, input handler.Input) {
	var arg string
	if len(input.Args) > 0 {
		arg = input.Args[0]
	}

	cfg, err := countdown.LoadConfig(h.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config file [%s]: %s\n", h.ConfigPath, err)
		os.Exit(1)
	}

	var saved countdown.Session
	if arg == "" && cfg.Data.Session.File != "" {
		var found bool
		saved, found, err = countdown.LoadSession(cfg.Data.Session.File)
		if err != nil {
			h.Log.Error("failed to load session, starting a new one", cage_zap.Tag("root"), zap.Error(err))
		} else if found && !saved.Resumable() {
			saved = countdown.Session{}
		}
	}

	var sel countdown.Selection
	if saved.Resumable() {
		sel = cfg.Resume(saved)
		h.Log.Info("resuming session", cage_zap.Tag("root"), zap.String("id", saved.Id), zap.Float64("remaining", saved.Remaining))
	} else {
		if sel, err = cfg.Select(arg); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
	}

	timer := countdown.NewTimer(h.Log.Logger)

	recorder := countdown.NewSessionRecorder(saved)
	recorder.SetSelection(sel)

	hook := countdown.NewEndHook(cage_exec.CommonExecutor{}, h.Log.Logger)
	hook.ResultCh = make(chan countdown.HookResult, 1)
	hook.Set(sel.Label, cfg.HookFor(sel.Preset))

	ui := countdown.NewUI(h.Log.Logger, timer, sel.Label, cfg.Preset)
	ui.Init()

	timer.SetListener(countdown.Listeners{
		ui,
		recorder,
		hook,
		countdown.LogListener{Log: h.Log.Logger, Label: sel.Label},
	})

	var reloadCh <-chan countdown.ConfigReload
	if h.ConfigPath != "" {
		cw := countdown.NewConfigWatcher(h.Log.Logger, h.ConfigPath)
		if err = cw.Start(); err != nil {
			h.Log.Error("failed to watch config file", cage_zap.Tag("root"), zap.Error(err))
		} else {
			defer cw.Close()
			reloadCh = cw.ReloadCh()
		}
	}

	sessionFile := cfg.Data.Session.File // fixed for the process lifetime, config reloads do not change it

	saveSession := func(s countdown.Session) {
		if sessionFile == "" || s.IsZero() {
			return
		}
		if saveErr := countdown.SaveSession(sessionFile, s); saveErr != nil {
			h.Log.Error("failed to save session", cage_zap.Tag("root"), zap.Error(saveErr))
		} else {
			h.Log.Debug("saved session", cage_zap.Tag("root"), zap.String("id", s.Id), zap.String("state", string(s.State)))
		}
	}

	shutdown := func() {
		ui.Stop()
	}

	done := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		for {
			select {
			case <-done:
				return
			case s := <-recorder.Sessions():
				saveSession(s)
			case r := <-hook.ResultCh:
				ui.SetHookResult(r)
			case p := <-ui.PresetCh():
				next := countdown.Selection{Label: p.Label, Seconds: p.GetSeconds(), Preset: &p}
				recorder.SetSelection(next)
				hook.Set(next.Label, cfg.HookFor(next.Preset))
				ui.SetLabel(next.Label)
				timer.Start(next.Seconds)
			case r := <-reloadCh:
				if r.Err != nil {
					continue // keep the last valid config, the error was logged
				}
				cfg = r.Config
				ui.SetPresets(cfg.Preset)
			case <-ui.ExitCh():
				shutdown()
			}
		}
	}()

	shutdownOnSignal := func(s os.Signal) {
		shutdown()
		fmt.Printf("Received signal (%v).\n", s) // after shutdown to allow tview to clean up the term
	}
	h.OnSignal(syscall.SIGTERM, shutdownOnSignal)
	h.OnSignal(syscall.SIGINT, shutdownOnSignal)

	// Begin after the UI event loop can accept redraws.
	go func() {
		if saved.Resumable() {
			countdown.RestoreSession(timer, saved)
			ui.SetLabel(sel.Label)
			return
		}
		timer.Start(sel.Seconds)
	}()

	err = ui.Start() // blocks on success due to tview's internal event loop

	close(done)
	<-loopDone

	// Save the remaining seconds as paused so the next run can resume them.
	timer.SetListener(recorder)
	timer.Pause()
	hook.Close()
	saveSession(recorder.Current())

	if err != nil {
		h.Log.Error("failed to start UI", zap.Error(err))
		os.Exit(1)
	}
}

// NewCommand returns a cobra command instance based on Handler.
func NewCommand() *cobra.Command {
	return handler_cobra.NewHandler(&Handler{
		Session: &handler.DefaultSession{},
	})
}

var _ handler_cobra.Handler = (*Handler)(nil)
