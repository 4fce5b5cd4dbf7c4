// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Sub-command run counts down without the UI, prints each event, and runs the end hooks before
// exiting. SIGINT and SIGTERM pause the countdown, save the session if configured, and exit with
// status 130 so a later invocation without an argument resumes it.
//
// Usage:
//
//	countdown run --config /path/to/config [duration|preset_id]
package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sync/errgroup"

	"github.com/codeactual/countdown/internal/cage/cli/handler"
	handler_cobra "github.com/codeactual/countdown/internal/cage/cli/handler/cobra"
	log_zap "github.com/codeactual/countdown/internal/cage/cli/handler/mixin/log/zap"
	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
	cage_exec "github.com/codeactual/countdown/internal/cage/os/exec"
	cage_time "github.com/codeactual/countdown/internal/cage/time"
	"github.com/codeactual/countdown/internal/countdown"
)

// ExitInterrupted is the exit status after a signal paused the countdown.
const ExitInterrupted = 130

var errInterrupted = errors.New("interrupted")

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
			Use:   "run",
			Short: "Count down without the UI",
			Args:  cobra.MaximumNArgs(1),
			Example: strings.Join([]string{
				"countdown run --config /path/to/config preset_id",
				"countdown run 1m30s",
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

	err := h.run(ctx, arg)
	if errors.Cause(err) == errInterrupted {
		os.Exit(ExitInterrupted)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

// Printer is a Listener which writes one line per event.
//
// On a terminal, ticks rewrite the current line. Otherwise only whole minutes and the last
// tick are written, to keep logs short.
type Printer struct {
	Out   io.Writer
	Label string
	TTY   bool
}

func (p Printer) line(format string, v ...interface{}) {
	prefix := ""
	if p.TTY {
		prefix = "\r\033[K"
	}
	fmt.Fprintf(p.Out, prefix+format+"\n", v...)
}

func (p Printer) Started(t *countdown.Timer, seconds float64) {
	p.line("%s: started %s (%s)", p.Label, countdown.Format(seconds), cage_time.DurationLong(cage_time.Seconds(seconds)))
}

func (p Printer) Ticked(t *countdown.Timer, seconds float64) {
	if p.TTY {
		fmt.Fprintf(p.Out, "\r\033[K%s: %s", p.Label, countdown.Format(seconds))
		return
	}
	if int64(seconds)%60 == 0 {
		p.line("%s: %s remaining", p.Label, countdown.Format(seconds))
	}
}

func (p Printer) Stopped(t *countdown.Timer, seconds float64) {
	p.line("%s: stopped at %s", p.Label, countdown.Format(seconds))
}

func (p Printer) Paused(t *countdown.Timer, seconds float64) {
	p.line("%s: paused at %s", p.Label, countdown.Format(seconds))
}

func (p Printer) Resumed(t *countdown.Timer, seconds float64) {
	p.line("%s: resumed at %s", p.Label, countdown.Format(seconds))
}

func (p Printer) Ended(t *countdown.Timer) {
	p.line("%s: ended after %s", p.Label, cage_time.DurationShort(cage_time.Seconds(t.Starting())))
}

func (h *Handler) run(ctx context.Context, arg string) error {
	log := cage_zap.Tagged(h.Log.Logger, "run")

	cfg, err := countdown.LoadConfig(h.ConfigPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file [%s]", h.ConfigPath)
	}
	sessionFile := cfg.Data.Session.File

	var saved countdown.Session
	if arg == "" && sessionFile != "" {
		var found bool
		saved, found, err = countdown.LoadSession(sessionFile)
		if err != nil {
			log.Error("failed to load session, starting a new one", zap.Error(err))
			saved = countdown.Session{}
		} else if found && !saved.Resumable() {
			saved = countdown.Session{}
		}
	}

	var sel countdown.Selection
	if saved.Resumable() {
		sel = cfg.Resume(saved)
	} else if sel, err = cfg.Select(arg); err != nil {
		return errors.WithStack(err)
	}

	timer := countdown.NewTimer(h.Log.Logger)

	recorder := countdown.NewSessionRecorder(saved)
	recorder.SetSelection(sel)

	hook := countdown.NewEndHook(cage_exec.CommonExecutor{}, h.Log.Logger)
	hook.ResultCh = make(chan countdown.HookResult)
	hook.Set(sel.Label, cfg.HookFor(sel.Preset))

	endedCh := make(chan struct{}, 1)

	timer.SetListener(countdown.Listeners{
		Printer{Out: os.Stdout, Label: sel.Label, TTY: terminal.IsTerminal(int(os.Stdout.Fd()))},
		recorder,
		hook,
		countdown.LogListener{Log: h.Log.Logger, Label: sel.Label},
		countdown.ListenerFuncs{
			OnEnded: func(*countdown.Timer) {
				select {
				case endedCh <- struct{}{}:
				default:
				}
			},
		},
	})

	sigCh := make(chan os.Signal, 1)
	onSignal := func(s os.Signal) {
		select {
		case sigCh <- s:
		default:
		}
	}
	h.OnSignal(syscall.SIGTERM, onSignal)
	h.OnSignal(syscall.SIGINT, onSignal)

	saveSession := func(s countdown.Session) {
		if sessionFile == "" || s.IsZero() {
			return
		}
		if saveErr := countdown.SaveSession(sessionFile, s); saveErr != nil {
			log.Error("failed to save session", zap.Error(saveErr))
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	countdownDone := make(chan struct{})

	// countdown: wait for the end and its hooks, or a signal
	g.Go(func() error {
		defer close(countdownDone)

		select {
		case <-endedCh:
			hook.Wait()
			return nil
		case sig := <-sigCh:
			timer.Pause()
			hook.Close()
			fmt.Printf("Received signal (%v).\n", sig)
			return errInterrupted
		case <-gCtx.Done():
			timer.Pause()
			hook.Close()
			return gCtx.Err()
		}
	})

	// session: persist the latest snapshot
	g.Go(func() error {
		for {
			select {
			case s := <-recorder.Sessions():
				saveSession(s)
			case <-countdownDone:
				saveSession(recorder.Current())
				return nil
			}
		}
	})

	// hook results: report each command
	g.Go(func() error {
		for {
			select {
			case r := <-hook.ResultCh:
				if r.Err == nil {
					fmt.Printf("%s: hook [%s] passed\n", r.Label, r.Cmd)
					if r.Stdout != "" {
						fmt.Print(r.Stdout)
					}
				} else {
					fmt.Fprintf(os.Stderr, "%s: hook [%s] failed (%d): %s\n", r.Label, r.Cmd, r.Code, r.Err)
					if r.Stderr != "" {
						fmt.Fprint(os.Stderr, r.Stderr)
					}
				}
			case <-countdownDone:
				return nil
			}
		}
	})

	if saved.Resumable() {
		countdown.RestoreSession(timer, saved)
		timer.Resume()
	} else {
		timer.Start(sel.Seconds)
	}

	return g.Wait()
}

// NewCommand returns a cobra command instance based on Handler.
func NewCommand() *cobra.Command {
	return handler_cobra.NewHandler(&Handler{
		Session: &handler.DefaultSession{},
	})
}

var _ handler_cobra.Handler = (*Handler)(nil)
var _ countdown.Listener = Printer{}
