// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
	cage_exec "github.com/codeactual/countdown/internal/cage/os/exec"
	cage_shell "github.com/codeactual/countdown/internal/cage/shell"
)

// HookResult describes one finished end-hook command.
type HookResult struct {
	// Cmd is a copy of Exec.Cmd.
	Cmd string

	// Label is the countdown label at the time it ended.
	Label string

	Stdout string
	Stderr string

	// Code is the exit code of the last failed pipeline process, or 0.
	Code int

	Err error

	Start time.Time
	End   time.Time
}

// EndHook is a Listener which runs commands when a countdown ends.
//
// Commands run sequentially in their own goroutine so notification delivery is not blocked.
// A failed command does not prevent the rest from running.
type EndHook struct {
	// Executor supports os/exec.Cmd mocking for tests.
	Executor cage_exec.Executor

	// Log receives info-level messages about each command.
	Log *zap.Logger

	// ResultCh, if non-nil, receives one HookResult per command. Sends block until received or Close.
	ResultCh chan HookResult

	mu    sync.Mutex
	exec  []Exec
	label string
	wg    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEndHook returns a hook runner whose commands are canceled by Close.
func NewEndHook(executor cage_exec.Executor, log *zap.Logger) *EndHook {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &EndHook{
		Executor: executor,
		Log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Set replaces the commands, and the label reported in results, for later countdown ends.
func (h *EndHook) Set(label string, exec []Exec) {
	h.mu.Lock()
	h.label = label
	h.exec = append([]Exec{}, exec...)
	h.mu.Unlock()
}

// Wait blocks until all started commands have finished.
func (h *EndHook) Wait() {
	h.wg.Wait()
}

// Close cancels running commands and waits for them to exit.
func (h *EndHook) Close() {
	h.cancel()
	h.wg.Wait()
}

// Run executes the commands in order and returns one result per command.
func (h *EndHook) Run(ctx context.Context, label string, exec []Exec) (results []HookResult) {
	for _, e := range exec {
		if ctx.Err() != nil {
			break
		}
		results = append(results, h.runOne(ctx, label, e))
	}
	return results
}

func (h *EndHook) runOne(ctx context.Context, label string, e Exec) (r HookResult) {
	r = HookResult{Cmd: e.Cmd, Label: label, Start: time.Now()}
	defer func() {
		r.End = time.Now()
	}()

	args, err := cage_shell.Parse(e.Cmd)
	if err != nil {
		r.Err = errors.WithStack(err)
		r.Code = -1
		return r
	}
	if len(args) == 0 {
		r.Err = errors.Errorf("hook [%s] contains no command", e.Cmd)
		r.Code = -1
		return r
	}

	timeout := e.GetTimeout()
	if timeout <= 0 {
		timeout, _ = time.ParseDuration(DefaultCmdTimeout)
	}
	cmdCtx, cmdCancel := context.WithTimeout(ctx, timeout)
	defer cmdCancel()

	cmds := cage_exec.ArgToCmd(cmdCtx, args...)
	for _, cmd := range cmds {
		cmd.Env = append(os.Environ(), e.Env...)
		cmd.Dir = e.Dir
	}

	stdout, stderr, res, err := h.Executor.Buffered(cmdCtx, cmds...)
	if stdout != nil {
		r.Stdout = stdout.String()
	}
	if stderr != nil {
		r.Stderr = stderr.String()
	}
	if err != nil {
		r.Err = errors.WithStack(err)
		for _, cmd := range cmds {
			if c, ok := res.Cmd[cmd]; ok && c.Err != nil {
				r.Code = c.Code
			}
		}
		if r.Code == 0 {
			r.Code = -1
		}
	}
	return r
}

func (h *EndHook) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *EndHook) Ended(t *Timer) {
	h.mu.Lock()
	exec := append([]Exec{}, h.exec...)
	label := h.label
	h.mu.Unlock()

	if len(exec) == 0 {
		return
	}

	ctx := h.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		for _, e := range exec {
			if ctx.Err() != nil {
				return
			}

			r := h.runOne(ctx, label, e)
			if r.Err == nil {
				h.log().Info("hook passed", cage_zap.Tag("hook"), zap.String("cmd", r.Cmd), zap.Duration("elapsed", r.End.Sub(r.Start)))
			} else {
				h.log().Error(
					"hook failed",
					cage_zap.Tag("hook"), zap.String("cmd", r.Cmd), zap.Int("code", r.Code), zap.Error(r.Err), zap.String("stderr", r.Stderr),
				)
			}
			if h.ResultCh != nil {
				select {
				case h.ResultCh <- r:
				case <-ctx.Done():
				}
			}
		}
	}()
}

func (h *EndHook) Started(t *Timer, seconds float64) {}
func (h *EndHook) Ticked(t *Timer, seconds float64)  {}
func (h *EndHook) Stopped(t *Timer, seconds float64) {}
func (h *EndHook) Paused(t *Timer, seconds float64)  {}
func (h *EndHook) Resumed(t *Timer, seconds float64) {}

var _ Listener = (*EndHook)(nil)
