// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

//go:generate mockery -all
package exec

import (
	"bytes"
	"context"
	"fmt"
	std_exec "os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Result describes one finished process of a pipeline.
type Result struct {
	Pid  int
	Code int
	Err  error
}

// PipelineResult indexes each process result by its command.
type PipelineResult struct {
	Cmd map[*std_exec.Cmd]Result
}

// Executor runs command pipelines. It supports os/exec.Cmd mocking for tests.
type Executor interface {
	// Buffered runs the commands as a "|" pipeline and returns the last command's standard
	// output and the combined standard error of all commands.
	Buffered(ctx context.Context, cmds ...*std_exec.Cmd) (stdout *bytes.Buffer, stderr *bytes.Buffer, res PipelineResult, err error)
}

// CommonExecutor runs pipelines with os/exec.
type CommonExecutor struct{}

// syncBuffer lets every process of a pipeline share one stderr buffer.
type syncBuffer struct {
	sync.Mutex
	b *bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.Lock()
	defer s.Unlock()
	return s.b.Write(p)
}

func (e CommonExecutor) Buffered(ctx context.Context, cmds ...*std_exec.Cmd) (stdout *bytes.Buffer, stderr *bytes.Buffer, res PipelineResult, err error) {
	stdout = &bytes.Buffer{}
	stderr = &bytes.Buffer{}
	res = PipelineResult{Cmd: make(map[*std_exec.Cmd]Result)}

	if len(cmds) == 0 {
		return stdout, stderr, res, nil
	}

	errBuf := &syncBuffer{b: stderr}
	last := len(cmds) - 1

	for n, cmd := range cmds {
		cmd.Stderr = errBuf
		if n == last {
			cmd.Stdout = stdout
		} else {
			pipe, pipeErr := cmd.StdoutPipe()
			if pipeErr != nil {
				return stdout, stderr, res, errors.Wrapf(pipeErr, "failed to connect pipeline stage [%s]", CmdToString(cmd))
			}
			cmds[n+1].Stdin = pipe
		}
	}

	for _, cmd := range cmds {
		if startErr := cmd.Start(); startErr != nil {
			res.Cmd[cmd] = Result{Code: -1, Err: startErr}
			return stdout, stderr, res, errors.Wrapf(startErr, "failed to start [%s]", CmdToString(cmd))
		}
	}

	for _, cmd := range cmds {
		waitErr := cmd.Wait()

		r := Result{Err: waitErr}
		if cmd.Process != nil {
			r.Pid = cmd.Process.Pid
		}
		if cmd.ProcessState != nil {
			r.Code = cmd.ProcessState.ExitCode()
		}
		res.Cmd[cmd] = r

		if waitErr != nil && err == nil {
			err = errors.Wrapf(waitErr, "failed to run [%s]", CmdToString(cmd))
		}
	}

	return stdout, stderr, res, err
}

// ArgToCmd returns one context-bound command per argument slice, e.g. from cage/shell.Parse.
func ArgToCmd(ctx context.Context, args ...[]string) (cmds []*std_exec.Cmd) {
	for _, a := range args {
		if len(a) == 0 {
			continue
		}
		cmds = append(cmds, std_exec.CommandContext(ctx, a[0], a[1:]...)) // #nosec G204
	}
	return cmds
}

// CmdToString returns the command's arguments joined by spaces, prefixed by its directory if set.
func CmdToString(cmd *std_exec.Cmd) string {
	s := strings.Join(cmd.Args, " ")
	if cmd.Dir != "" {
		return fmt.Sprintf("(%s) %s", cmd.Dir, s)
	}
	return s
}

var _ Executor = (*CommonExecutor)(nil)
