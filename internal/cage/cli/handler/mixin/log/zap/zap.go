// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package zap

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	std_zap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codeactual/countdown/internal/cage/cli/handler"
)

const (
	// DefaultLevel is the --log-level default.
	DefaultLevel = "info"

	FileFlag  = "log-file"
	LevelFlag = "log-level"
)

// Mixin adds --log-file and --log-level flags and provides the resulting logger.
//
// Without a --log-file value the logger discards all messages, so commands which own the
// terminal, e.g. with a full-screen UI, are not corrupted by log output.
type Mixin struct {
	*std_zap.Logger

	File  string
	Level string
}

func (m *Mixin) Name() string {
	return "log/zap"
}

func (m *Mixin) BindCobraFlags(cmd *cobra.Command) []string {
	cmd.Flags().StringVarP(&m.File, FileFlag, "", "", "write JSON log messages to this file")
	cmd.Flags().StringVarP(&m.Level, LevelFlag, "", DefaultLevel, "minimum level: debug, info, warn, error")
	return []string{FileFlag, LevelFlag}
}

func (m *Mixin) PreRun(ctx context.Context, input handler.Input) (err error) {
	m.Logger, err = NewLogger(m.File, m.Level)
	return errors.WithStack(err)
}

// NewLogger returns a JSON logger which writes to the file, or a no-op logger if the file is empty.
func NewLogger(file, level string) (*std_zap.Logger, error) {
	if file == "" {
		return std_zap.NewNop(), nil
	}

	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "failed to parse log level [%s]", level)
	}

	cfg := std_zap.NewProductionConfig()
	cfg.Level = std_zap.NewAtomicLevelAt(l)
	cfg.OutputPaths = []string{file}
	cfg.ErrorOutputPaths = []string{file}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build logger for file [%s]", file)
	}
	return logger, nil
}

var _ handler.Mixin = (*Mixin)(nil)
