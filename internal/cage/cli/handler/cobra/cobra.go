// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cobra adapts handler.Session implementations to github.com/spf13/cobra commands.
//
// Flags returned by Handler.BindFlags, and by each mixin, can be overridden by environment variables
// named with the Init.EnvPrefix, e.g. prefix "APP" and flag "log-level" read APP_LOG_LEVEL.
// Flags passed on the command line take precedence.
package cobra

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	std_cobra "github.com/spf13/cobra"
	"github.com/spf13/pflag"
	std_viper "github.com/spf13/viper"

	"github.com/codeactual/countdown/internal/cage/cli/handler"
)

// Init describes the command created by NewHandler.
type Init struct {
	// Cmd defines the command's usage. Its Run/RunE fields are overwritten.
	Cmd *std_cobra.Command

	// EnvPrefix selects the environment variables which override flags.
	EnvPrefix string

	// Mixins add flags and setup logic to the command.
	Mixins []handler.Mixin
}

// Handler implementations define a command's flags and logic.
type Handler interface {
	handler.Session

	// Init defines the command, its environment variable prefix, etc.
	Init() Init

	// BindFlags binds the flags to Handler fields and returns the names of flags which
	// may be overridden by environment variables.
	BindFlags(cmd *std_cobra.Command) []string

	// Run performs the command logic.
	Run(ctx context.Context, input handler.Input)
}

// NewHandler returns a command which runs the handler after flags are parsed, environment
// overrides are applied, and mixins are set up.
func NewHandler(h Handler) *std_cobra.Command {
	def := h.Init()
	cmd := def.Cmd

	names := h.BindFlags(cmd)
	for _, m := range def.Mixins {
		names = append(names, m.BindCobraFlags(cmd)...)
	}

	cmd.RunE = func(cmd *std_cobra.Command, args []string) error {
		defer h.Close()

		if err := ApplyEnv(cmd.Flags(), def.EnvPrefix, names); err != nil {
			return errors.WithStack(err)
		}

		ctx := context.Background()
		input := handler.Input{Args: args}

		for _, m := range def.Mixins {
			if err := m.PreRun(ctx, input); err != nil {
				return errors.Wrapf(err, "failed to set up [%s]", m.Name())
			}
		}

		h.Run(ctx, input)
		return nil
	}

	return cmd
}

// ApplyEnv overwrites each named flag, unless it was passed on the command line, with the value
// of its environment variable.
func ApplyEnv(flags *pflag.FlagSet, prefix string, names []string) error {
	v := std_viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range names {
		f := flags.Lookup(name)
		if f == nil {
			return errors.Errorf("flag [%s] was not defined", name)
		}
		if f.Changed {
			continue
		}

		if err := v.BindEnv(name); err != nil {
			return errors.Wrapf(err, "failed to bind flag [%s] to environment", name)
		}
		if !v.IsSet(name) {
			continue
		}

		if err := flags.Set(name, v.GetString(name)); err != nil {
			return errors.Wrapf(err, "failed to set flag [%s] from environment variable [%s]", name, EnvName(prefix, name))
		}
	}

	return nil
}

// EnvName returns the environment variable which overrides the flag.
func EnvName(prefix, flag string) string {
	name := strings.ToUpper(strings.Replace(flag, "-", "_", -1))
	if prefix == "" {
		return name
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), name)
}

// Exit prints the error to standard error and exits with status 1.
func Exit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}
