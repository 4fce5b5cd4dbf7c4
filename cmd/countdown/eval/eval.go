// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Sub-command eval prints the finalized configuration: the default duration, each preset, and the
// hooks which run when it ends. It provides a way to test a configuration file without starting
// a countdown.
//
// If an argument is provided, only the selection it resolves to is printed.
//
// Usage:
//
//	countdown eval --config /path/to/config [duration|preset_id]
package eval

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/codeactual/countdown/internal/cage/cli/handler"
	handler_cobra "github.com/codeactual/countdown/internal/cage/cli/handler/cobra"
	cage_time "github.com/codeactual/countdown/internal/cage/time"
	"github.com/codeactual/countdown/internal/countdown"
)

// Handler defines the sub-command flags and logic.
type Handler struct {
	handler.Session

	ConfigPath string
}

// Init defines the command, its environment variable prefix, etc.
//
// It implements cli/handler/cobra.Handler.
func (h *Handler) Init() handler_cobra.Init {
	return handler_cobra.Init{
		Cmd: &cobra.Command{
			Use:   "eval",
			Short: "Print the presets and hooks based on the configuration",
			Args:  cobra.MaximumNArgs(1),
			Example: strings.Join([]string{
				"countdown eval --config /path/to/config",
				"countdown eval --config /path/to/config preset_id",
			}, "\n"),
		},
		EnvPrefix: "COUNTDOWN",
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
	cfg, err := countdown.LoadConfig(h.ConfigPath)
	if err != nil {
		handler_cobra.Exit(errors.WithStack(err))
	}

	if len(input.Args) > 0 {
		sel, selectErr := cfg.Select(input.Args[0])
		if selectErr != nil {
			handler_cobra.Exit(errors.WithStack(selectErr))
		}
		PrintSelection(os.Stdout, cfg, sel)
		return
	}

	PrintConfig(os.Stdout, cfg)
}

// PrintConfig writes the default duration and every preset.
func PrintConfig(w io.Writer, cfg countdown.Config) {
	fmt.Fprintf(w, "Default: %s (%s)\n", countdown.Format(cfg.Global.GetDefaultSeconds()), cfg.Global.Default)
	if cfg.Data.Session.File != "" {
		fmt.Fprintf(w, "Session: %s\n", cfg.Data.Session.File)
	}
	printHooks(w, "\t", cfg.Global.Hook)

	if len(cfg.Preset) == 0 {
		fmt.Fprintln(w, "Presets: none")
		return
	}

	fmt.Fprintln(w, "Presets:")
	for n := range cfg.Preset {
		p := cfg.Preset[n]
		fmt.Fprintf(
			w, "\t%d) [%s] %s: %s (%s)\n",
			n+1, p.Id, p.Label, countdown.Format(p.GetSeconds()), cage_time.DurationLong(cage_time.Seconds(p.GetSeconds())),
		)
		printHooks(w, "\t\t", cfg.HookFor(&p))
	}
}

// PrintSelection writes the countdown which the command-line argument would start.
func PrintSelection(w io.Writer, cfg countdown.Config, sel countdown.Selection) {
	kind := "duration"
	if sel.Preset != nil {
		kind = "preset [" + sel.Preset.Id + "]"
	}
	fmt.Fprintf(
		w, "Selected %s: %s: %s (%s)\n",
		kind, sel.Label, countdown.Format(sel.Seconds), cage_time.DurationLong(cage_time.Seconds(sel.Seconds)),
	)
	printHooks(w, "\t", cfg.HookFor(sel.Preset))
}

func printHooks(w io.Writer, indent string, hooks []countdown.Exec) {
	if len(hooks) == 0 {
		fmt.Fprintf(w, "%sHooks: none\n", indent)
		return
	}
	fmt.Fprintf(w, "%sHooks:\n", indent)
	for _, e := range hooks {
		fmt.Fprintf(w, "%s\t- [%s] dir [%s] timeout [%s]\n", indent, e.Cmd, e.Dir, e.GetTimeout())
		for _, env := range e.Env {
			fmt.Fprintf(w, "%s\t\t%s\n", indent, env)
		}
	}
}

// NewCommand returns a cobra command instance based on Handler.
func NewCommand() *cobra.Command {
	return handler_cobra.NewHandler(&Handler{
		Session: &handler.DefaultSession{},
	})
}

var _ handler_cobra.Handler = (*Handler)(nil)
