// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	std_viper "github.com/spf13/viper"

	cage_viper "github.com/codeactual/countdown/internal/cage/config/viper"
	cage_file "github.com/codeactual/countdown/internal/cage/os/file"
)

const (
	// DefaultCmdTimeout is the default Exec.Timeout value.
	DefaultCmdTimeout = "1m"

	// DefaultDuration is the default Global.Default value.
	DefaultDuration = "25m"

	// MaxPresets is how many presets can be selected by number key in the UI.
	MaxPresets = 9

	// dataDirPerm is the default permissions granted for new directories.
	dataDirPerm = 0700

	// dataFilePerm is the default permissions granted for new files.
	dataFilePerm = 0600
)

// Exec defines a command to run when a countdown ends.
type Exec struct {
	// Cmd holds a single command or multiple commands in a "|" pipeline.
	Cmd string

	// Dir is the working directory. It defaults to the config file's directory.
	Dir string

	// Timeout is a time.Duration compatible string that defines how long to wait before
	// cancelling the command.
	Timeout string

	// Env holds "KEY=VALUE" pairs to overwrite in the current environment.
	Env []string

	// timeout is the parsed version of Timeout.
	timeout time.Duration
}

// GetTimeout returns the parsed value of Timeout.
func (e Exec) GetTimeout() time.Duration {
	return e.timeout
}

// Preset is a named countdown duration.
type Preset struct {
	// Id selects the preset from the command line. It defaults to the lowercase Label
	// with spaces replaced by "-".
	Id string

	// Label is displayed to users.
	//
	// It is a required field.
	Label string

	// Duration is either a number of seconds, e.g. "90" or "4.5", or a time.Duration
	// compatible string, e.g. "1m30s".
	Duration string

	// Hook holds commands to run, instead of Global.Hook, when the countdown ends.
	Hook []Exec

	// seconds is the parsed version of Duration.
	seconds float64
}

// GetSeconds returns the parsed and rounded value of Duration.
func (p Preset) GetSeconds() float64 {
	return p.seconds
}

// SessionConfig defines how to store sessions.
//
// Its config section is Data.Session.
type SessionConfig struct {
	File string
}

// DataConfig defines how to store program state.
//
// Its config section is Data.
type DataConfig struct {
	// Session defines how to store sessions.
	Session SessionConfig
}

// GlobalConfig defines properties which apply to all presets.
type GlobalConfig struct {
	// Default is the duration used when no duration or preset is selected.
	Default string

	// Hook holds commands to run when a countdown ends, unless its preset defines its own.
	Hook []Exec

	// defaultSeconds is the parsed version of Default.
	defaultSeconds float64
}

// GetDefaultSeconds returns the parsed value of Default.
func (c GlobalConfig) GetDefaultSeconds() float64 {
	return c.defaultSeconds
}

// Config defines the structure of a config file.
type Config struct {
	// Data defines how to store program state.
	Data DataConfig

	// Global defines defaults which apply to all presets.
	Global GlobalConfig

	// Preset defines the named durations.
	Preset []Preset

	// dir is the directory of the config file, if one was read.
	dir string
}

// FindPreset returns the preset with the Id, or false if none matches.
func (c Config) FindPreset(id string) (Preset, bool) {
	for _, p := range c.Preset {
		if p.Id == id {
			return p, true
		}
	}
	return Preset{}, false
}

// HookFor returns the commands to run when the preset's countdown ends.
func (c Config) HookFor(p *Preset) []Exec {
	if p != nil && len(p.Hook) > 0 {
		return append([]Exec{}, p.Hook...)
	}
	return append([]Exec{}, c.Global.Hook...)
}

// Selection is a resolved command-line countdown choice.
type Selection struct {
	// Label describes the countdown, e.g. the preset label or the formatted duration.
	Label string

	// Seconds is the rounded duration.
	Seconds float64

	// Preset is non-nil if the selection named a preset.
	Preset *Preset
}

// Select resolves a command-line argument as a preset Id, then as a duration.
// An empty argument selects Global.Default.
func (c Config) Select(arg string) (Selection, error) {
	if arg == "" {
		return Selection{Label: Format(c.Global.defaultSeconds), Seconds: c.Global.defaultSeconds}, nil
	}
	if p, ok := c.FindPreset(arg); ok {
		return Selection{Label: p.Label, Seconds: p.seconds, Preset: &p}, nil
	}
	seconds, err := ParseSeconds(arg)
	if err != nil {
		return Selection{}, errors.Wrapf(err, "argument [%s] is neither a preset Id nor a duration", arg)
	}
	return Selection{Label: Format(seconds), Seconds: seconds}, nil
}

// Resume returns the selection which describes a saved session. Its preset is included if the
// config still defines one with the same Id.
func (c Config) Resume(s Session) Selection {
	sel := Selection{Label: s.Label, Seconds: s.Starting}
	if s.PresetId != "" {
		if p, ok := c.FindPreset(s.PresetId); ok {
			sel.Preset = &p
		}
	}
	if sel.Label == "" {
		sel.Label = Format(s.Starting)
	}
	return sel
}

// ParseSeconds converts a number of seconds, e.g. "90" or "4.6", or a time.Duration compatible
// string, e.g. "1m30s", to whole seconds.
func ParseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("duration is empty")
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Normalize(f), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse duration [%s]", s)
	}
	return Normalize(d.Seconds()), nil
}

// LoadConfig reads the named file. If the name is empty, it returns the default config.
func LoadConfig(name string) (Config, error) {
	if name == "" {
		var c Config
		if err := FinalizeConfig(&c); err != nil {
			return Config{}, errors.WithStack(err)
		}
		return c, nil
	}
	return ReadConfigFile(name)
}

// ReadConfigFile converts a file to a Config value.
func ReadConfigFile(name string) (c Config, err error) {
	file := std_viper.New()
	if err = cage_viper.ReadInConfig(file, name); err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config file [%s]", name)
	}

	// Struct field names match the file's key names, so no mapstructure tags are needed.
	if err = file.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrapf(err, "failed to unmarshal config from file [%s]", name)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to get absolute path of config file [%s]", name)
	}
	c.dir = filepath.Dir(abs)

	if err = FinalizeConfig(&c); err != nil {
		return Config{}, errors.WithStack(err)
	}

	return c, nil
}

// FinalizeConfig validates and finalizes Config fields.
func FinalizeConfig(c *Config) error {
	// Validate the session file path early, vs. the first write after a countdown event, by ensuring
	// the path is writable and intermediate directories exist.
	if c.Data.Session.File != "" {
		if !filepath.IsAbs(c.Data.Session.File) && c.dir != "" {
			c.Data.Session.File = filepath.Join(c.dir, c.Data.Session.File)
		}
		f, err := cage_file.CreateFileAll(c.Data.Session.File, 0, dataFilePerm, dataDirPerm)
		if err != nil {
			return errors.Wrapf(err, "failed to init session file [%s]", c.Data.Session.File)
		}
		if err = f.Close(); err != nil {
			return errors.Wrapf(err, "failed to close session file [%s]", c.Data.Session.File)
		}
	}

	if c.Global.Default == "" {
		c.Global.Default = DefaultDuration
	}
	var defaultErr error
	c.Global.defaultSeconds, defaultErr = ParseSeconds(c.Global.Default)
	if defaultErr != nil {
		return errors.Wrapf(defaultErr, "failed to parse Global.Default [%s]", c.Global.Default)
	}
	if c.Global.defaultSeconds <= 0 {
		return errors.Errorf("Global.Default [%s] must be at least 1 second", c.Global.Default)
	}

	if err := finalizeExec(c.Global.Hook, c.dir, "global"); err != nil {
		return errors.WithStack(err)
	}

	if len(c.Preset) > MaxPresets {
		return errors.Errorf("config has [%d] presets, the maximum is [%d]", len(c.Preset), MaxPresets)
	}

	uniqueId := map[string]string{} // map Preset.Id to Preset.Label
	uniqueLabel := map[string]bool{}

	for n := range c.Preset {
		p := &c.Preset[n]

		if p.Label == "" {
			return errors.New("preset is missing a [Label] field")
		}
		if uniqueLabel[p.Label] {
			return errors.Errorf("preset label [%s] was used more than once", p.Label)
		}
		uniqueLabel[p.Label] = true

		if p.Id == "" {
			p.Id = strings.ToLower(strings.Join(strings.Fields(p.Label), "-"))
		}
		if preexisting, dupe := uniqueId[p.Id]; dupe {
			return errors.Errorf("preset [%s] has an Id [%s] that is already used by preset [%s]", p.Label, p.Id, preexisting)
		}
		uniqueId[p.Id] = p.Label

		var parseErr error
		p.seconds, parseErr = ParseSeconds(p.Duration)
		if parseErr != nil {
			return errors.Wrapf(parseErr, "[preset: %s]: failed to parse Duration [%s]", p.Label, p.Duration)
		}
		if p.seconds <= 0 {
			return errors.Errorf("[preset: %s]: Duration [%s] must be at least 1 second", p.Label, p.Duration)
		}

		if err := finalizeExec(p.Hook, c.dir, "preset: "+p.Label); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// finalizeExec applies Exec defaults in place and validates each command.
func finalizeExec(execs []Exec, dir, owner string) error {
	for n := range execs {
		e := &execs[n]

		if strings.TrimSpace(e.Cmd) == "" {
			return errors.Errorf("[%s]: hook is missing a [Cmd] field", owner)
		}

		if e.Dir == "" {
			e.Dir = dir
		} else if !filepath.IsAbs(e.Dir) && dir != "" {
			e.Dir = filepath.Join(dir, e.Dir)
		}
		if e.Dir != "" {
			exists, fi, existsErr := cage_file.Exists(e.Dir)
			if existsErr != nil {
				return errors.Wrapf(existsErr, "[%s]: failed to verify hook dir [%s] exists", owner, e.Dir)
			}
			if !exists {
				return errors.Errorf("[%s]: hook dir [%s] does not exist", owner, e.Dir)
			}
			if !fi.IsDir() {
				return errors.Errorf("[%s]: hook dir [%s] is not a directory", owner, e.Dir)
			}
		}

		if e.Timeout == "" {
			e.Timeout = DefaultCmdTimeout
		}
		var timeoutErr error
		e.timeout, timeoutErr = time.ParseDuration(e.Timeout)
		if timeoutErr != nil {
			return errors.Wrapf(timeoutErr, "[%s]: failed to parse hook [%s] Timeout [%s]", owner, e.Cmd, e.Timeout)
		}
	}
	return nil
}
