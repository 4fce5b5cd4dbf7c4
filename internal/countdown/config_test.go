// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeactual/countdown/internal/cage/testkit"
	"github.com/codeactual/countdown/internal/countdown"
)

const fullConfig = `
Data:
  Session:
    File: state/session.gob
Global:
  Default: "10m"
  Hook:
    - Cmd: notify-send "time is up"
Preset:
  - Label: Short Break
    Duration: "5m"
  - Id: focus
    Label: Deep Work
    Duration: "1500"
    Hook:
      - Cmd: echo done | tee -a log.txt
        Timeout: 5s
        Env:
          - COUNTDOWN_HOOK=1
`

func writeConfig(t *testing.T, dir, content string) string {
	name := filepath.Join(dir, "countdown.yaml")
	testkit.FatalErrf(t, ioutil.WriteFile(name, []byte(content), 0600), "failed to write config [%s]", name)
	return name
}

func TestReadConfigFile(t *testing.T) {
	dir, cleanup := testkit.TempDir(t)
	defer cleanup()

	cfg, err := countdown.ReadConfigFile(writeConfig(t, dir, fullConfig))
	require.NoError(t, err)

	sessionFile := filepath.Join(dir, "state", "session.gob")
	require.Exactly(t, sessionFile, cfg.Data.Session.File)
	_, statErr := os.Stat(sessionFile)
	require.NoError(t, statErr)

	require.Exactly(t, float64(600), cfg.Global.GetDefaultSeconds())
	require.Len(t, cfg.Global.Hook, 1)
	require.Exactly(t, `notify-send "time is up"`, cfg.Global.Hook[0].Cmd)
	require.Exactly(t, dir, cfg.Global.Hook[0].Dir)
	require.Exactly(t, countdown.DefaultCmdTimeout, cfg.Global.Hook[0].Timeout)
	require.Exactly(t, time.Minute, cfg.Global.Hook[0].GetTimeout())

	require.Len(t, cfg.Preset, 2)

	require.Exactly(t, "short-break", cfg.Preset[0].Id)
	require.Exactly(t, "Short Break", cfg.Preset[0].Label)
	require.Exactly(t, float64(300), cfg.Preset[0].GetSeconds())
	require.Len(t, cfg.Preset[0].Hook, 0)

	focus := cfg.Preset[1]
	require.Exactly(t, "focus", focus.Id)
	require.Exactly(t, float64(1500), focus.GetSeconds())
	require.Len(t, focus.Hook, 1)
	require.Exactly(t, 5*time.Second, focus.Hook[0].GetTimeout())
	require.Exactly(t, []string{"COUNTDOWN_HOOK=1"}, focus.Hook[0].Env)

	require.Exactly(t, cfg.Global.Hook, cfg.HookFor(nil))
	require.Exactly(t, cfg.Global.Hook, cfg.HookFor(&cfg.Preset[0]))
	require.Exactly(t, focus.Hook, cfg.HookFor(&focus))
}

func TestReadConfigFileMissing(t *testing.T) {
	dir, cleanup := testkit.TempDir(t)
	defer cleanup()

	_, err := countdown.ReadConfigFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestFinalizeConfigDefaults(t *testing.T) {
	cfg := countdown.Config{}
	require.NoError(t, countdown.FinalizeConfig(&cfg))
	require.Exactly(t, countdown.DefaultDuration, cfg.Global.Default)
	require.Exactly(t, float64(1500), cfg.Global.GetDefaultSeconds())
}

func TestFinalizeConfigErrors(t *testing.T) {
	dir, cleanup := testkit.TempDir(t)
	defer cleanup()

	tooMany := make([]countdown.Preset, countdown.MaxPresets+1)
	for n := range tooMany {
		tooMany[n] = countdown.Preset{Label: strings.Repeat("p", n+1), Duration: "1"}
	}

	cases := map[string]struct {
		cfg      countdown.Config
		contains string
	}{
		"bad default": {
			cfg:      countdown.Config{Global: countdown.GlobalConfig{Default: "soon"}},
			contains: "Global.Default",
		},
		"zero default": {
			cfg:      countdown.Config{Global: countdown.GlobalConfig{Default: "0.4"}},
			contains: "at least 1 second",
		},
		"missing label": {
			cfg:      countdown.Config{Preset: []countdown.Preset{{Duration: "1m"}}},
			contains: "Label",
		},
		"duplicate label": {
			cfg: countdown.Config{Preset: []countdown.Preset{
				{Id: "a", Label: "Tea", Duration: "3m"},
				{Id: "b", Label: "Tea", Duration: "4m"},
			}},
			contains: "more than once",
		},
		"duplicate id": {
			cfg: countdown.Config{Preset: []countdown.Preset{
				{Label: "Tea Time", Duration: "3m"},
				{Id: "tea-time", Label: "Green Tea", Duration: "4m"},
			}},
			contains: "already used",
		},
		"bad duration": {
			cfg:      countdown.Config{Preset: []countdown.Preset{{Label: "Tea", Duration: "3 minutes"}}},
			contains: "failed to parse Duration",
		},
		"negative duration": {
			cfg:      countdown.Config{Preset: []countdown.Preset{{Label: "Tea", Duration: "-3"}}},
			contains: "at least 1 second",
		},
		"missing hook cmd": {
			cfg:      countdown.Config{Global: countdown.GlobalConfig{Hook: []countdown.Exec{{Cmd: " "}}}},
			contains: "Cmd",
		},
		"bad hook timeout": {
			cfg: countdown.Config{Preset: []countdown.Preset{
				{Label: "Tea", Duration: "3m", Hook: []countdown.Exec{{Cmd: "true", Timeout: "forever"}}},
			}},
			contains: "Timeout",
		},
		"missing hook dir": {
			cfg: countdown.Config{Global: countdown.GlobalConfig{
				Hook: []countdown.Exec{{Cmd: "true", Dir: filepath.Join(dir, "missing")}},
			}},
			contains: "does not exist",
		},
		"too many presets": {
			cfg:      countdown.Config{Preset: tooMany},
			contains: "maximum",
		},
	}

	for name, c := range cases {
		cfg := c.cfg
		err := countdown.FinalizeConfig(&cfg)
		require.Error(t, err, name)
		require.Contains(t, err.Error(), c.contains, name)
	}
}

func TestParseSeconds(t *testing.T) {
	valid := map[string]float64{
		"90":     90,
		" 90 ":   90,
		"4.4":    4,
		"4.5":    5,
		"-2":     -2,
		"0":      0,
		"1m30s":  90,
		"1h":     3600,
		"1500ms": 2,
	}
	for input, expected := range valid {
		actual, err := countdown.ParseSeconds(input)
		require.NoError(t, err, input)
		require.Exactly(t, expected, actual, input)
	}

	for _, input := range []string{"", "  ", "soon", "1x", "NaN!"} {
		_, err := countdown.ParseSeconds(input)
		require.Error(t, err, input)
	}
}

func TestSelect(t *testing.T) {
	cfg := countdown.Config{
		Global: countdown.GlobalConfig{Default: "2m"},
		Preset: []countdown.Preset{{Label: "Tea", Duration: "3m"}},
	}
	require.NoError(t, countdown.FinalizeConfig(&cfg))

	sel, err := cfg.Select("")
	require.NoError(t, err)
	require.Exactly(t, float64(120), sel.Seconds)
	require.Exactly(t, "02:00", sel.Label)
	require.Nil(t, sel.Preset)

	sel, err = cfg.Select("tea")
	require.NoError(t, err)
	require.Exactly(t, float64(180), sel.Seconds)
	require.Exactly(t, "Tea", sel.Label)
	require.NotNil(t, sel.Preset)
	require.Exactly(t, "tea", sel.Preset.Id)

	sel, err = cfg.Select("45")
	require.NoError(t, err)
	require.Exactly(t, float64(45), sel.Seconds)
	require.Exactly(t, "00:45", sel.Label)

	_, err = cfg.Select("coffee")
	require.Error(t, err)
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := countdown.LoadConfig("")
	require.NoError(t, err)
	require.Exactly(t, float64(1500), cfg.Global.GetDefaultSeconds())
	require.Len(t, cfg.Preset, 0)
}

func TestResume(t *testing.T) {
	cfg := countdown.Config{Preset: []countdown.Preset{{Label: "Tea", Duration: "3m"}}}
	require.NoError(t, countdown.FinalizeConfig(&cfg))

	sel := cfg.Resume(countdown.Session{Id: "a", Label: "Tea", PresetId: "tea", Starting: 180, Remaining: 20})
	require.Exactly(t, "Tea", sel.Label)
	require.Exactly(t, 180.0, sel.Seconds)
	require.NotNil(t, sel.Preset)
	require.Exactly(t, "tea", sel.Preset.Id)

	sel = cfg.Resume(countdown.Session{Id: "b", Label: "Coffee", PresetId: "coffee", Starting: 240})
	require.Exactly(t, "Coffee", sel.Label)
	require.Nil(t, sel.Preset)

	sel = cfg.Resume(countdown.Session{Id: "c", Starting: 90})
	require.Exactly(t, "01:30", sel.Label)
}
