// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tp_runes "github.com/codeactual/countdown/internal/third_party/stackexchange/runes"

	"github.com/gdamore/tcell"
	"github.com/pkg/errors"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/countdown/internal/cage/log/zap"
	cage_time "github.com/codeactual/countdown/internal/cage/time"
)

const (
	// BodyBoxTopPad selects top-padding of ListItemWidget body areas.
	BodyBoxTopPad = 1

	// ListItemWidgetPad is the all-sides padding of every ListItemWidget.
	ListItemWidgetPad = 1
)

// Action is a keyboard command.
type Action int

const (
	ActionNone Action = iota

	// ActionToggle pauses a running countdown, otherwise resumes or restarts it.
	ActionToggle

	// ActionStop stops the countdown and restores its starting seconds.
	ActionStop

	// ActionRestart starts a new countdown from the starting seconds.
	ActionRestart

	// ActionPreset starts the preset selected by number key.
	ActionPreset

	// ActionExit shuts down the UI.
	ActionExit
)

// ParseKey maps a keyboard event to an Action.
//
// For ActionPreset, the 0-based preset index is also returned.
func ParseKey(event *tcell.EventKey) (Action, int) {
	if event.Key() == tcell.KeyCtrlC {
		return ActionExit, -1
	}
	if event.Key() != tcell.KeyRune {
		return ActionNone, -1
	}

	switch r := event.Rune(); r {
	case 'q':
		return ActionExit, -1
	case ' ':
		return ActionToggle, -1
	case 's':
		return ActionStop, -1
	case 'r':
		return ActionRestart, -1
	default:
		pos, err := tp_runes.ToInt(r)
		if err == nil && pos > 0 && pos <= MaxPresets {
			return ActionPreset, pos - 1
		}
	}
	return ActionNone, -1
}

// Toggle pauses a running countdown. Otherwise it resumes one with seconds remaining, e.g. after
// Pause or Stop, or restarts one which ended.
func Toggle(t *Timer) {
	switch {
	case t.IsActive():
		t.Pause()
	case t.Remaining() > 0:
		t.Resume()
	default:
		t.Start(t.Starting())
	}
}

// ListItemWidget is used to represent the clock, preset and hook areas.
type ListItemWidget struct {
	// Container is the flexible height/width box which bounds the Header and Body areas.
	Container *tview.Flex

	// Header areas are single-lined and display the countdown label/state, preset shortcuts,
	// and hook command.
	Header *tview.TextView

	// Body areas expand to use all space unused by the Header.
	Body *tview.TextView
}

// NewListItemWidget returns a widget initialized with its container, header, and body areas.
func NewListItemWidget() *ListItemWidget {
	w := &ListItemWidget{}
	w.Container = tview.NewFlex()
	w.Container.SetDirection(tview.FlexRow)
	w.Container.SetBorderPadding(ListItemWidgetPad, ListItemWidgetPad, ListItemWidgetPad, ListItemWidgetPad)

	w.Header = tview.NewTextView()
	w.Header.SetWrap(true)
	w.Header.SetDynamicColors(true)

	w.Body = tview.NewTextView()
	w.Body.SetWrap(true)
	w.Body.SetDynamicColors(true)
	w.Body.SetBorderPadding(BodyBoxTopPad, 0, 0, 0)

	w.Container.AddItem(w.Header, 1, 0, false) // fixed height of 1
	w.Container.AddItem(w.Body, 0, 1, false)   // flexible height

	return w
}

// UI displays the countdown, the selectable presets, and the result of the latest end hook.
//
// It implements Listener so a Timer can drive its rendering, and it responds to keyboard events
// by controlling the Timer.
type UI struct {
	// log receives debug/info-level messages.
	log *zap.Logger

	// timer is controlled by keyboard events.
	timer *Timer

	// app is the top-level node which contains all widgets displayed in the UI.
	app *tview.Application

	root *tview.Flex

	// clockWidget displays the label/state in its header and the remaining time in its body.
	clockWidget *ListItemWidget

	// presetWidget lists the presets and their number-key shortcuts.
	presetWidget *ListItemWidget

	// hookWidget displays the latest end hook result.
	hookWidget *ListItemWidget

	// exitCh lets UI communicate if Ctrl-C or 'q' was captured.
	exitCh chan struct{}

	// presetCh lets UI communicate a preset selection so the CLI can update hooks and the session
	// label before starting it.
	presetCh chan Preset

	// mu guards the fields below which are written by CLI goroutines and read during rendering.
	mu sync.Mutex

	label   string
	presets []Preset
	hook    *HookResult

	// stopped is true after Stop, when redraws can no longer be processed.
	stopped bool
}

// NewUI returns a UI instance which controls the timer.
func NewUI(log *zap.Logger, timer *Timer, label string, presets []Preset) *UI {
	if log == nil {
		log = zap.NewNop()
	}
	return &UI{
		log:      log,
		timer:    timer,
		label:    label,
		presets:  append([]Preset{}, presets...),
		exitCh:   make(chan struct{}, 1),
		presetCh: make(chan Preset, 1),
	}
}

// ExitCh provides external listeners to know when the UI is shutting down based on a keyboard event.
func (u *UI) ExitCh() <-chan struct{} {
	return u.exitCh
}

// PresetCh provides external listeners the presets selected by number key.
func (u *UI) PresetCh() <-chan Preset {
	return u.presetCh
}

// Init creates all the UI widgets.
func (u *UI) Init() {
	u.clockWidget = NewListItemWidget()
	u.clockWidget.Body.SetTextAlign(tview.AlignCenter)

	u.presetWidget = NewListItemWidget()
	u.hookWidget = NewListItemWidget()

	u.root = tview.NewFlex()
	u.root.SetDirection(tview.FlexRow)
	u.root.AddItem(u.clockWidget.Container, 0, 2, false)
	u.root.AddItem(u.presetWidget.Container, 0, 2, false)
	u.root.AddItem(u.hookWidget.Container, 0, 1, false)
	u.root.SetFullScreen(true)

	u.app = tview.NewApplication().SetInputCapture(u.InputCapture)
	u.app.SetRoot(u.root, true)
}

// Start renders the UI and blocks until it is stopped.
func (u *UI) Start() error {
	defer u.Stop() // ensure the terminal is cleaned up during panics (otherwise `reset` is needed)

	u.render()

	if err := u.app.Run(); err != nil { // blocks on success due to tview's internal event loop
		return errors.Wrapf(err, "failed to init UI")
	}

	return nil
}

// Stop ends UI rendering and keyboard event capturing.
//
// It must be called to prevent corrupting the terminal such that `reset` is required.
//
// It unblocks the goroutine which executes Start.
func (u *UI) Stop() {
	u.mu.Lock()
	u.stopped = true
	u.mu.Unlock()

	if u.app != nil {
		u.app.Stop()
	}
}

// SetPresets replaces the listed presets, e.g. after the config file changed.
func (u *UI) SetPresets(presets []Preset) {
	u.mu.Lock()
	u.presets = append([]Preset{}, presets...)
	u.mu.Unlock()

	u.log.Info("presets updated", cage_zap.Tag("ui"), zap.Int("len", len(presets)))
	u.render()
}

// SetLabel replaces the countdown label shown in the clock header.
func (u *UI) SetLabel(label string) {
	u.mu.Lock()
	u.label = label
	u.mu.Unlock()
	u.render()
}

// SetHookResult displays the result of an end hook command.
func (u *UI) SetHookResult(r HookResult) {
	u.mu.Lock()
	u.hook = &r
	u.mu.Unlock()
	u.render()
}

// render queues a redraw of every widget from the current timer and UI fields.
func (u *UI) render() {
	u.mu.Lock()
	stopped := u.stopped
	u.mu.Unlock()
	if u.app == nil || stopped {
		return
	}

	state := u.timer.State()
	remaining := u.timer.Remaining()
	starting := u.timer.Starting()

	u.mu.Lock()
	label := u.label
	presets := append([]Preset{}, u.presets...)
	var hook *HookResult
	if u.hook != nil {
		h := *u.hook
		hook = &h
	}
	u.mu.Unlock()

	u.app.QueueUpdateDraw(func() {
		u.log.Debug("render", cage_zap.Tag("ui"), zap.String("state", string(state)), zap.Float64("remaining", remaining))

		u.clockWidget.Header.SetText(fmt.Sprintf(
			"[green]%s[white] | [darkgray]%s of %s",
			tview.Escape(label), state, Format(starting),
		))
		u.clockWidget.Body.SetText(fmt.Sprintf("[%s]%s", stateColor(state), Format(remaining)))

		u.presetWidget.Header.SetText("[darkgray]space) pause/resume | s) stop | r) restart | q) quit")
		var lines []string
		for pos, p := range presets {
			lines = append(lines, fmt.Sprintf("[darkgray]%d)[white] %s [darkgray](%s)", pos+1, tview.Escape(p.Label), Format(p.seconds)))
		}
		u.presetWidget.Body.SetText(strings.Join(lines, "\n"))

		if hook == nil {
			u.hookWidget.Header.SetText("")
			u.hookWidget.Body.SetText("")
			return
		}

		status := "[green]passed"
		if hook.Err != nil {
			status = fmt.Sprintf("[red]failed (%d)", hook.Code)
		}
		var endTime string
		age := time.Since(hook.End)
		if age < time.Minute {
			endTime = "now"
		} else {
			endTime = cage_time.DurationShort(age) + " ago"
		}
		u.hookWidget.Header.SetText(fmt.Sprintf(
			"[darkgray]hook[white] %s %s[darkgray] after %s @ %s",
			tview.Escape(hook.Cmd), status, cage_time.DurationShort(hook.End.Sub(hook.Start)), endTime,
		))

		snip := hook.Stderr
		if snip == "" {
			snip = hook.Stdout
		}
		if snip == "" && hook.Err != nil {
			snip = hook.Err.Error()
		}
		u.hookWidget.Body.SetText(tview.Escape(snip))
		u.hookWidget.Body.ScrollToEnd()
	})
}

func stateColor(s State) string {
	switch s {
	case Running:
		return "white"
	case Paused:
		return "yellow"
	case Ended:
		return "red"
	}
	return "darkgray"
}

// InputCapture listens for keyboard events.
func (u *UI) InputCapture(event *tcell.EventKey) *tcell.EventKey {
	action, pos := ParseKey(event)

	switch action {
	case ActionExit:
		select {
		case u.exitCh <- struct{}{}:
		default:
		}
		return &tcell.EventKey{} // prevent tview from internally calling Stop on the app
	case ActionToggle:
		Toggle(u.timer)
	case ActionStop:
		u.timer.Stop()
	case ActionRestart:
		u.timer.Start(u.timer.Starting())
	case ActionPreset:
		u.mu.Lock()
		var p *Preset
		if pos < len(u.presets) {
			selected := u.presets[pos]
			p = &selected
		}
		u.mu.Unlock()

		if p != nil {
			u.log.Info("preset selected", cage_zap.Tag("ui"), zap.String("preset", p.Label))
			select {
			case u.presetCh <- *p:
			default:
				u.log.Warn("preset selection dropped", cage_zap.Tag("ui"), zap.String("preset", p.Label))
			}
		}
	}

	return event
}

func (u *UI) Started(t *Timer, seconds float64) { u.render() }
func (u *UI) Ticked(t *Timer, seconds float64)  { u.render() }
func (u *UI) Stopped(t *Timer, seconds float64) { u.render() }
func (u *UI) Paused(t *Timer, seconds float64)  { u.render() }
func (u *UI) Resumed(t *Timer, seconds float64) { u.render() }
func (u *UI) Ended(t *Timer)                    { u.render() }

var _ Listener = (*UI)(nil)
