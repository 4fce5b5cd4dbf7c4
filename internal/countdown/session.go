// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package countdown

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	cage_gob "github.com/codeactual/countdown/internal/cage/encoding/gob"
	cage_file "github.com/codeactual/countdown/internal/cage/os/file"
)

// Session is a snapshot of a countdown which survives process restarts.
type Session struct {
	// Version is SessionVersion at the time of encoding.
	Version int

	// Id is unique to each started countdown.
	Id string

	// Label describes the countdown, e.g. a preset label.
	Label string

	// PresetId is empty if the countdown did not come from a preset.
	PresetId string

	Starting  float64
	Remaining float64
	State     State

	SavedAt time.Time
}

// IsZero reports whether the session was never started.
func (s Session) IsZero() bool {
	return s.Id == ""
}

// Resumable reports whether the session can continue, i.e. it was started and has seconds remaining.
func (s Session) Resumable() bool {
	return !s.IsZero() && s.State != Ended && s.Remaining > 0
}

// NewSessionId returns a sortable unique ID.
func NewSessionId() string {
	return ksuid.New().String()
}

// SaveSession writes the session to the file, replacing any previous content.
func SaveSession(name string, s Session) error {
	s.Version = SessionVersion
	if err := cage_gob.EncodeToFile(name, s); err != nil {
		return errors.Wrapf(err, "failed to save session [%s]", s.Id)
	}
	return nil
}

// LoadSession reads a session from the file.
//
// It returns false if the file does not exist or is empty.
func LoadSession(name string) (s Session, found bool, err error) {
	exists, fi, err := cage_file.Exists(name)
	if err != nil {
		return Session{}, false, errors.WithStack(err)
	}
	if !exists || fi.Size() == 0 {
		return Session{}, false, nil
	}

	if err = cage_gob.DecodeFromFile(name, &s); err != nil {
		return Session{}, false, errors.Wrap(err, "failed to load session")
	}
	if s.Version != SessionVersion {
		return Session{}, false, errors.Errorf(
			"session file [%s] has version [%d], expected [%d]", name, s.Version, SessionVersion,
		)
	}
	return s, true, nil
}

// RestoreSession loads the session's counters into the timer.
//
// A session which was running when saved is restored as paused. One which ended is restored
// as idle with its starting seconds kept, so Stop and restart reuse them.
func RestoreSession(t *Timer, s Session) {
	remaining := s.Remaining
	if s.State == Ended {
		remaining = 0
	}
	t.Restore(s.Starting, remaining)
}

// SessionRecorder is a Listener which publishes a Session snapshot after every notification.
//
// Only the latest snapshot is kept: a snapshot which was not yet received is replaced by the next.
type SessionRecorder struct {
	mu      sync.Mutex
	current Session
	ch      chan Session
	now     func() time.Time
}

// NewSessionRecorder returns a recorder whose snapshots begin from the restored session, if any.
func NewSessionRecorder(restored Session) *SessionRecorder {
	return &SessionRecorder{
		current: restored,
		ch:      make(chan Session, 1),
		now:     time.Now,
	}
}

// Sessions returns the channel which receives snapshots.
func (r *SessionRecorder) Sessions() <-chan Session {
	return r.ch
}

// Current returns the latest snapshot.
func (r *SessionRecorder) Current() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// SetSelection updates the label and preset of the current session and of later ones.
func (r *SessionRecorder) SetSelection(sel Selection) {
	r.mu.Lock()
	r.current.Label = sel.Label
	r.current.PresetId = ""
	if sel.Preset != nil {
		r.current.PresetId = sel.Preset.Id
	}
	r.mu.Unlock()
}

func (r *SessionRecorder) publish(update func(s *Session)) {
	r.mu.Lock()
	update(&r.current)
	r.current.Version = SessionVersion
	r.current.SavedAt = r.now()
	s := r.current
	r.mu.Unlock()

	select {
	case <-r.ch:
	default:
	}
	select {
	case r.ch <- s:
	default:
	}
}

func (r *SessionRecorder) Started(t *Timer, seconds float64) {
	r.publish(func(s *Session) {
		s.Id = NewSessionId()
		s.Starting = seconds
		s.Remaining = seconds
		s.State = Running
	})
}

func (r *SessionRecorder) Ticked(t *Timer, seconds float64) {
	r.publish(func(s *Session) {
		s.Remaining = seconds
		s.State = Running
	})
}

func (r *SessionRecorder) Stopped(t *Timer, seconds float64) {
	r.publish(func(s *Session) {
		s.Remaining = seconds
		s.State = Idle
	})
}

func (r *SessionRecorder) Paused(t *Timer, seconds float64) {
	r.publish(func(s *Session) {
		s.Remaining = seconds
		if s.State == Running {
			s.State = Paused
		}
	})
}

func (r *SessionRecorder) Resumed(t *Timer, seconds float64) {
	r.publish(func(s *Session) {
		if s.Id == "" {
			s.Id = NewSessionId()
			s.Starting = t.Starting()
		}
		s.Remaining = seconds
		s.State = Running
	})
}

func (r *SessionRecorder) Ended(t *Timer) {
	r.publish(func(s *Session) {
		s.Remaining = 0
		s.State = Ended
	})
}

var _ Listener = (*SessionRecorder)(nil)
