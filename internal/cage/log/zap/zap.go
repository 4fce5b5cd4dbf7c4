// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package zap provides conventions shared by every zap.Logger user, e.g. the field which groups
// messages by the component that logged them.
package zap

import (
	std_zap "go.uber.org/zap"

	// zap.Field is an alias of zapcore.Field, but in 1.7.x it is not always resolved during compilation.
	"go.uber.org/zap/zapcore"
)

// TagKey is the field name which holds the tags of a message.
const TagKey = "cageLogTag"

// Tag returns a field which identifies the component(s), e.g. "hook" or "ui", that logged the message.
func Tag(tags ...string) zapcore.Field {
	return std_zap.Strings(TagKey, append([]string{}, tags...))
}

// Tagged returns a child logger which adds the tags to every message.
func Tagged(log *std_zap.Logger, tags ...string) *std_zap.Logger {
	if log == nil {
		return std_zap.NewNop()
	}
	return log.With(Tag(tags...))
}
