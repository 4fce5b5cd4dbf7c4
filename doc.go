// Copyright (C) 2020 The countdown Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package countdown contains sub-packages which provide the CLI commands, the internal API
// (internal/countdown) which supports the CLI, and the internal "standard library" (all other
// internal/*) which is automatically extracted from a private monorepo.
package countdown

// expand godoc content for the base import path
import (
	_ "github.com/codeactual/countdown/cmd/countdown/eval"
	_ "github.com/codeactual/countdown/cmd/countdown/root"
	_ "github.com/codeactual/countdown/cmd/countdown/run"
	_ "github.com/codeactual/countdown/internal/countdown"
)
