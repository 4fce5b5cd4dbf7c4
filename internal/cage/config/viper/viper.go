// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package viper

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	std_viper "github.com/spf13/viper"
)

// ReadInConfig reads the named file into v, selecting the format from the file extension.
//
// Files without an extension are read as YAML.
func ReadInConfig(v *std_viper.Viper, name string) error {
	if name == "" {
		return errors.New("config file path is empty")
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return errors.Wrapf(err, "failed to get absolute path of [%s]", name)
	}

	v.SetConfigFile(abs)
	if strings.TrimPrefix(filepath.Ext(abs), ".") == "" {
		v.SetConfigType("yaml")
	}

	if err = v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file [%s]", abs)
	}
	return nil
}
