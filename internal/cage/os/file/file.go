// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package file

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Exists returns true if the file/directory exists, and its os.FileInfo if so.
func Exists(name string) (bool, os.FileInfo, error) {
	fi, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, errors.Wrapf(err, "failed to stat [%s]", name)
	}
	return true, fi, nil
}

// CreateFileAll opens the file for writing, creating it and any missing parent directories.
//
// The flag value is combined with os.O_CREATE|os.O_WRONLY.
func CreateFileAll(name string, flag int, filePerm, dirPerm os.FileMode) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(name), dirPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create parent directories of [%s]", name)
	}
	f, err := os.OpenFile(name, flag|os.O_CREATE|os.O_WRONLY, filePerm) // #nosec G304
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open [%s]", name)
	}
	return f, nil
}
